// Package crm provides clients for the deal store behind the board.
// This file contains backend detection logic for choosing between the remote
// API and the local SQLite board.
package crm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"dealboard/internal/config"
)

// Backend constants
const (
	BackendRemote = "remote" // CRM REST API
	BackendLocal  = "local"  // local SQLite board
)

// ErrBackendAmbiguous indicates both backends are configured but no preference
// is set in non-TTY mode.
var ErrBackendAmbiguous = errors.New("both remote and local backends configured; use --backend flag or set backend in .dealboard/config.yaml")

// Test hooks - these function variables allow tests to mock dependencies.
// In production, they point to the real implementations.
var (
	// isInteractiveTTYFunc is used to check if stdin is a TTY.
	isInteractiveTTYFunc = isInteractiveTTY

	// promptUserForBackendFunc is used for interactive backend selection.
	promptUserForBackendFunc = promptUserForBackend
)

// DetectBackendOptions configures DetectBackend behavior.
type DetectBackendOptions struct {
	// CLIFlag is the value of --backend flag (empty if not provided).
	CLIFlag string
	// BeforePrompt is called before any interactive prompt (e.g., to stop animations).
	// Pass nil if no pre-prompt callback is needed.
	BeforePrompt func()
}

// DetectBackend determines which backend (remote or local) to use.
//
// Priority order:
//  1. CLI flag (--backend)
//  2. Stored preference (backend key in config)
//  3. Whichever of api.base-url / database.path is configured; prompt when both are.
func DetectBackend(opts DetectBackendOptions) (string, error) {
	baseURL := config.GetString(config.KeyAPIBaseURL)
	dbPath := config.GetString(config.KeyDatabasePath)

	if opts.CLIFlag != "" {
		if opts.CLIFlag != BackendRemote && opts.CLIFlag != BackendLocal {
			return "", fmt.Errorf("invalid --backend value: %q (must be 'remote' or 'local')", opts.CLIFlag)
		}
		// One-time override, not saved.
		return opts.CLIFlag, nil
	}

	if stored := config.GetString(config.KeyBackend); stored != "" {
		if stored != BackendRemote && stored != BackendLocal {
			return "", fmt.Errorf("invalid backend in config: %q (must be 'remote' or 'local')", stored)
		}
		return stored, nil
	}

	remoteConfigured := baseURL != ""
	localConfigured := dbPath != ""

	switch {
	case !remoteConfigured && !localConfigured:
		// A zero-config launch still gets a usable board: fall back to a
		// local database under the user's home directory.
		return BackendLocal, nil
	case remoteConfigured && !localConfigured:
		return BackendRemote, nil
	case localConfigured && !remoteConfigured:
		return BackendLocal, nil
	}

	// Both configured - need user input.
	if !isInteractiveTTYFunc() {
		return "", ErrBackendAmbiguous
	}
	if opts.BeforePrompt != nil {
		opts.BeforePrompt()
	}
	return promptUserForBackendFunc(), nil
}

// NewClientForBackend creates the appropriate Client based on backend string.
func NewClientForBackend(backend string) (Client, error) {
	switch backend {
	case BackendRemote:
		baseURL := config.GetString(config.KeyAPIBaseURL)
		workspace := config.GetString(config.KeyWorkspaceID)
		if baseURL == "" {
			return nil, fmt.Errorf("remote backend requires api.base-url")
		}
		if workspace == "" {
			return nil, fmt.Errorf("remote backend requires api.workspace")
		}
		return NewHTTPClient(baseURL, workspace, WithToken(config.GetString(config.KeyAPIToken))), nil
	case BackendLocal:
		dbPath := config.GetString(config.KeyDatabasePath)
		if dbPath == "" {
			path, err := defaultLocalDBPath()
			if err != nil {
				return nil, err
			}
			dbPath = path
		}
		return NewSQLiteClient(dbPath)
	default:
		return nil, fmt.Errorf("unknown backend: %q (must be %q or %q)", backend, BackendRemote, BackendLocal)
	}
}

func defaultLocalDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	dir := filepath.Join(home, ".dealboard")
	//nolint:gosec // G301: User config directory needs standard permissions
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return filepath.Join(dir, "board.db"), nil
}

// promptUserForBackend prompts the user to select between remote and local.
// Uses huh library for a nice interactive selection UI.
func promptUserForBackend() string {
	var choice string
	form := huh.NewSelect[string]().
		Title("Both a remote API and a local database are configured. Which should this board use?").
		Options(
			huh.NewOption("remote (CRM API)", BackendRemote),
			huh.NewOption("local (SQLite)", BackendLocal),
		).
		Value(&choice)

	if err := form.Run(); err != nil {
		// If form fails (e.g., interrupted), default to remote
		return BackendRemote
	}

	return choice
}

// isInteractiveTTY checks if stdin is connected to an interactive terminal.
// Used to determine if we can prompt the user for backend selection.
func isInteractiveTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
