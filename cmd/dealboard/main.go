package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"dealboard/internal/config"
	"dealboard/internal/crm"
	"dealboard/internal/debug"
	"dealboard/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	if err := config.Initialize(); err != nil {
		fmt.Printf("Error initializing config: %v\n", err)
		os.Exit(1)
	}

	autoRefreshSecondsDefault := config.GetInt(config.KeyAutoRefreshSeconds)
	if autoRefreshSecondsDefault < 0 {
		autoRefreshSecondsDefault = 0
	}
	outputFormatDefault := config.GetString(config.KeyOutputFormat)
	placementDefault := config.MovePlacement()

	versionFlag := flag.Bool("version", false, "Print version information and exit")
	backendFlag := flag.String("backend", "", "Backend to use: remote or local (default: auto-detect)")
	autoRefreshSecondsFlag := flag.Int("auto-refresh-seconds", autoRefreshSecondsDefault, "Auto-refresh interval in seconds (0 disables auto refresh)")
	debounceMillisFlag := flag.Int("debounce-millis", config.GetInt(config.KeyDebounceMillis), "Inline-edit coalescing window in milliseconds")
	placementFlag := flag.String("move-placement", placementDefault, "Where moved deals land in their new stage (head or tail)")
	outputFormatFlag := flag.String("output-format", outputFormatDefault, "Detail panel markdown style (rich, light, plain)")
	debugFlag := flag.Bool("debug", config.GetBool(config.KeyDebug), "Write a debug log to ~/.dealboard/debug.log")
	flag.Parse()

	if *versionFlag {
		printVersion()
		os.Exit(0)
	}

	if *debugFlag {
		if err := debug.Init(true); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: debug log unavailable: %v\n", err)
		}
		defer debug.Close()
	}

	visited := map[string]struct{}{}
	flag.CommandLine.Visit(func(f *flag.Flag) {
		visited[f.Name] = struct{}{}
	})

	runtime := computeRuntimeOptions(runtimeFlags{
		autoRefreshSeconds: autoRefreshSecondsFlag,
		debounceMillis:     debounceMillisFlag,
		placement:          placementFlag,
		outputFormat:       outputFormatFlag,
	}, visited)

	backend, err := crm.DetectBackend(crm.DetectBackendOptions{CLIFlag: *backendFlag})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	client, err := crm.NewClientForBackend(backend)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	appCfg := ui.Config{
		Client:          client,
		Version:         Version,
		AutoRefresh:     runtime.autoRefresh,
		RefreshInterval: runtime.refreshInterval,
		DebounceWindow:  runtime.debounceWindow,
		Placement:       runtime.placement,
		OutputFormat:    runtime.outputFormat,
	}

	if err := runProgram(appCfg, ui.NewApp, func(app *ui.App) programRunner {
		return tea.NewProgram(app, tea.WithAltScreen())
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type programRunner interface {
	Run() (tea.Model, error)
}

type programFactory func(*ui.App) programRunner

func runProgram(cfg ui.Config, builder func(ui.Config) (*ui.App, error), factory programFactory) error {
	app, err := builder(cfg)
	if err != nil {
		return fmt.Errorf("initialize UI: %w", err)
	}
	if factory == nil {
		return errors.New("program factory is nil")
	}
	prog := factory(app)
	if prog == nil {
		return errors.New("program is nil")
	}
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("run UI: %w", err)
	}
	return nil
}

type runtimeFlags struct {
	autoRefreshSeconds *int
	debounceMillis     *int
	placement          *string
	outputFormat       *string
}

type runtimeOptions struct {
	refreshInterval time.Duration
	autoRefresh     bool
	debounceWindow  time.Duration
	placement       string
	outputFormat    string
}

func computeRuntimeOptions(flags runtimeFlags, visited map[string]struct{}) runtimeOptions {
	seconds := sanitizeAutoRefreshSeconds(config.GetInt(config.KeyAutoRefreshSeconds))
	if flagWasExplicitlySet("auto-refresh-seconds", visited) {
		seconds = sanitizeAutoRefreshSeconds(*flags.autoRefreshSeconds)
	}
	refreshInterval := time.Duration(seconds) * time.Second
	autoRefresh := seconds > 0

	debounceWindow := config.DebounceWindow()
	if flagWasExplicitlySet("debounce-millis", visited) {
		millis := *flags.debounceMillis
		if millis <= 0 {
			millis = config.DefaultDebounceMillis
		}
		debounceWindow = time.Duration(millis) * time.Millisecond
	}

	placement := config.MovePlacement()
	if flagWasExplicitlySet("move-placement", visited) {
		placement = sanitizePlacement(*flags.placement)
	}

	outputFormat := strings.TrimSpace(config.GetString(config.KeyOutputFormat))
	if flagWasExplicitlySet("output-format", visited) {
		outputFormat = strings.TrimSpace(*flags.outputFormat)
	}

	return runtimeOptions{
		refreshInterval: refreshInterval,
		autoRefresh:     autoRefresh,
		debounceWindow:  debounceWindow,
		placement:       placement,
		outputFormat:    outputFormat,
	}
}

func flagWasExplicitlySet(name string, visited map[string]struct{}) bool {
	if _, ok := visited[name]; ok {
		return true
	}
	f := flag.CommandLine.Lookup(name)
	if f == nil {
		return false
	}
	return f.Value.String() != f.DefValue
}

func sanitizeAutoRefreshSeconds(seconds int) int {
	if seconds < 0 {
		return 0
	}
	return seconds
}

func sanitizePlacement(raw string) string {
	if strings.ToLower(strings.TrimSpace(raw)) == config.PlacementTail {
		return config.PlacementTail
	}
	return config.PlacementHead
}
