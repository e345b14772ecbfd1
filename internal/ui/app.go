// Package ui implements the Bubble Tea front end for the deal board: a
// kanban view over the pipeline with optimistic edits. Every mutation lands
// on the board immediately and reconciles (or rolls back) when the backend
// answers.
package ui

import (
	"context"
	"time"

	"dealboard/internal/config"
	"dealboard/internal/crm"
	"dealboard/internal/debug"
	"dealboard/internal/drag"
	"dealboard/internal/mutate"
	"dealboard/internal/pipeline"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	defaultRefreshInterval = 10 * time.Second
	mutationTimeout        = 30 * time.Second
	errorToastDuration     = 10 * time.Second
	copyToastDuration      = 5 * time.Second
)

// clipboardWriteAll is swapped out in tests.
var clipboardWriteAll = clipboard.WriteAll

func mutationContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), mutationTimeout)
}

type mode int

const (
	modeBoard mode = iota
	modeDetail
	modeCreate
	modeStages
	modeConfirmDelete
	modeLostReason
	modeHelp
)

// Config configures the UI application.
type Config struct {
	Client          crm.Client
	Version         string
	AutoRefresh     bool
	RefreshInterval time.Duration
	DebounceWindow  time.Duration
	Placement       string
	OutputFormat    string
}

// App implements the Bubble Tea model for the deal board.
type App struct {
	store       *pipeline.Store
	coordinator *mutate.Coordinator
	debouncer   *mutate.Debouncer
	dragging    drag.Machine
	client      crm.Client
	keys        KeyMap

	mode mode
	col  int
	row  int

	width  int
	height int
	ready  bool

	refreshInterval time.Duration
	autoRefresh     bool
	refreshInFlight bool
	placement       string
	outputFormat    string
	version         string

	detailDealID string

	editing    bool
	editDealID string
	editInput  textinput.Model

	create createOverlay
	stages stageOverlay

	deleteTargetID string

	lostReasonDealID string
	lostReasonInput  textinput.Model

	showErrorToast  bool
	lastError       string
	errorToastStart time.Time

	showCopyToast  bool
	copiedDealID   string
	copyToastStart time.Time
}

// NewApp loads the initial board snapshot and builds the model.
func NewApp(cfg Config) (*App, error) {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaultRefreshInterval
	}
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = config.DebounceWindow()
	}
	if cfg.Placement == "" {
		cfg.Placement = config.MovePlacement()
	}

	ctx, cancel := mutationContext()
	defer cancel()
	snapshot, err := cfg.Client.ListPipeline(ctx)
	if err != nil {
		return nil, err
	}

	app := &App{
		store:           pipeline.NewStore(pipeline.FromSnapshot(snapshot)),
		debouncer:       mutate.NewDebouncer(cfg.DebounceWindow),
		client:          cfg.Client,
		keys:            DefaultKeyMap(),
		refreshInterval: cfg.RefreshInterval,
		autoRefresh:     cfg.AutoRefresh,
		placement:       cfg.Placement,
		outputFormat:    cfg.OutputFormat,
		version:         cfg.Version,
	}
	app.coordinator = mutate.NewCoordinator(app.store, cfg.Client,
		mutate.NotifierFunc(func(op mutate.Op, entityID string, err error) {
			app.reportFailure(op, entityID, err)
		}))

	ti := textinput.New()
	ti.CharLimit = 120
	app.editInput = ti

	lr := textinput.New()
	lr.Placeholder = "Reason lost (optional)"
	lr.CharLimit = 200
	app.lostReasonInput = lr

	return app, nil
}

func (m *App) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink}
	if m.autoRefresh && m.refreshInterval > 0 {
		cmds = append(cmds, scheduleTick(m.refreshInterval))
	}
	return tea.Batch(cmds...)
}

// board returns the current snapshot.
func (m *App) board() pipeline.Pipeline {
	return m.store.Current()
}

// selectedDeal returns the deal under the cursor, if any.
func (m *App) selectedDeal() (crm.Deal, bool) {
	board := m.board()
	stages := board.Stages()
	if m.col < 0 || m.col >= len(stages) {
		return crm.Deal{}, false
	}
	deals := board.StageDeals(stages[m.col])
	if m.row < 0 || m.row >= len(deals) {
		return crm.Deal{}, false
	}
	return deals[m.row], true
}

// clampCursor keeps the cursor inside the board after any state change.
func (m *App) clampCursor() {
	board := m.board()
	stages := board.Stages()
	if len(stages) == 0 {
		m.col, m.row = 0, 0
		return
	}
	if m.col >= len(stages) {
		m.col = len(stages) - 1
	}
	if m.col < 0 {
		m.col = 0
	}
	deals := board.StageDeals(stages[m.col])
	if m.row >= len(deals) {
		m.row = len(deals) - 1
	}
	if m.row < 0 {
		m.row = 0
	}
}

func (m *App) reportFailure(op mutate.Op, entityID string, err error) {
	debug.Logf("ui: %s entity=%s: %v", op.FailureMessage(), entityID, err)
	m.lastError = op.FailureMessage() + ": " + err.Error()
	m.showErrorToast = true
	m.errorToastStart = time.Now()
}

func (m *App) dispatch(pending mutate.Pending) tea.Cmd {
	return executeMutation(pending)
}

// refreshCmd fetches a fresh snapshot off the event loop.
func (m *App) refreshCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := mutationContext()
		defer cancel()
		snapshot, err := client.ListPipeline(ctx)
		return refreshCompleteMsg{snapshot: snapshot, err: err}
	}
}

// canAutoRefresh holds background refreshes while local edits are unsettled,
// so a stale server listing cannot stomp optimistic state.
func (m *App) canAutoRefresh() bool {
	return !m.refreshInFlight &&
		m.coordinator.InFlight() == 0 &&
		m.debouncer.Pending() == 0 &&
		!m.dragging.Dragging() &&
		!m.editing
}

func (m *App) copyDealID() tea.Cmd {
	deal, ok := m.selectedDeal()
	if !ok {
		return nil
	}
	if err := clipboardWriteAll(deal.ID); err != nil {
		debug.Logf("ui: clipboard write failed: %v", err)
		return nil
	}
	m.showCopyToast = true
	m.copiedDealID = deal.ID
	m.copyToastStart = time.Now()
	return scheduleCopyToastTick()
}
