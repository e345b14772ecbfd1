package ui

import (
	"time"

	"dealboard/internal/config"
	"dealboard/internal/crm"
	"dealboard/internal/mutate"

	tea "github.com/charmbracelet/bubbletea"
)

type tickMsg struct{}

func scheduleTick(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		interval = time.Duration(config.GetInt(config.KeyAutoRefreshSeconds)) * time.Second
	}
	return tea.Tick(interval, func(time.Time) tea.Msg { return tickMsg{} })
}

type refreshCompleteMsg struct {
	snapshot crm.PipelineSnapshot
	err      error
}

// mutationSettledMsg carries a remote outcome back onto the event loop.
type mutationSettledMsg struct {
	settlement mutate.Settlement
}

func executeMutation(pending mutate.Pending) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := mutationContext()
		defer cancel()
		return mutationSettledMsg{settlement: pending.Execute(ctx)}
	}
}

// debounceFlushMsg fires when an inline edit's coalescing window elapses.
// The generation lets a flush armed by an earlier keystroke expire silently.
type debounceFlushMsg struct {
	key mutate.DebounceKey
	gen uint64
}

func scheduleDebounceFlush(window time.Duration, key mutate.DebounceKey, gen uint64) tea.Cmd {
	return tea.Tick(window, func(time.Time) tea.Msg {
		return debounceFlushMsg{key: key, gen: gen}
	})
}

type errorToastTickMsg struct{}

func scheduleErrorToastTick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return errorToastTickMsg{}
	})
}

type copyToastTickMsg struct{}

func scheduleCopyToastTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return copyToastTickMsg{}
	})
}

type contactResolvedMsg struct {
	dealID string
	name   string
}
