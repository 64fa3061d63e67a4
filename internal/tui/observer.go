package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/portal/internal/pager"
)

// ChannelObserver adapts pager.Observer to a channel for Bubble Tea.
type ChannelObserver struct {
	ch chan pager.Change
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(size int) *ChannelObserver {
	return &ChannelObserver{ch: make(chan pager.Change, size)}
}

// OnChange sends the change to the channel (non-blocking if full).
// A dropped change is harmless: every refresh reads full snapshots.
func (o *ChannelObserver) OnChange(change pager.Change) {
	select {
	case o.ch <- change:
	default:
	}
}

// Wait returns a command that delivers the next change as a loaderChangedMsg
func (o *ChannelObserver) Wait() tea.Cmd {
	return func() tea.Msg {
		return loaderChangedMsg{Change: <-o.ch}
	}
}
