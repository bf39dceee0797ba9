package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/untangl/scoutlink/internal/backend"
	"github.com/untangl/scoutlink/internal/logging"
)

func waitForBackendEvent(w *backend.Watcher) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-w.Events()
		if !ok {
			return backendDoneMsg{}
		}
		return backendEventMsg{event: evt}
	}
}

type backendEventMsg struct {
	event backend.Event
}

type backendDoneMsg struct{}

func (m *Model) handleBackendEventMsg(msg tea.Msg) tea.Cmd {
	eventMsg, ok := msg.(backendEventMsg)
	if !ok {
		return nil
	}
	cmd := m.applyBackendEvent(eventMsg.event)
	if m.backend != nil && !m.linkLost {
		waitCmd := waitForBackendEvent(m.backend)
		if cmd != nil {
			return tea.Batch(cmd, waitCmd)
		}
		return waitCmd
	}
	return cmd
}

func (m *Model) handleBackendDoneMsg(msg tea.Msg) tea.Cmd {
	m.backend = nil
	return nil
}

func (m *Model) applyBackendEvent(evt backend.Event) tea.Cmd {
	res := m.dispatcher.Handle(evt)
	if res.LinkLost {
		m.linkLost = true
		err := fmt.Errorf("host link lost: %w", evt.Err)
		logging.Error(err)
		m.errMsg = err.Error()
		return nil
	}
	m.lastEvent = m.now()
	if res.ScoutUpdated {
		m.forceClearInfo()
	}
	return nil
}
