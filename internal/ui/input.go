package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/untangl/scoutlink/internal/logging/events"
)

func (m *Model) updateInputModel(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	key := keyMsg.String()
	switch key {
	case "ctrl+c", "esc":
		events.UI.Key(key)
		return tea.Quit
	case "enter":
		events.UI.Key(key)
		return m.applyPantry()
	case "ctrl+o":
		events.UI.Key(key)
		return m.selectFile()
	case "ctrl+b":
		events.UI.Key(key)
		return m.toggleBase64()
	case "ctrl+l":
		events.UI.Key(key)
		links := m.links.Links()
		if !links.Visible {
			return nil
		}
		return m.copyCmd("local", links.LocalURL)
	case "ctrl+y":
		events.UI.Key(key)
		links := m.links.Links()
		if !links.ShareVisible {
			return nil
		}
		return m.copyCmd("share", links.ShareURL)
	}
	return m.handleTextInput(keyMsg)
}

// handleTextInput routes editing keys to the pantry input and mirrors the
// value into the draft.
func (m *Model) handleTextInput(msg tea.KeyMsg) tea.Cmd {
	before := m.input.Value()
	cmd := m.updateInputModel(msg)
	after := m.input.Value()
	if after != before {
		m.pantry.SetDraft(after)
		m.forceClearInfo()
		events.UI.Draft(after, m.pantry.ApplyVisible())
	}
	return cmd
}
