package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/untangl/scoutlink/internal/logging"
	"github.com/untangl/scoutlink/internal/logging/events"
	"github.com/untangl/scoutlink/internal/ui/command"
)

// pantryLoadedMsg carries the host's answer to get_pantry_id.
type pantryLoadedMsg struct {
	id  string
	err error
}

// copyResultMsg reports a clipboard write.
type copyResultMsg struct {
	target string
	err    error
}

// startupCmd signals readiness and then asks for the committed pantry id.
// Both happen in one command so dom_loaded always precedes the request.
func (m *Model) startupCmd() tea.Cmd {
	host := m.host
	return m.bus.Execute(context.Background(), command.Request{
		ID:    "pantry:get",
		Label: "get pantry id",
		Run: func(ctx context.Context) tea.Msg {
			host.DOMLoaded()
			id, err := host.GetPantryID(ctx)
			if err != nil {
				logging.Error(err)
			}
			return pantryLoadedMsg{id: id, err: err}
		},
	})
}

func (m *Model) handlePantryLoadedMsg(msg tea.Msg) tea.Cmd {
	loaded, ok := msg.(pantryLoadedMsg)
	if !ok {
		return nil
	}
	m.loading = false
	if loaded.err != nil {
		m.pantry.Unknown()
		m.errMsg = loaded.err.Error()
		events.Store.PantryUnknown(loaded.err)
		return nil
	}
	m.pantry.Loaded(loaded.id)
	m.input.SetValue(loaded.id)
	m.input.CursorEnd()
	events.UI.Draft(m.pantry.Draft(), m.pantry.ApplyVisible())
	return nil
}

// applyPantry commits the draft optimistically and tells the host. Nothing
// happens while the affordance is hidden.
func (m *Model) applyPantry() tea.Cmd {
	if !m.pantry.ApplyVisible() {
		return nil
	}
	value := m.pantry.Draft()
	m.pantry.Commit(value)
	events.Store.Commit(value)
	if m.host != nil {
		m.host.SetPantryID(value)
	}
	m.errMsg = ""
	m.setInfo("Pantry id applied")
	return nil
}

func (m *Model) selectFile() tea.Cmd {
	if m.host == nil {
		return nil
	}
	if m.host.SelectFile() {
		m.setInfo("Waiting for file selection…")
	}
	return nil
}

func (m *Model) toggleBase64() tea.Cmd {
	if m.host == nil {
		return nil
	}
	m.host.RequestBase64(!m.scout.Base64())
	return nil
}

func (m *Model) copyCmd(target, text string) tea.Cmd {
	if text == "" {
		return nil
	}
	write := m.clipboard
	return m.bus.Execute(context.Background(), command.Request{
		ID:    "copy:" + target,
		Label: "copy " + target + " link",
		Run: func(context.Context) tea.Msg {
			events.UI.Copy(target)
			return copyResultMsg{target: target, err: write(text)}
		},
	})
}

func (m *Model) handleCopyResultMsg(msg tea.Msg) tea.Cmd {
	result, ok := msg.(copyResultMsg)
	if !ok {
		return nil
	}
	if result.err != nil {
		err := fmt.Errorf("copy %s link: %w", result.target, result.err)
		logging.Error(err)
		events.Action.Error(err)
		m.errMsg = err.Error()
		return nil
	}
	info := fmt.Sprintf("Copied %s link", result.target)
	events.Action.Success(info)
	m.setInfo(info)
	return nil
}
