// Package ui contains the Bubble Tea program that renders the scout link panel.
// The Model type focuses on message orchestration, while dedicated helpers own
// input, rendering, and state updates.
//
// Message flow:
//   - Bubble Tea invokes Model.Update with incoming messages, which are routed
//     through a typed handler registry so each tea.Msg is handled by a focused
//     function (key presses, window resizes, host answers, backend events).
//   - Key handling (internal/ui/input.go) maps shortcuts to host actions and
//     feeds every other key to the pantry id text input, mirroring its value
//     into the draft.
//
// State ownership:
//   - Pantry, scout, and link stores live in internal/state. The dispatcher
//     applies host events to them; the view only reads them.
//   - Host requests that block (get_pantry_id, clipboard writes) run through
//     the internal/ui/command bus as tea.Cmd values and report back as
//     messages.
//
// Backend interactions:
//   - A backend.Watcher streams host events; Update waits for those events and
//     hands them to applyBackendEvent. Losing the host link stops the wait loop
//     and surfaces the error on the status line.
//   - Startup emits dom_loaded and then asks for the committed pantry id. A
//     failed request leaves the id unknown rather than empty.
package ui
