package ui

import (
	"context"
	"reflect"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/untangl/scoutlink/internal/backend"
	"github.com/untangl/scoutlink/internal/data/dispatcher"
	"github.com/untangl/scoutlink/internal/state"
	"github.com/untangl/scoutlink/internal/theme"
	"github.com/untangl/scoutlink/internal/ui/command"
)

const (
	defaultTitle     = "scoutlink"
	pantryCharLimit  = 128
	pantryInputWidth = 40
)

var styles = theme.Default()

type msgHandler func(tea.Msg) tea.Cmd

// Host is the command surface the UI drives. *facade.Facade satisfies it.
type Host interface {
	GetPantryID(ctx context.Context) (string, error)
	SetPantryID(id string)
	SelectFile() bool
	DOMLoaded()
	RequestBase64(enabled bool)
}

// Options tunes the model. The zero value is usable.
type Options struct {
	Width       int
	Height      int
	ShowFooter  bool
	SharePrefix string
	// StaticCursor disables cursor blinking, which keeps tick commands out
	// of programmatic runs.
	StaticCursor bool
	// Clipboard overrides the system clipboard writer.
	Clipboard func(string) error
	// Now overrides the clock used for info expiry and event age.
	Now func() time.Time
}

// Model implements the Bubble Tea model for the scout link panel.
type Model struct {
	input       textinput.Model
	errMsg      string
	infoMsg     string
	infoExpire  time.Time
	width       int
	height      int
	fixedWidth  bool
	fixedHeight bool
	showFooter  bool
	blink       bool
	loading     bool
	linkLost    bool
	lastEvent   time.Time

	handlers map[reflect.Type]msgHandler

	host       Host
	backend    *backend.Watcher
	bus        *command.Bus
	pantry     state.PantryStore
	scout      state.ScoutStore
	links      state.LinkStore
	dispatcher *dispatcher.Dispatcher
	clipboard  func(string) error
	now        func() time.Time
}

// NewModel initialises the UI state. host may be nil, in which case user
// actions only change local state.
func NewModel(host Host, watcher *backend.Watcher, opts Options) *Model {
	scout := state.NewScoutStore()
	links := state.NewLinkStore(opts.SharePrefix)
	m := &Model{
		host:       host,
		backend:    watcher,
		bus:        command.New(),
		pantry:     state.NewPantryStore(),
		scout:      scout,
		links:      links,
		dispatcher: dispatcher.New(scout, links),
		showFooter: opts.ShowFooter,
		blink:      !opts.StaticCursor,
		loading:    host != nil,
		clipboard:  opts.Clipboard,
		now:        opts.Now,
	}
	if m.clipboard == nil {
		m.clipboard = clipboard.WriteAll
	}
	if m.now == nil {
		m.now = time.Now
	}
	if opts.Width > 0 {
		m.width = opts.Width
		m.fixedWidth = true
	}
	if opts.Height > 0 {
		m.height = opts.Height
		m.fixedHeight = true
	}
	m.input = newPantryInput(m.blink)
	m.registerHandlers()
	return m
}

func newPantryInput(blink bool) textinput.Model {
	in := textinput.New()
	in.Prompt = "» "
	in.Placeholder = "pantry id"
	in.CharLimit = pantryCharLimit
	in.Width = pantryInputWidth
	if styles.InputPrompt != nil {
		in.PromptStyle = *styles.InputPrompt
	}
	if styles.Input != nil {
		in.TextStyle = *styles.Input
	}
	if styles.Placeholder != nil {
		in.PlaceholderStyle = *styles.Placeholder
	}
	if styles.Cursor != nil {
		in.Cursor.Style = *styles.Cursor
	}
	if !blink {
		in.Cursor.SetMode(cursor.CursorStatic)
	}
	in.Focus()
	return in
}

// Init is part of the tea.Model interface.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{}
	if m.host != nil {
		cmds = append(cmds, m.startupCmd())
	}
	if m.backend != nil {
		cmds = append(cmds, waitForBackendEvent(m.backend))
	}
	if m.blink {
		cmds = append(cmds, textinput.Blink)
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmds := make([]tea.Cmd, 0, 2)
	if _, isKey := msg.(tea.KeyMsg); !isKey {
		if cmd := m.updateInputModel(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	if handler := m.handlerFor(msg); handler != nil {
		if cmd := handler(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return m, finishUpdate(cmds)
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyMsg{}):        m.handleKeyMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}): m.handleWindowSizeMsg,
		reflect.TypeOf(pantryLoadedMsg{}):   m.handlePantryLoadedMsg,
		reflect.TypeOf(copyResultMsg{}):     m.handleCopyResultMsg,
		reflect.TypeOf(backendEventMsg{}):   m.handleBackendEventMsg,
		reflect.TypeOf(backendDoneMsg{}):    m.handleBackendDoneMsg,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

func finishUpdate(cmds []tea.Cmd) tea.Cmd {
	if len(cmds) == 0 {
		return nil
	}
	if len(cmds) == 1 {
		return cmds[0]
	}
	return tea.Batch(cmds...)
}
