package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/untangl/scoutlink/internal/backend"
	"github.com/untangl/scoutlink/internal/channel"
	"github.com/untangl/scoutlink/internal/facade"
	"github.com/untangl/scoutlink/internal/logging/events"
	"github.com/untangl/scoutlink/internal/transport"
	"github.com/untangl/scoutlink/internal/ui"
)

// Config describes user-provided application options.
type Config struct {
	HostURL        string
	Width          int
	Height         int
	ShowFooter     bool
	SharePrefix    string
	CommandTimeout time.Duration
}

const dialTimeout = 5 * time.Second

// connect registers the watcher on bus before dialling, since the client
// starts emitting host frames into bus as soon as Dial returns.
func connect(ctx context.Context, url string, bus *channel.Bus) (*backend.Watcher, *transport.Client, error) {
	watcher := backend.NewWatcher(bus)
	client, err := transport.Dial(ctx, url, bus)
	if err != nil {
		watcher.Stop()
		return nil, nil, fmt.Errorf("connect to host: %w", err)
	}
	watcher.Attach(client)
	return watcher, client, nil
}

// Run connects to the host and executes the Bubble Tea program.
func Run(cfg Config) error {
	bus := channel.New()
	defer bus.Close()

	started := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	watcher, client, err := connect(ctx, cfg.HostURL, bus)
	cancel()
	if err != nil {
		events.App.DialFailed(cfg.HostURL, err)
		return err
	}
	defer watcher.Stop()
	defer client.Close()
	events.App.Connected(cfg.HostURL, time.Since(started))

	host := facade.New(client, cfg.CommandTimeout)
	defer host.Wait()

	model := ui.NewModel(host, watcher, ui.Options{
		Width:       cfg.Width,
		Height:      cfg.Height,
		ShowFooter:  cfg.ShowFooter,
		SharePrefix: cfg.SharePrefix,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	reason := "quit"
	if err != nil {
		reason = err.Error()
	}
	events.App.Stop(reason)
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
