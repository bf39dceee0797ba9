package main

import (
	"fmt"
	"os"

	"github.com/untangl/scoutlink/internal/app"
	"github.com/untangl/scoutlink/internal/config"
	"github.com/untangl/scoutlink/internal/logging"
	"github.com/untangl/scoutlink/internal/logging/events"
	"golang.org/x/term"
)

func main() {
	cfg := config.MustLoad()
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	logging.Configure(cfg.Logging.FilePath)
	logging.SetTraceEnabled(cfg.Logging.Trace)

	events.App.Start(startupTracePayload(cfg, resolveViewport(cfg.App, int(os.Stdout.Fd()))))

	if err := app.Run(cfg.App); err != nil {
		logging.Error(err)
		_ = logging.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	_ = logging.Sync()
}

// startupTracePayload records the effective connection settings and where the
// config file came from.
func startupTracePayload(cfg config.Config, vp viewport) map[string]interface{} {
	source := "default"
	switch {
	case cfg.FileLoaded:
		source = "file"
	case cfg.File == "":
		source = "none"
	}
	return map[string]interface{}{
		"host":        cfg.App.HostURL,
		"sharePrefix": cfg.App.SharePrefix,
		"timeout":     cfg.App.CommandTimeout.String(),
		"footer":      cfg.App.ShowFooter,
		"viewport":    vp,
		"configFile": map[string]interface{}{
			"path":   cfg.File,
			"source": source,
		},
		"overrides": cfg.Flags,
		"argv":      cfg.Args,
	}
}

// viewport is the starting size of the surface and where it came from.
type viewport struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Source string `json:"source"`
	Error  string `json:"error,omitempty"`
}

// resolveViewport fills unset dimensions from the terminal on fd.
func resolveViewport(cfg app.Config, fd int) viewport {
	vp := viewport{Width: cfg.Width, Height: cfg.Height, Source: "config"}
	if vp.Width > 0 && vp.Height > 0 {
		return vp
	}
	if fd < 0 || !term.IsTerminal(fd) {
		vp.Source = "unknown"
		return vp
	}
	width, height, err := term.GetSize(fd)
	if err != nil {
		vp.Source = "unknown"
		vp.Error = err.Error()
		return vp
	}
	vp.Source = "terminal"
	if vp.Width <= 0 {
		vp.Width = width
	}
	if vp.Height <= 0 {
		vp.Height = height
	}
	return vp
}
