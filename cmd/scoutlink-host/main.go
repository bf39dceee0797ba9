// Command scoutlink-host serves an in-memory scout host that the scoutlink
// UI can connect to during development.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/untangl/scoutlink/internal/channel"
	"github.com/untangl/scoutlink/internal/hostsim"
	"github.com/untangl/scoutlink/internal/logging"
	"github.com/untangl/scoutlink/internal/transport"
	"go.uber.org/zap"
)

func main() {
	listen := flag.String("listen", "127.0.0.1:7488", "address to serve /ws, /healthz and /metrics on")
	file := flag.String("file", "", "scout file handed out on select_file")
	pantryID := flag.String("pantry-id", "", "initial pantry id")
	base64 := flag.Bool("base64", true, "initial Base64 encoding flag")
	hideShare := flag.Bool("hide-share-link", false, "tell surfaces to hide the share link")
	logFile := flag.String("log-file", "scoutlink-host.log", "path to the log file")
	trace := flag.Bool("trace", false, "enable verbose JSON trace logging")
	flag.Parse()

	logging.Configure(*logFile)
	logging.SetTraceEnabled(*trace)
	defer logging.Sync()
	log := logging.L().Named("host")

	opts := hostsim.Options{
		File:          *file,
		HideShareLink: *hideShare,
		PantryID:      *pantryID,
		Base64:        *base64,
	}
	if err := opts.CheckFile(); err != nil {
		log.Warn("select_file will report an error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	bus := channel.New()
	defer bus.Close()
	server := transport.NewServer(bus)
	hostsim.New(server, opts)

	httpServer := &http.Server{
		Addr:              *listen,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", *listen))
		fmt.Printf("scoutlink-host listening on ws://%s/ws\n", *listen)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error(fmt.Errorf("serve: %w", err))
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	server.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logging.Error(fmt.Errorf("shutdown: %w", err))
	}
}
