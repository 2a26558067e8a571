package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/saiful3278/Screenshare-fronted/internal/capture"
	"github.com/saiful3278/Screenshare-fronted/internal/config"
	"github.com/saiful3278/Screenshare-fronted/internal/controller"
	"github.com/saiful3278/Screenshare-fronted/internal/logging"
	"github.com/saiful3278/Screenshare-fronted/internal/session"
	"github.com/saiful3278/Screenshare-fronted/internal/signaling"
	"github.com/saiful3278/Screenshare-fronted/internal/transport"
	"github.com/saiful3278/Screenshare-fronted/internal/ui"
)

// SessionOptions is what a share or view command contributes to the
// interactive session.
type SessionOptions struct {
	Capturer capture.Capturer
	Surface  controller.Surface

	// Start is posted once, the first time the relay is reachable.
	Start session.Event
}

// RunSession connects to the relay, runs the controller and shows the
// session screen until the user quits.
func RunSession(ctx context.Context, cfg *config.Config, opts SessionOptions) error {
	logFile, err := logging.ToFile()
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() {
		logging.Init()
		logFile.Close()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	client := signaling.NewClient(cfg.RelayURL)
	ctl := controller.New(controller.Options{
		Relay:    client,
		Capturer: opts.Capturer,
		Dialer:   controller.PionDialer{Options: transport.OptionsFrom(cfg)},
		Surface:  opts.Surface,
		Link:     cfg.RoomLink,
	})
	ctl.Attach(client)

	if opts.Start != nil {
		var once sync.Once
		ctl.OnChange(func(v controller.View) {
			if v.RelayUp {
				once.Do(func() { ctl.Post(opts.Start) })
			}
		})
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		client.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		ctl.Run(ctx)
	}()

	slog.Info("session started", "relay", cfg.RelayURL)
	err = ui.Run(ctx, ctl)

	cancel()
	wg.Wait()
	slog.Info("session ended")
	return err
}
