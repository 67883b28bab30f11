// Package cmd wires the jukebox daemon together.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jukebox/internal/config"
	"jukebox/internal/library"
	"jukebox/internal/logger"
	"jukebox/internal/playback"
	"jukebox/internal/player"
	"jukebox/internal/spotify"
)

var rootCmd = &cobra.Command{
	Use:   "jukebox",
	Short: "Jukebox is a single-device home-audio playback daemon.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		OutputPath: cfg.Log.Path,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := library.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database %s: %w", cfg.DatabasePath, err)
	}
	defer db.Close()

	lib := library.New(db)
	store := library.NewConfigStore(db)

	volume, err := store.Volume(ctx)
	if err != nil {
		return fmt.Errorf("read volume: %w", err)
	}
	level := float64(volume) / 100

	manager := spotify.NewManager(store, log)
	if err := manager.Load(ctx); err != nil {
		return fmt.Errorf("load spotify credentials: %w", err)
	}
	manager.Run(ctx)

	targets := playback.Targets{
		Local:   player.NewLocal(lib, level, log),
		Remote:  player.NewRemote(level, log),
		Spotify: player.NewSpotify(manager.Client(), cfg.Spotify.DeviceName, log),
	}

	service := playback.New(lib, targets, log)
	defer func() { _ = service.Close() }()

	sub := service.Subscribe()
	go consumeEvents(ctx, log, lib, sub)

	log.Info("jukebox started",
		zap.String("database", cfg.DatabasePath),
		zap.String("spotify_device", cfg.Spotify.DeviceName),
		zap.Uint8("volume", volume))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutting down", zap.String("signal", sig.String()))
	return nil
}

// consumeEvents drains the playback subscription: lightweight events are
// logged, finished tracks are marked played in the library.
func consumeEvents(ctx context.Context, log *zap.Logger, lib *library.Library, sub *playback.Subscription) {
	for {
		select {
		case <-sub.Done:
			return
		case e := <-sub.TrackChanged:
			if e.Entry == nil {
				log.Info("playback stopped, queue exhausted")
				continue
			}
			log.Info("track changed",
				zap.String("entry", e.Entry.Name),
				zap.String("variant", string(e.Entry.Variant)))
		case e := <-sub.StateChanged:
			log.Debug("play state changed", zap.Bool("playing", e.Playing))
		case e := <-sub.ProgressChanged:
			log.Debug("progress",
				zap.Duration("position", e.Progress.Position),
				zap.Float64("percent", e.Progress.Percent()))
		case e := <-sub.TrackEnded:
			log.Info("track ended", zap.String("entry", e.Entry.Name))
			if err := lib.MarkPlayed(ctx, e.Entry.ID, time.Now()); err != nil {
				log.Warn("failed to mark entry played",
					zap.Int64("entry_id", e.Entry.ID),
					zap.Error(err))
			}
		case e := <-sub.Error:
			log.Warn("playback error",
				zap.String("op", e.Op),
				zap.Error(e.Err))
		}
	}
}
