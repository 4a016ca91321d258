package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/drgolem/playout/internal/config"
	"github.com/drgolem/playout/internal/controlserver"
	"github.com/drgolem/playout/internal/params"
	"github.com/drgolem/playout/pkg/audioclient"
	"github.com/drgolem/playout/pkg/engine"
	"github.com/drgolem/playout/pkg/fallback"
)

var (
	configPath string
	verbose    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the playout engine",
	Run:   runEngine,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a JSON config file")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func runEngine(cmd *cobra.Command, args []string) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("config load failed, using defaults", "error", err)
		cfg = config.Defaults()
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config invalid, using defaults", "error", err)
		cfg = config.Defaults()
	}

	store, err := params.Open(cfg.ParamsPath)
	if err != nil {
		slog.Error("params store failed to open", "error", err)
		os.Exit(1)
	}

	cal := engine.NewStaticCalendar(nil)
	eng := engine.New(cal, engine.Config{
		SampleRate:  cfg.SampleRate,
		BlockSize:   cfg.FramesPerBuffer,
		Preload:     time.Duration(cfg.Preload),
		RecordDir:   cfg.RecordDir,
		IcecastURL:  cfg.IcecastURL,
		IcecastMeta: cfg.IcecastMetaURL,
		Fallback: fallback.Config{
			Dir:        cfg.Fallback.Dir,
			BufferTime: time.Duration(cfg.Fallback.BufferTime),
			CrossFade:  time.Duration(cfg.Fallback.CrossFade),
			Shuffle:    cfg.Fallback.Shuffle,
			SineSynth:  cfg.Fallback.SineSynth,
			Seed:       cfg.Fallback.Seed,
		},
	})

	client, err := audioclient.New(audioclient.Config{
		SampleRate:       cfg.SampleRate,
		FramesPerBuffer:  cfg.FramesPerBuffer,
		InputNamePrefix:  cfg.InputDevice,
		OutputNamePrefix: cfg.OutputDevice,
	})
	if err != nil {
		slog.Error("audio client setup failed", "error", err)
		os.Exit(1)
	}
	client.SetRenderer(eng)

	if err := eng.Start(); err != nil {
		slog.Error("engine start failed", "error", err)
		os.Exit(1)
	}
	if err := client.Start(); err != nil {
		slog.Error("audio device failure", "error", err)
		eng.Stop()
		os.Exit(1)
	}

	ctrl := controlserver.New(eng, store, cfg.ControlServer.HTTPAddr, cfg.ControlServer.SocketPath)
	if err := ctrl.Start(); err != nil {
		slog.Error("control server failed to start", "error", err)
		_ = client.Stop()
		eng.Stop()
		os.Exit(1)
	}

	slog.Info("playoutd running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down")
	ctrl.Stop()
	_ = client.Stop()
	eng.Stop()
}
