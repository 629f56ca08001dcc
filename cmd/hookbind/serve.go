package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/vango-dev/hookbind/internal/config"
	"github.com/vango-dev/hookbind/pkg/hook"
	"github.com/vango-dev/hookbind/pkg/inspect"
	"github.com/vango-dev/hookbind/pkg/telemetry"
	"github.com/vango-dev/hookbind/pkg/view"
)

func serveCmd(configDir *string) *cobra.Command {
	var (
		addr     string
		debug    bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo store and the debug inspector",
		Long: `Run a demo video-info store bound to a small view tree, and
serve the debug inspector on it.

The demo ticks the store's counters periodically. Watch a key with
any websocket client:

  websocat ws://127.0.0.1:7070/ws/stores/video/views

Examples:
  hookbind serve
  hookbind serve --addr=0.0.0.0:9000 --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configDir)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Inspect.Addr = addr
			}
			if debug {
				cfg.Debug = true
				cfg.Log.Level = "debug"
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, interval)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Inspector listen address (default from hookbind.yaml)")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug mode and debug logging")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Demo tick interval")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, interval time.Duration) error {
	logger := cfg.NewLogger(os.Stderr)
	hook.SetLogger(logger)
	hook.DebugMode = cfg.Debug

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	metrics := telemetry.NewMetrics(
		telemetry.WithRegistry(reg),
		telemetry.WithNamespace(cfg.Metrics.Namespace),
	)
	metrics.TrackRegistrar(hook.DefaultRegistrar())
	observers := []hook.Observer{metrics}
	if cfg.Debug {
		observers = append(observers, telemetry.NewLogObserver(logger))
	}
	if cfg.Tracing.Enabled {
		tp := newTracerProvider(logger)
		defer tp.Shutdown(context.Background())
		observers = append(observers, telemetry.NewTracer(
			telemetry.WithTracerName(cfg.Tracing.TracerName),
			telemetry.WithTracerProvider(tp),
		))
	}
	hook.SetObserver(hook.MultiObserver(observers...))

	video, err := wrapDemoVideo()
	if err != nil {
		return err
	}
	defer video.Close()

	card, err := buildCard(video)
	if err != nil {
		return err
	}
	defer card.Remove()

	registry := inspect.NewRegistry()
	registry.Add(video)
	srv := inspect.New(registry,
		inspect.WithGatherer(reg),
		inspect.WithAllowedOrigins(cfg.Inspect.AllowedOrigins...),
		inspect.WithLogger(logger),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, cfg.Inspect.Addr)
	}()
	success("Inspector on http://%s", cfg.Inspect.Addr)
	info("Stores: %v", registry.Names())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for tick := 1; ; tick++ {
		select {
		case err := <-errCh:
			return err
		case <-ticker.C:
			video.Update("views", func(old any) any { return old.(int) + 1 })
			if tick%3 == 0 {
				video.Update("likes", func(old any) any { return old.(int) + 1 })
			}
			logger.Debug("card rendered", "html", card.Render())
		case <-ctx.Done():
			fmt.Println()
			info("Shutting down...")
			if n := hook.DefaultRegistrar().ReportUnbound(logger); n > 0 {
				logger.Warn("unbound bindings at shutdown", "count", n)
			}
			return <-errCh
		}
	}
}

func wrapDemoVideo() (*hook.Store[string], error) {
	return hook.Wrap[string](map[string]any{
		"title":    "Intro to hookbind",
		"views":    0,
		"likes":    0,
		"duration": 95,
	}, hook.WithName("video"))
}

// buildCard binds a video card view to the store.
func buildCard(video *hook.Store[string]) (*view.Element, error) {
	title, err := hook.Key(video, "title")
	if err != nil {
		return nil, err
	}
	views, err := hook.BindFromKeys[string](video, "views", func(n int) string {
		return strconv.Itoa(n) + " views"
	})
	if err != nil {
		return nil, err
	}
	ratio, err := hook.BindFromKeys[string](video, "likes", "views", func(likes, views int) string {
		if views == 0 {
			return "0%"
		}
		return strconv.Itoa(likes*100/views) + "%"
	})
	if err != nil {
		return nil, err
	}
	length, err := hook.BindFromKeys[string](video, "duration", func(sec int) string {
		return fmt.Sprintf("%d:%02d", sec/60, sec%60)
	})
	if err != nil {
		return nil, err
	}

	return view.New("article").SetAttr("class", "video-card").Append(
		view.New("h2").SetText(title),
		view.New("span").SetAttr("class", "views").SetText(views),
		view.New("span").SetAttr("title", ratio).SetText(ratio),
		view.New("time").SetText(length),
	), nil
}
