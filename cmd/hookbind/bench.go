package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"runtime"
	"sort"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"github.com/vango-dev/hookbind/internal/config"
	herrors "github.com/vango-dev/hookbind/internal/errors"
	"github.com/vango-dev/hookbind/pkg/hook"
)

const keysPerStore = 8

type benchOptions struct {
	Stores   int
	Bindings int
	Writes   int
}

func benchCmd(configDir *string) *cobra.Command {
	var (
		opts     benchOptions
		jsonPath string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run a write-storm benchmark of the binding engine",
		Long: `Wrap several stores, bind callback bindings across their keys under
a set of owners, and write to the stores in a loop.

Reports write latency, emit throughput, GC activity, and whether any
binding outlived its owners.

Examples:
  hookbind bench
  hookbind bench --stores=32 --bindings=256 --writes=100000
  hookbind bench --json=report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configDir)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("stores") {
				opts.Stores = cfg.Bench.Stores
			}
			if !cmd.Flags().Changed("bindings") {
				opts.Bindings = cfg.Bench.Bindings
			}
			if !cmd.Flags().Changed("writes") {
				opts.Writes = cfg.Bench.Writes
			}
			if opts.Stores <= 0 || opts.Bindings <= 0 || opts.Writes <= 0 {
				return herrors.New("H100").
					WithOp("bench").
					WithDetail(fmt.Sprintf("stores=%d bindings=%d writes=%d", opts.Stores, opts.Bindings, opts.Writes))
			}

			hook.SetLogger(discardLogger())
			report, err := runBench(opts)
			if err != nil {
				return err
			}
			writeSummary(cmd.OutOrStdout(), report)

			if jsonPath != "" {
				if err := writeJSON(jsonPath, report); err != nil {
					return err
				}
				success("Report written to %s", jsonPath)
			}
			if report.Lifecycle.Leaked > 0 {
				return herrors.New("H101").
					WithOp("bench").
					WithDetail(fmt.Sprintf("%d subscribers remained after every owner was disposed", report.Lifecycle.Leaked))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Stores, "stores", 0, "Number of stores (default from hookbind.yaml)")
	cmd.Flags().IntVar(&opts.Bindings, "bindings", 0, "Bindings per store (default from hookbind.yaml)")
	cmd.Flags().IntVar(&opts.Writes, "writes", 0, "Total writes (default from hookbind.yaml)")
	cmd.Flags().StringVar(&jsonPath, "json", "", "Write the report as JSON to this path")

	return cmd
}

type benchReport struct {
	Version    string         `json:"version"`
	Run        runInfo        `json:"run"`
	Workload   benchOptions   `json:"workload"`
	LatencyUS  latencyInfo    `json:"latency_us"`
	Throughput throughputInfo `json:"throughput"`
	Lifecycle  lifecycleInfo  `json:"lifecycle"`
	GC         gcInfo         `json:"gc"`
}

type runInfo struct {
	Timestamp string `json:"timestamp"`
	Go        string `json:"go"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	CPUCount  int    `json:"cpu_count"`
}

type latencyInfo struct {
	Min float64 `json:"min"`
	P50 float64 `json:"p50"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

type throughputInfo struct {
	DurationMS   int64   `json:"duration_ms"`
	Writes       uint64  `json:"writes"`
	Emits        uint64  `json:"emits"`
	WritesPerSec float64 `json:"writes_per_sec"`
	EmitsPerSec  float64 `json:"emits_per_sec"`
}

type lifecycleInfo struct {
	Owners       int `json:"owners"`
	TrackedPeak  int `json:"tracked_peak"`
	TrackedAfter int `json:"tracked_after"`
	Leaked       int `json:"leaked"`
	Unbound      int `json:"unbound"`
}

type gcInfo struct {
	AllocMB      float64 `json:"alloc_mb"`
	NumGC        uint32  `json:"num_gc"`
	PauseTotalMS float64 `json:"pause_total_ms"`
	PauseAvgMS   float64 `json:"pause_avg_ms"`
}

// runBench binds opts.Bindings callback bindings to each of opts.Stores
// stores, performs opts.Writes writes round-robin, then disposes every owner
// and counts the bindings still subscribed.
func runBench(opts benchOptions) (benchReport, error) {
	reg := hook.NewRegistrar()
	root := hook.NewOwner(nil)

	var emits atomic.Uint64
	count := func(any) { emits.Add(1) }

	stores := make([]*hook.Store[string], opts.Stores)
	owners := 0
	for i := range stores {
		m := make(map[string]any, keysPerStore)
		for k := 0; k < keysPerStore; k++ {
			m[benchKey(k)] = 0
		}
		s, err := hook.Wrap[string](m,
			hook.WithName("bench-"+strconv.Itoa(i)),
			hook.WithRegistrar(reg),
			hook.WithObserver(hook.NopObserver{}),
		)
		if err != nil {
			return benchReport{}, err
		}
		stores[i] = s

		// One owner per eight bindings, and every third binding is shared
		// with a sibling owner to exercise multi-owner counting.
		var owner *hook.Owner
		for b := 0; b < opts.Bindings; b++ {
			if b%8 == 0 {
				owner = hook.NewOwner(root)
				owners++
			}
			info, err := bindingInfo(s, b)
			if err != nil {
				return benchReport{}, err
			}
			cb := info.BindToCallback(count).BindDestroy(owner)
			if b%3 == 0 {
				cb.BindDestroy(hook.NewOwner(root))
				owners++
			}
		}
	}
	trackedPeak := reg.Tracked()

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	latencies := make([]time.Duration, 0, opts.Writes)
	start := time.Now()
	for w := 0; w < opts.Writes; w++ {
		s := stores[w%len(stores)]
		key := benchKey(w / len(stores) % keysPerStore)
		t0 := time.Now()
		if err := s.Set(key, w); err != nil {
			return benchReport{}, err
		}
		latencies = append(latencies, time.Since(t0))
	}
	elapsed := time.Since(start)

	runtime.ReadMemStats(&after)

	root.Dispose()
	leaked := 0
	for _, s := range stores {
		for _, k := range s.SubscribedKeys() {
			leaked += s.Subscribers(k)
		}
		s.Close()
	}

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	var latency latencyInfo
	if len(latencies) > 0 {
		latency = latencyInfo{
			Min: us(latencies[0]),
			P50: us(percentile(latencies, 0.50)),
			P99: us(percentile(latencies, 0.99)),
			Max: us(latencies[len(latencies)-1]),
		}
	}

	secs := elapsed.Seconds()
	if secs == 0 {
		secs = math.SmallestNonzeroFloat64
	}

	return benchReport{
		Version: "1",
		Run: runInfo{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Go:        runtime.Version(),
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			CPUCount:  runtime.NumCPU(),
		},
		Workload:  opts,
		LatencyUS: latency,
		Throughput: throughputInfo{
			DurationMS:   elapsed.Milliseconds(),
			Writes:       uint64(opts.Writes),
			Emits:        emits.Load(),
			WritesPerSec: float64(opts.Writes) / secs,
			EmitsPerSec:  float64(emits.Load()) / secs,
		},
		Lifecycle: lifecycleInfo{
			Owners:       owners,
			TrackedPeak:  trackedPeak,
			TrackedAfter: reg.Tracked(),
			Leaked:       leaked,
			Unbound:      reg.UnboundCount(),
		},
		GC: gcInfo{
			AllocMB:      float64(after.TotalAlloc-before.TotalAlloc) / (1024 * 1024),
			NumGC:        after.NumGC - before.NumGC,
			PauseTotalMS: ms(time.Duration(after.PauseTotalNs - before.PauseTotalNs)),
			PauseAvgMS:   ms(avgPause(after, before)),
		},
	}, nil
}

// bindingInfo alternates single-key bindings with two-key combinators.
func bindingInfo(s *hook.Store[string], b int) (*hook.Info[string], error) {
	k := b % keysPerStore
	if b%2 == 0 {
		return hook.Key(s, benchKey(k))
	}
	return hook.BindFromKeys[string](s, benchKey(k), benchKey((k+1)%keysPerStore), func(x, y int) int {
		return x + y
	})
}

// discardLogger silences engine logs while a report is being produced.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func benchKey(i int) string {
	return "k" + strconv.Itoa(i)
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Ceil(float64(len(sorted))*p)) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func avgPause(after, before runtime.MemStats) time.Duration {
	gcCount := after.NumGC - before.NumGC
	if gcCount == 0 {
		return 0
	}
	return time.Duration((after.PauseTotalNs - before.PauseTotalNs) / uint64(gcCount))
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func us(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}

func writeSummary(w io.Writer, report benchReport) {
	fmt.Fprintln(w, "=== hookbind write storm ===")
	fmt.Fprintf(w, "Stores: %d\n", report.Workload.Stores)
	fmt.Fprintf(w, "Bindings per store: %d\n", report.Workload.Bindings)
	fmt.Fprintf(w, "Owners: %d\n", report.Lifecycle.Owners)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Writes: %d in %s\n", report.Throughput.Writes, time.Duration(report.Throughput.DurationMS)*time.Millisecond)
	fmt.Fprintf(w, "Throughput: %.0f writes/s, %.0f emits/s\n", report.Throughput.WritesPerSec, report.Throughput.EmitsPerSec)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Write latency (set -> all subscribers notified):")
	fmt.Fprintf(w, "  min: %.2f us\n", report.LatencyUS.Min)
	fmt.Fprintf(w, "  p50: %.2f us\n", report.LatencyUS.P50)
	fmt.Fprintf(w, "  p99: %.2f us\n", report.LatencyUS.P99)
	fmt.Fprintf(w, "  max: %.2f us\n", report.LatencyUS.Max)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Tracked bindings: %d peak, %d after dispose\n", report.Lifecycle.TrackedPeak, report.Lifecycle.TrackedAfter)
	fmt.Fprintf(w, "Leaked subscribers: %d\n", report.Lifecycle.Leaked)
	fmt.Fprintf(w, "Unbound callback bindings: %d\n", report.Lifecycle.Unbound)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "GC: %d cycles, %.2f MB allocated, %.3f ms pause total (%.3f ms avg)\n",
		report.GC.NumGC, report.GC.AllocMB, report.GC.PauseTotalMS, report.GC.PauseAvgMS)
}

func writeJSON(path string, report benchReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0644)
}
