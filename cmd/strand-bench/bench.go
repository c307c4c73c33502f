package main

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/strand-ui/strand/pkg/metrics/prom"
	"github.com/strand-ui/strand/pkg/strand"
)

type benchConfig struct {
	Keys        int
	Updates     int
	Queriers    int
	MetricsAddr string
}

func benchCmd() *cobra.Command {
	var config benchConfig

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run selector sweep and query benchmarks",
		Long: `Creates one equality selector over a source signal, registers the
configured number of keys, then drives a stream of source updates while
querier goroutines hammer the query function. Reports sweep throughput
and per-update latency.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(config)
		},
	}

	cmd.Flags().IntVar(&config.Keys, "keys", 1000, "distinct keys to register")
	cmd.Flags().IntVar(&config.Updates, "updates", 10000, "source updates to drive")
	cmd.Flags().IntVar(&config.Queriers, "queriers", 4, "concurrent querier goroutines")
	cmd.Flags().StringVar(&config.MetricsAddr, "metrics-addr", "", "expose Prometheus metrics on this address while running (e.g. :9090)")

	return cmd
}

func runBench(config benchConfig) error {
	if config.Keys <= 0 || config.Updates <= 0 {
		return fmt.Errorf("keys and updates must be positive")
	}

	if config.MetricsAddr != "" {
		go serveMetrics(config.MetricsAddr)
	}

	owner := strand.NewOwner(nil)
	defer owner.Dispose()

	source := strand.NewSignal(0)

	var isSelected func(int) bool
	strand.WithOwner(owner, func() {
		isSelected = strand.CreateSelector(source.Get, strand.WithMetrics(prom.New()))
	})

	// Register every key up front so each sweep visits the full registry.
	for k := 0; k < config.Keys; k++ {
		_ = isSelected(k)
	}

	var stop atomic.Bool
	var queries atomic.Uint64
	var wg sync.WaitGroup
	for q := 0; q < config.Queriers; q++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for k := offset; !stop.Load(); k = (k + 1) % config.Keys {
				_ = isSelected(k)
				queries.Add(1)
			}
		}(q * config.Keys / config.Queriers)
	}

	start := time.Now()
	for i := 0; i < config.Updates; i++ {
		source.Set(i % config.Keys)
		owner.RunPendingEffects()
	}
	elapsed := time.Since(start)

	stop.Store(true)
	wg.Wait()

	perUpdate := elapsed / time.Duration(config.Updates)
	fmt.Printf("keys:          %d\n", config.Keys)
	fmt.Printf("updates:       %d\n", config.Updates)
	fmt.Printf("elapsed:       %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("per update:    %s\n", perUpdate)
	fmt.Printf("updates/sec:   %.0f\n", float64(config.Updates)/elapsed.Seconds())
	fmt.Printf("queries:       %d (%d goroutines)\n", queries.Load(), config.Queriers)

	return nil
}

// serveMetrics exposes the Prometheus registry for scraping during a run.
func serveMetrics(addr string) {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	log.Printf("metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Printf("metrics server: %v", err)
	}
}
