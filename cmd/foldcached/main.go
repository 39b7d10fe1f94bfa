// Command foldcached serves a FoldCache instance over ZeroMQ and exposes
// Prometheus metrics over HTTP.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/foldcache/foldcache/api"
	"github.com/foldcache/foldcache/cache"
	"github.com/foldcache/foldcache/network"
)

func main() {
	var (
		capacity    = flag.Int("capacity", 100000, "Total number of cache slots")
		folds       = flag.Int("folds", 16, "Number of independently locked folds")
		bind        = flag.String("bind", "tcp://0.0.0.0:5555", "ZeroMQ bind address")
		metricsAddr = flag.String("metrics", ":9100", "Prometheus metrics listen address (empty to disable)")
		namespace   = flag.String("namespace", "foldcache", "Prometheus metrics namespace")
	)
	flag.Parse()

	if *capacity <= 0 || *folds <= 0 || *capacity < *folds {
		log.Fatalf("invalid configuration: capacity=%d folds=%d", *capacity, *folds)
	}

	c := cache.New(*capacity, *folds, nil)
	metrics := api.NewMetrics(*namespace, c)

	server := network.NewServer(c, *bind, metrics)
	if err := server.Start(); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
	log.Printf("foldcached serving on %s (capacity=%d folds=%d)", *bind, *capacity, *folds)

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			log.Printf("metrics on http://%s/metrics", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Printf("metrics server stopped: %v", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("shutting down")
	server.Stop()

	stats := c.Stats()
	log.Printf("final stats: hits=%d misses=%d puts=%d evictions=%d removes=%d len=%d",
		stats.Hits, stats.Misses, stats.Puts, stats.Evictions, stats.Removes, c.Len())
}
