// Command stress_test measures in-process cache throughput under a
// read-heavy concurrent workload, optionally comparing the sharded engine
// against the single-lock exact-LRU baseline.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/foldcache/foldcache/cache"
	"github.com/foldcache/foldcache/lockcache"
)

// StressConfig holds configuration for one stress run.
type StressConfig struct {
	Capacity    int
	Folds       int
	KeySpace    uint64
	Duration    time.Duration
	ThreadList  []int
	ReadPercent uint64
	Compare     bool
	ReportFile  string
}

// StressResult holds the outcome of one (implementation, threads) cell.
type StressResult struct {
	Implementation string  `json:"implementation"`
	Threads        int     `json:"threads"`
	TotalOps       int64   `json:"total_ops"`
	OpsPerSec      float64 `json:"ops_per_sec"`
}

// kvCache is the operation surface both implementations share.
type kvCache interface {
	Get(key uint64) (uint64, bool)
	Put(key, value uint64)
}

func main() {
	config := parseFlags()

	fmt.Println("=== FoldCache Stress Test ===")
	fmt.Printf("Capacity: %d slots, %d folds\n", config.Capacity, config.Folds)
	fmt.Printf("Key space: %d (reads %d%%)\n", config.KeySpace, config.ReadPercent)
	fmt.Printf("Duration per cell: %v\n", config.Duration)
	fmt.Println()

	fmt.Println("Implementation,Threads,Throughput (Ops/sec)")

	var results []StressResult
	for _, threads := range config.ThreadList {
		c := cache.New(config.Capacity, config.Folds, nil)
		prefill(c, config)
		results = append(results, runCell("foldcache", c, threads, config))

		if config.Compare {
			baseline := lockcache.New(config.Capacity)
			prefill(baseline, config)
			results = append(results, runCell("lockcache", baseline, threads, config))
		}
	}

	if config.ReportFile != "" {
		saveReport(config, results)
	}
}

func parseFlags() StressConfig {
	var (
		capacity = flag.Int("capacity", 100000, "Total cache capacity in slots")
		folds    = flag.Int("folds", 16, "Number of folds for the sharded engine")
		keySpace = flag.Uint64("keyspace", 200000, "Number of distinct keys (2x capacity forces churn)")
		duration = flag.Duration("d", 2*time.Second, "Duration of each cell")
		threads  = flag.String("threads", "1,2,4,8,16,24,32", "Comma-separated worker counts")
		reads    = flag.Uint64("reads", 90, "Read percentage of the workload")
		compare  = flag.Bool("compare", false, "Also run the single-lock exact-LRU baseline")
		report   = flag.String("o", "", "Output report file (JSON)")
	)
	flag.Parse()

	var threadList []int
	for _, part := range strings.Split(*threads, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			log.Fatalf("invalid thread count %q", part)
		}
		threadList = append(threadList, n)
	}

	return StressConfig{
		Capacity:    *capacity,
		Folds:       *folds,
		KeySpace:    *keySpace,
		Duration:    *duration,
		ThreadList:  threadList,
		ReadPercent: *reads,
		Compare:     *compare,
		ReportFile:  *report,
	}
}

// prefill loads half the capacity so cells do not start against an empty
// cache.
func prefill(c kvCache, config StressConfig) {
	for k := uint64(1); k <= uint64(config.Capacity)/2; k++ {
		c.Put(k, k)
	}
}

func runCell(name string, c kvCache, threads int, config StressConfig) StressResult {
	var (
		totalOps int64
		wg       sync.WaitGroup
		stopCh   = make(chan struct{})
	)

	start := time.Now()
	for t := 0; t < threads; t++ {
		wg.Add(1)
		go func(seed uint64) {
			defer wg.Done()

			// Per-worker LCG keeps the hot loop free of shared RNG state.
			state := seed + 123456789
			next := func() uint64 {
				state = state*6364136223846793005 + 1
				return state >> 32
			}

			var ops int64
			for {
				select {
				case <-stopCh:
					atomic.AddInt64(&totalOps, ops)
					return
				default:
				}

				for i := 0; i < 100; i++ {
					r := next()
					key := r%config.KeySpace + 1
					if r%100 < config.ReadPercent {
						c.Get(key)
					} else {
						c.Put(key, r)
					}
				}
				ops += 100
			}
		}(uint64(t))
	}

	time.Sleep(config.Duration)
	close(stopCh)
	wg.Wait()
	elapsed := time.Since(start)

	ops := atomic.LoadInt64(&totalOps)
	result := StressResult{
		Implementation: name,
		Threads:        threads,
		TotalOps:       ops,
		OpsPerSec:      float64(ops) / elapsed.Seconds(),
	}

	fmt.Printf("%s,%d,%.2f\n", result.Implementation, result.Threads, result.OpsPerSec)
	return result
}

func saveReport(config StressConfig, results []StressResult) {
	report := map[string]interface{}{
		"config": map[string]interface{}{
			"capacity":     config.Capacity,
			"folds":        config.Folds,
			"keyspace":     config.KeySpace,
			"duration":     config.Duration.String(),
			"read_percent": config.ReadPercent,
		},
		"results":   results,
		"timestamp": time.Now().Format(time.RFC3339),
	}

	data, _ := json.MarshalIndent(report, "", "  ")
	if err := os.WriteFile(config.ReportFile, data, 0644); err != nil {
		log.Printf("Failed to write report: %v", err)
	} else {
		fmt.Printf("Report saved to: %s\n", config.ReportFile)
	}
}
