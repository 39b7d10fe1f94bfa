// Command foldcache-demo interleaves puts and gets from several goroutines
// against a small cache and prints what each goroutine observes.
package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/foldcache/foldcache/cache"
)

func main() {
	c := cache.New(3, 1, cache.IdentityRouter)

	var wg sync.WaitGroup
	for worker := uint64(0); worker < 3; worker++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()

			fmt.Printf("[W%d] starting\n", id)
			for k := uint64(1); k <= 4; k++ {
				c.Put(k, id*100+k)
				fmt.Printf("[W%d] put %d -> len=%d\n", id, k, c.Len())

				// Small sleep to encourage interleavings.
				time.Sleep(40 * time.Millisecond)

				if v, ok := c.Get(k); ok {
					fmt.Printf("[W%d] get %d = %d\n", id, k, v)
				} else {
					fmt.Printf("[W%d] get %d = miss (evicted)\n", id, k)
				}
			}
			fmt.Printf("[W%d] done\n", id)
		}(worker)
	}
	wg.Wait()

	stats := c.Stats()
	fmt.Printf("final: len=%d hits=%d misses=%d evictions=%d\n",
		c.Len(), stats.Hits, stats.Misses, stats.Evictions)
	fmt.Println("Finished concurrent operations safely.")
}
