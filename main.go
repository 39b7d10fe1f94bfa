package main

import (
	"fmt"
	"os"
)

// Version information
const (
	Version = "0.1.0"
	Name    = "FoldCache"
)

func main() {
	fmt.Printf("%s v%s\n", Name, Version)
	fmt.Println("Sharded approximate-LRU cache engine with lock-free reads")
	os.Exit(0)
}
