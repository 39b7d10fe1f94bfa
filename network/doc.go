// Package network exposes a cache instance over ZeroMQ.
//
// This package implements:
//   - Server: REP socket answering JSON-framed cache requests
//   - Client: REQ socket for drivers and tools
//   - A small request/reply protocol covering every cache operation
//
// The wire service is an external collaborator of the cache core: none of
// the core's concurrency guarantees depend on it.
package network
