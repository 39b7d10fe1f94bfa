package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-zeromq/zmq4"

	"github.com/foldcache/foldcache/api"
	"github.com/foldcache/foldcache/arrow"
	"github.com/foldcache/foldcache/cache"
)

// Common errors for the wire service.
var (
	ErrServerRunning = errors.New("server already running")
	ErrUnknownOp     = errors.New("unknown operation")
)

// Server answers cache requests on a ZeroMQ REP socket.
type Server struct {
	cache   *cache.Cache
	metrics *api.Metrics // optional
	address string

	ctx    context.Context
	cancel context.CancelFunc

	sock    zmq4.Socket
	running bool
	mu      sync.Mutex
	wg      sync.WaitGroup
}

// NewServer creates a server for the given cache, bound to address on Start
// (e.g. "tcp://0.0.0.0:5555"). metrics may be nil.
func NewServer(c *cache.Cache, address string, metrics *api.Metrics) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cache:   c,
		metrics: metrics,
		address: address,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start binds the REP socket and begins serving requests.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrServerRunning
	}

	s.sock = zmq4.NewRep(s.ctx)
	if err := s.sock.Listen(s.address); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to bind rep socket: %w", err)
	}

	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.serveLoop()

	return nil
}

// Stop shuts the server down and waits for the serve loop to exit.
func (s *Server) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()

	if s.sock != nil {
		if err := s.sock.Close(); err != nil {
			_ = err // best effort during shutdown
		}
	}

	s.wg.Wait()
}

// Address returns the bind address the server was created with.
func (s *Server) Address() string { return s.address }

func (s *Server) serveLoop() {
	defer s.wg.Done()

	for {
		msg, err := s.sock.Recv()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
			}
			continue
		}

		resp := s.dispatch(msg.Bytes())
		data, err := EncodeResponse(resp)
		if err != nil {
			data, _ = EncodeResponse(&Response{OK: false, Error: err.Error()})
		}
		if err := s.sock.Send(zmq4.NewMsg(data)); err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
			}
		}
	}
}

// dispatch decodes one frame, handles it, and records metrics.
func (s *Server) dispatch(frame []byte) *Response {
	start := time.Now()

	req, err := DecodeRequest(frame)
	if err != nil {
		s.observe("invalid", "error", start)
		return &Response{OK: false, Error: err.Error()}
	}

	resp := s.handle(req)

	status := "ok"
	if !resp.OK {
		status = "error"
	}
	s.observe(req.Op, status, start)
	return resp
}

// handle executes one decoded request against the cache. Split from the
// socket loop so protocol behavior is testable without a transport.
func (s *Server) handle(req *Request) *Response {
	switch req.Op {
	case OpGet:
		v, ok := s.cache.Get(req.Key)
		return &Response{OK: true, Found: ok, Value: v}

	case OpPut:
		s.cache.Put(req.Key, req.Value)
		return &Response{OK: true}

	case OpRemove:
		v, ok := s.cache.Remove(req.Key)
		return &Response{OK: true, Found: ok, Value: v}

	case OpContains:
		return &Response{OK: true, Found: s.cache.Contains(req.Key)}

	case OpLen:
		return &Response{OK: true, Len: s.cache.Len()}

	case OpClear:
		s.cache.Clear()
		return &Response{OK: true}

	case OpStats:
		stats := s.cache.Stats()
		return &Response{OK: true, Stats: &stats, Len: s.cache.Len()}

	case OpDump:
		data, err := arrow.DumpSnapshot(s.cache.Snapshot())
		if err != nil {
			return &Response{OK: false, Error: err.Error()}
		}
		return &Response{OK: true, Snapshot: data}

	default:
		return &Response{OK: false, Error: fmt.Sprintf("%v: %q", ErrUnknownOp, req.Op)}
	}
}

func (s *Server) observe(op, status string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveRequest(op, status, time.Since(start))
}
