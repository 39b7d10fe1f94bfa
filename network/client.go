package network

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-zeromq/zmq4"

	"github.com/foldcache/foldcache/cache"
)

// Client-side errors.
var (
	ErrNotConnected = errors.New("client is not connected")
	ErrRemote       = errors.New("server rejected request")
)

// Client talks to a Server over a ZeroMQ REQ socket. A Client is not safe
// for concurrent use; REQ sockets enforce strict send/receive alternation.
type Client struct {
	address string
	ctx     context.Context
	cancel  context.CancelFunc
	sock    zmq4.Socket
}

// NewClient creates a client for the given server address.
func NewClient(address string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		address: address,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Connect dials the server.
func (c *Client) Connect() error {
	c.sock = zmq4.NewReq(c.ctx)
	if err := c.sock.Dial(c.address); err != nil {
		return fmt.Errorf("failed to dial %s: %w", c.address, err)
	}
	return nil
}

// Close tears down the connection.
func (c *Client) Close() {
	c.cancel()
	if c.sock != nil {
		if err := c.sock.Close(); err != nil {
			_ = err // best effort during shutdown
		}
	}
}

func (c *Client) roundTrip(req *Request) (*Response, error) {
	if c.sock == nil {
		return nil, ErrNotConnected
	}

	data, err := EncodeRequest(req)
	if err != nil {
		return nil, err
	}
	if err := c.sock.Send(zmq4.NewMsg(data)); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	msg, err := c.sock.Recv()
	if err != nil {
		return nil, fmt.Errorf("failed to receive response: %w", err)
	}

	resp, err := DecodeResponse(msg.Bytes())
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("%w: %s", ErrRemote, resp.Error)
	}
	return resp, nil
}

// Get fetches the value stored under key.
func (c *Client) Get(key uint64) (uint64, bool, error) {
	resp, err := c.roundTrip(&Request{Op: OpGet, Key: key})
	if err != nil {
		return 0, false, err
	}
	return resp.Value, resp.Found, nil
}

// Put stores value under key.
func (c *Client) Put(key, value uint64) error {
	_, err := c.roundTrip(&Request{Op: OpPut, Key: key, Value: value})
	return err
}

// Remove deletes key and returns the value it held.
func (c *Client) Remove(key uint64) (uint64, bool, error) {
	resp, err := c.roundTrip(&Request{Op: OpRemove, Key: key})
	if err != nil {
		return 0, false, err
	}
	return resp.Value, resp.Found, nil
}

// Contains reports whether key is present.
func (c *Client) Contains(key uint64) (bool, error) {
	resp, err := c.roundTrip(&Request{Op: OpContains, Key: key})
	if err != nil {
		return false, err
	}
	return resp.Found, nil
}

// Len returns the server's approximate entry count.
func (c *Client) Len() (int, error) {
	resp, err := c.roundTrip(&Request{Op: OpLen})
	if err != nil {
		return 0, err
	}
	return resp.Len, nil
}

// Clear empties the remote cache.
func (c *Client) Clear() error {
	_, err := c.roundTrip(&Request{Op: OpClear})
	return err
}

// Stats returns the server's cache counters.
func (c *Client) Stats() (cache.Stats, error) {
	resp, err := c.roundTrip(&Request{Op: OpStats})
	if err != nil {
		return cache.Stats{}, err
	}
	if resp.Stats == nil {
		return cache.Stats{}, errors.New("stats missing from response")
	}
	return *resp.Stats, nil
}

// Dump fetches an Arrow IPC snapshot of the remote cache.
func (c *Client) Dump() ([]byte, error) {
	resp, err := c.roundTrip(&Request{Op: OpDump})
	if err != nil {
		return nil, err
	}
	return resp.Snapshot, nil
}
