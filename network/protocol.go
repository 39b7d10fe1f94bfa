package network

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/foldcache/foldcache/cache"
)

// Supported request operations.
const (
	OpGet      = "get"
	OpPut      = "put"
	OpRemove   = "remove"
	OpContains = "contains"
	OpLen      = "len"
	OpClear    = "clear"
	OpStats    = "stats"
	OpDump     = "dump"
)

// Request is one cache operation on the wire.
type Request struct {
	Op    string `json:"op"`
	Key   uint64 `json:"key,omitempty"`
	Value uint64 `json:"value,omitempty"`
}

// Response is the reply to one Request. OK reports whether the request was
// understood; Found reports key presence for get/remove/contains.
type Response struct {
	OK       bool         `json:"ok"`
	Found    bool         `json:"found,omitempty"`
	Value    uint64       `json:"value,omitempty"`
	Len      int          `json:"len,omitempty"`
	Error    string       `json:"error,omitempty"`
	Stats    *cache.Stats `json:"stats,omitempty"`
	Snapshot []byte       `json:"snapshot,omitempty"`
}

// EncodeRequest serializes a request to its wire form.
func EncodeRequest(req *Request) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return data, nil
}

// DecodeRequest parses a wire frame into a request.
func DecodeRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request: %w", err)
	}
	return &req, nil
}

// EncodeResponse serializes a response to its wire form.
func EncodeResponse(resp *Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return data, nil
}

// DecodeResponse parses a wire frame into a response.
func DecodeResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &resp, nil
}
