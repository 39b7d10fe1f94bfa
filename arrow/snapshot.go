// Package arrow provides Arrow IPC export of cache snapshots.
//
// A snapshot is one record batch with three uint64 columns (key, value,
// hits), suitable for offline analysis of occupancy and eviction behavior.
package arrow

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/foldcache/foldcache/cache"
)

// ErrNoRecords indicates IPC data that contains no record batch.
var ErrNoRecords = errors.New("no records in IPC data")

// SnapshotSchema is the schema of an exported cache snapshot.
var SnapshotSchema = arrow.NewSchema([]arrow.Field{
	{Name: "key", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "value", Type: arrow.PrimitiveTypes.Uint64},
	{Name: "hits", Type: arrow.PrimitiveTypes.Uint64},
}, nil)

// NewSnapshotRecord builds a record batch from copied-out cache entries.
// The caller owns the returned record and must Release it.
func NewSnapshotRecord(entries []cache.Entry) arrow.Record {
	builder := array.NewRecordBuilder(memory.DefaultAllocator, SnapshotSchema)
	defer builder.Release()

	keys := builder.Field(0).(*array.Uint64Builder)
	values := builder.Field(1).(*array.Uint64Builder)
	hits := builder.Field(2).(*array.Uint64Builder)

	keys.Reserve(len(entries))
	values.Reserve(len(entries))
	hits.Reserve(len(entries))
	for _, e := range entries {
		keys.Append(e.Key)
		values.Append(e.Value)
		hits.Append(e.Hits)
	}

	return builder.NewRecord()
}

// SerializeToIPC serializes a record batch to Arrow IPC bytes.
func SerializeToIPC(record arrow.Record) ([]byte, error) {
	var buf bytes.Buffer

	writer := ipc.NewWriter(&buf, ipc.WithSchema(record.Schema()))
	if err := writer.Write(record); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	return buf.Bytes(), nil
}

// DeserializeFromIPC reads the first record batch from Arrow IPC bytes.
// The caller owns the returned record and must Release it.
func DeserializeFromIPC(data []byte) (arrow.Record, error) {
	reader, err := ipc.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create reader: %w", err)
	}
	defer reader.Release()

	if !reader.Next() {
		if reader.Err() != nil {
			return nil, reader.Err()
		}
		return nil, ErrNoRecords
	}

	record := reader.Record()
	record.Retain()
	return record, nil
}

// DumpSnapshot serializes cache entries straight to Arrow IPC bytes.
func DumpSnapshot(entries []cache.Entry) ([]byte, error) {
	record := NewSnapshotRecord(entries)
	defer record.Release()
	return SerializeToIPC(record)
}

// ReadSnapshot decodes Arrow IPC bytes produced by DumpSnapshot back into
// cache entries.
func ReadSnapshot(data []byte) ([]cache.Entry, error) {
	record, err := DeserializeFromIPC(data)
	if err != nil {
		return nil, err
	}
	defer record.Release()

	if !record.Schema().Equal(SnapshotSchema) {
		return nil, fmt.Errorf("unexpected snapshot schema: %v", record.Schema())
	}

	keys := record.Column(0).(*array.Uint64)
	values := record.Column(1).(*array.Uint64)
	hits := record.Column(2).(*array.Uint64)

	entries := make([]cache.Entry, record.NumRows())
	for i := range entries {
		entries[i] = cache.Entry{
			Key:   keys.Value(i),
			Value: values.Value(i),
			Hits:  hits.Value(i),
		}
	}
	return entries, nil
}
