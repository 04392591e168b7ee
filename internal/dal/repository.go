package dal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/errs"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/metrics"
)

// LoadAll reads every record of a collection. A key that was never written
// loads as an empty slice.
func LoadAll[T any](ctx context.Context, s Store, c Collection) ([]T, error) {
	start := time.Now()
	data, ok, err := s.Get(ctx, string(c))
	metrics.ObserveStore("get", string(c), start, err)
	if err != nil {
		return nil, &errs.StorageError{Op: "get", Key: string(c), Err: err}
	}

	records := []T{}
	if !ok || len(data) == 0 || string(data) == "null" {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &errs.StorageError{Op: "decode", Key: string(c), Err: err}
	}
	return records, nil
}

// ReplaceAll overwrites a collection with records. The write is atomic from
// the caller's point of view once the store accepts it.
func ReplaceAll[T any](ctx context.Context, s Store, c Collection, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return &errs.StorageError{Op: "encode", Key: string(c), Err: err}
	}

	start := time.Now()
	err = s.Set(ctx, string(c), data)
	metrics.ObserveStore("set", string(c), start, err)
	if err != nil {
		return &errs.StorageError{Op: "set", Key: string(c), Err: err}
	}
	return nil
}
