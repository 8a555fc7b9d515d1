package store

import (
	"context"
	"errors"

	"github.com/senai134/medidor/internal/record"
)

var (
	// ErrNotFound is returned when no record exists for a given id.
	ErrNotFound = errors.New("record not found")
)

// Store is the contract every record store must satisfy. Insert assigns the
// id: ids are unique, monotonically increasing and never reused, and the
// implementation must keep that true under concurrent writers (the memory
// store holds a lock, the Postgres store leans on BIGSERIAL). Writes are
// atomic per record; a failed Insert or Delete leaves the store unchanged.
type Store interface {
	Insert(ctx context.Context, rec record.Record) (record.Record, error)
	Get(ctx context.Context, id int64) (record.Record, error)
	ListAll(ctx context.Context) ([]record.Record, error)
	Delete(ctx context.Context, id int64) (record.Record, error)
}

// Reader is the read-only slice of the contract handed to the dashboard and
// to the sink synchronizer. Neither may write.
type Reader interface {
	ListAll(ctx context.Context) ([]record.Record, error)
}
