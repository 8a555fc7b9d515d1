package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/senai134/medidor/internal/record"
)

// PostgresStore persists records in a `registro` table. Id assignment is
// delegated to a BIGSERIAL primary key, which keeps ids unique and monotonic
// without any locking on our side, and each statement is its own transaction
// so a failed write leaves nothing behind.
//
// Expected schema:
//
//	CREATE TABLE registro (
//	    id             BIGSERIAL PRIMARY KEY,
//	    temperatura    NUMERIC(10,2),
//	    pressao        NUMERIC(10,2),
//	    altitude       NUMERIC(10,2),
//	    umidade        NUMERIC(10,2),
//	    co2            NUMERIC(10,2),
//	    tempo_registro TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects a pool and verifies the connection.
func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("postgres config: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres unreachable: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Insert persists the record and returns it with the database-assigned id.
func (s *PostgresStore) Insert(ctx context.Context, rec record.Record) (record.Record, error) {
	query := `
		INSERT INTO registro (temperatura, pressao, altitude, umidade, co2, tempo_registro)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := s.pool.QueryRow(ctx, query,
		rec.Temperature, rec.Pressure, rec.Altitude, rec.Humidity, rec.CO2, rec.RecordedAt,
	).Scan(&rec.ID)
	if err != nil {
		return record.Record{}, fmt.Errorf("insert registro: %w", err)
	}
	return rec, nil
}

// Get returns the record with the given id.
func (s *PostgresStore) Get(ctx context.Context, id int64) (record.Record, error) {
	query := `
		SELECT id, temperatura, pressao, altitude, umidade, co2, tempo_registro
		FROM registro
		WHERE id = $1
	`

	rec, err := scanRecord(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return record.Record{}, ErrNotFound
		}
		return record.Record{}, fmt.Errorf("select registro %d: %w", id, err)
	}
	return rec, nil
}

// ListAll returns every record ordered by ascending id.
func (s *PostgresStore) ListAll(ctx context.Context) ([]record.Record, error) {
	query := `
		SELECT id, temperatura, pressao, altitude, umidade, co2, tempo_registro
		FROM registro
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select registros: %w", err)
	}
	defer rows.Close()

	var records []record.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registro: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registros: %w", err)
	}
	return records, nil
}

// Delete removes the record with the given id and returns it. The single
// DELETE ... RETURNING statement is atomic: on failure the row stays put.
func (s *PostgresStore) Delete(ctx context.Context, id int64) (record.Record, error) {
	query := `
		DELETE FROM registro
		WHERE id = $1
		RETURNING id, temperatura, pressao, altitude, umidade, co2, tempo_registro
	`

	rec, err := scanRecord(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return record.Record{}, ErrNotFound
		}
		return record.Record{}, fmt.Errorf("delete registro %d: %w", id, err)
	}
	return rec, nil
}

func scanRecord(row pgx.Row) (record.Record, error) {
	var rec record.Record
	err := row.Scan(
		&rec.ID,
		&rec.Temperature,
		&rec.Pressure,
		&rec.Altitude,
		&rec.Humidity,
		&rec.CO2,
		&rec.RecordedAt,
	)
	if err != nil {
		return record.Record{}, err
	}
	rec.RecordedAt = rec.RecordedAt.UTC()
	return rec, nil
}
