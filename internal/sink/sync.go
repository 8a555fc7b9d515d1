package sink

import (
	"context"
	"log/slog"

	"github.com/senai134/medidor/internal/record"
	"github.com/senai134/medidor/internal/store"
)

// DefaultCO2Threshold is the filter bound for sink pushes: only records
// whose co2 strictly exceeds it are mirrored.
const DefaultCO2Threshold = 20

// header row written above the data rows on every push.
var header = []any{"CO2", "Temperatura", "Pressão", "Altitude", "Umidade", "Tempo Registro"}

// Synchronizer mirrors a filtered view of the store into the sink. The sink
// is best-effort: Sync never returns an error, it logs and moves on, so an
// outage can never fail or block ingestion.
type Synchronizer struct {
	reader    store.Reader
	sink      Sink
	threshold float64
	logger    *slog.Logger
}

// NewSynchronizer wires a read-only store view to a sink. A nil sink is
// allowed and turns every push into a logged no-op.
func NewSynchronizer(reader store.Reader, sink Sink, threshold float64, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		reader:    reader,
		sink:      sink,
		threshold: threshold,
		logger:    logger,
	}
}

// Sync takes a point-in-time snapshot of the store, filters it by the co2
// threshold and overwrites the sink range with header + rows. An empty
// filtered set performs no sink call at all, leaving the sink's previous
// contents in place.
func (s *Synchronizer) Sync(ctx context.Context) {
	records, err := s.reader.ListAll(ctx)
	if err != nil {
		s.logger.Error("sink sync: reading store failed", "error", err)
		return
	}

	rows := s.project(records)
	if len(rows) == 0 {
		s.logger.Info("sink sync: no records above co2 threshold, skipping push",
			"threshold", s.threshold)
		return
	}

	if s.sink == nil {
		s.logger.Debug("sink sync: no sink configured, skipping push")
		return
	}

	values := make([][]any, 0, len(rows)+1)
	values = append(values, header)
	values = append(values, rows...)

	if err := s.sink.UpdateRange(ctx, values); err != nil {
		s.logger.Error("sink sync: push failed", "error", err, "rows", len(rows))
		return
	}
	s.logger.Info("sink sync: pushed filtered view", "rows", len(rows))
}

// project filters and shapes records into sheet rows. Records without a co2
// value cannot pass a threshold comparison and are dropped.
func (s *Synchronizer) project(records []record.Record) [][]any {
	var rows [][]any
	for _, rec := range records {
		if rec.CO2 == nil || *rec.CO2 <= s.threshold {
			continue
		}
		rows = append(rows, []any{
			*rec.CO2,
			floatCell(rec.Temperature),
			floatCell(rec.Pressure),
			floatCell(rec.Altitude),
			floatCell(rec.Humidity),
			rec.RecordedAt.UTC().Format(record.TimeLayout),
		})
	}
	return rows
}

// floatCell renders a nullable measurement; absent values become empty cells.
func floatCell(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
