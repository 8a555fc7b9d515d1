package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Sink is a spreadsheet-like target that can have one fixed range
// overwritten wholesale. The synchronizer only ever replaces the full
// projection, never appends.
type Sink interface {
	UpdateRange(ctx context.Context, values [][]any) error
}

// SheetsSink writes to a fixed range of a Google Sheets spreadsheet.
// Calls go through a circuit breaker so a dead sink stops costing us a full
// HTTP timeout per push.
type SheetsSink struct {
	svc           *sheets.Service
	spreadsheetID string
	rangeName     string
	circuit       *gobreaker.CircuitBreaker
}

// NewSheetsSink builds a Sheets client from a service-account credentials
// file.
func NewSheetsSink(ctx context.Context, credentialsFile, spreadsheetID, rangeName string) (*SheetsSink, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "google-sheets",
		MaxRequests: 3,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &SheetsSink{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		rangeName:     rangeName,
		circuit:       cb,
	}, nil
}

// UpdateRange overwrites the configured range with the given rows.
func (s *SheetsSink) UpdateRange(ctx context.Context, values [][]any) error {
	_, err := s.circuit.Execute(func() (any, error) {
		body := &sheets.ValueRange{Values: values}
		return s.svc.Spreadsheets.Values.
			Update(s.spreadsheetID, s.rangeName, body).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
	})
	if err != nil {
		return fmt.Errorf("sheets update %s: %w", s.rangeName, err)
	}
	return nil
}
