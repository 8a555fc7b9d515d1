package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/senai134/medidor/internal/ingest"
	"github.com/senai134/medidor/internal/record"
	"github.com/senai134/medidor/internal/store"
)

func newTestApp(st store.Store) *fiber.App {
	app := fiber.New()
	latest := ingest.NewLatestCache(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	RegisterRoutes(app, st, latest)
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}

	var decoded map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("response is not JSON: %v (%s)", err, raw)
		}
	}
	return resp.StatusCode, decoded
}

// TestPostDataRoundTrip covers the synchronous ingress happy path: a posted
// reading must come back through GET /registro/<id> with the timestamp
// rendered in the fixed wire format.
func TestPostDataRoundTrip(t *testing.T) {
	app := newTestApp(store.NewMemoryStore())

	status, body := doJSON(t, app, http.MethodPost, "/data",
		`{"temperatura":22.5,"pressao":1013.0,"altitude":100,"umidade":55.2,"co2":15,"tempo_registro":1700000000}`)
	if status != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, status)
	}
	if body["message"] == "" {
		t.Fatalf("expected a confirmation message, got %v", body)
	}
	id, ok := body["id"].(float64)
	if !ok {
		t.Fatalf("expected numeric id in response, got %v", body)
	}

	status, body = doJSON(t, app, http.MethodGet, "/registro/1", "")
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, status)
	}
	reg, ok := body["registro"].(map[string]any)
	if !ok {
		t.Fatalf("expected registro object, got %v", body)
	}
	if reg["id"].(float64) != id {
		t.Errorf("expected id %v, got %v", id, reg["id"])
	}
	if reg["co2"].(float64) != 15.0 {
		t.Errorf("expected co2 15, got %v", reg["co2"])
	}
	if reg["tempo_registro"] != "2023-11-14 22:13:20" {
		t.Errorf("unexpected tempo_registro: %v", reg["tempo_registro"])
	}
}

func TestPostDataMissingBody(t *testing.T) {
	st := store.NewMemoryStore()
	app := newTestApp(st)

	status, body := doJSON(t, app, http.MethodPost, "/data", "")
	if status != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, status)
	}
	if body["error"] == nil {
		t.Fatalf("expected an error field, got %v", body)
	}

	records, _ := st.ListAll(context.Background())
	if len(records) != 0 {
		t.Errorf("store must stay unchanged, found %d records", len(records))
	}
}

func TestPostDataMissingTimestamp(t *testing.T) {
	st := store.NewMemoryStore()
	app := newTestApp(st)

	status, body := doJSON(t, app, http.MethodPost, "/data", `{"temperatura":22.5}`)
	if status != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, status)
	}
	if body["error"] != "missing timestamp" {
		t.Errorf("unexpected error message: %v", body["error"])
	}

	records, _ := st.ListAll(context.Background())
	if len(records) != 0 {
		t.Errorf("store must stay unchanged, found %d records", len(records))
	}
}

func TestPostDataInvalidTimestamp(t *testing.T) {
	app := newTestApp(store.NewMemoryStore())

	status, body := doJSON(t, app, http.MethodPost, "/data",
		`{"tempo_registro":"ontem"}`)
	if status != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, status)
	}
	if body["error"] != "invalid timestamp" {
		t.Errorf("unexpected error message: %v", body["error"])
	}
}

// brokenStore simulates a storage-layer outage.
type brokenStore struct {
	*store.MemoryStore
}

func (b brokenStore) Insert(context.Context, record.Record) (record.Record, error) {
	return record.Record{}, errors.New("connection refused")
}

func (b brokenStore) Delete(context.Context, int64) (record.Record, error) {
	return record.Record{}, errors.New("connection refused")
}

func TestPostDataStorageFailure(t *testing.T) {
	mem := store.NewMemoryStore()
	app := newTestApp(brokenStore{mem})

	status, body := doJSON(t, app, http.MethodPost, "/data", `{"tempo_registro":1700000000}`)
	if status != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, status)
	}
	if body["error"] == nil {
		t.Fatalf("expected an error field, got %v", body)
	}

	records, _ := mem.ListAll(context.Background())
	if len(records) != 0 {
		t.Errorf("no record may survive a failed insert, found %d", len(records))
	}
}

func TestListRegistros(t *testing.T) {
	st := store.NewMemoryStore()
	app := newTestApp(st)

	doJSON(t, app, http.MethodPost, "/data", `{"co2":35,"tempo_registro":1700000000}`)
	doJSON(t, app, http.MethodPost, "/data", `{"co2":10,"tempo_registro":1700000060}`)

	status, body := doJSON(t, app, http.MethodGet, "/registro", "")
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, status)
	}
	list, ok := body["registro"].([]any)
	if !ok || len(list) != 2 {
		t.Fatalf("expected 2 registros, got %v", body["registro"])
	}
	first := list[0].(map[string]any)
	if first["id"].(float64) != 1 {
		t.Errorf("expected ascending id order, got first id %v", first["id"])
	}
	if first["temperatura"] != nil {
		t.Errorf("absent measurement must serialize as null, got %v", first["temperatura"])
	}
}

func TestGetRegistroNotFound(t *testing.T) {
	app := newTestApp(store.NewMemoryStore())

	status, body := doJSON(t, app, http.MethodGet, "/registro/9999", "")
	if status != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, status)
	}
	if body["mensagem"] != "Registro não encontrado" {
		t.Errorf("unexpected mensagem: %v", body["mensagem"])
	}
}

func TestDeleteRegistro(t *testing.T) {
	st := store.NewMemoryStore()
	app := newTestApp(st)

	doJSON(t, app, http.MethodPost, "/data", `{"co2":35,"tempo_registro":1700000000}`)

	status, body := doJSON(t, app, http.MethodDelete, "/registro/1", "")
	if status != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, status)
	}
	if body["mensagem"] != "Deletado com sucesso" {
		t.Errorf("unexpected mensagem: %v", body["mensagem"])
	}
	reg := body["registro"].(map[string]any)
	if reg["co2"].(float64) != 35.0 {
		t.Errorf("expected deleted record in response, got %v", reg)
	}

	status, _ = doJSON(t, app, http.MethodGet, "/registro/1", "")
	if status != http.StatusNotFound {
		t.Errorf("deleted record must be gone, got status %d", status)
	}
}

func TestDeleteRegistroNotFound(t *testing.T) {
	app := newTestApp(store.NewMemoryStore())

	status, body := doJSON(t, app, http.MethodDelete, "/registro/9999", "")
	if status != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, status)
	}
	reg, ok := body["registro"].(map[string]any)
	if !ok || len(reg) != 0 {
		t.Errorf("expected empty registro object, got %v", body["registro"])
	}
	if body["mensagem"] != "Registro não encontrado" {
		t.Errorf("unexpected mensagem: %v", body["mensagem"])
	}
}

func TestDeleteRegistroStorageFailure(t *testing.T) {
	mem := store.NewMemoryStore()
	if _, err := mem.Insert(context.Background(), record.Record{}); err != nil {
		t.Fatalf("seeding store: %v", err)
	}
	app := newTestApp(brokenStore{mem})

	status, body := doJSON(t, app, http.MethodDelete, "/registro/1", "")
	if status != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, status)
	}
	if body["mensagem"] != "Erro ao deletar" {
		t.Errorf("unexpected mensagem: %v", body["mensagem"])
	}

	// Rollback semantics: the record is still there.
	if _, err := mem.Get(context.Background(), 1); err != nil {
		t.Errorf("record must remain after failed delete: %v", err)
	}
}

func TestGetDataReturnsLatestPayload(t *testing.T) {
	app := fiber.New()
	latest := ingest.NewLatestCache(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	RegisterRoutes(app, store.NewMemoryStore(), latest)

	latest.Set(context.Background(), map[string]any{"CO2": 42.0, "timestamp": 1700000000.0})

	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["CO2"].(float64) != 42.0 {
		t.Errorf("expected latest payload, got %v", body)
	}
}
