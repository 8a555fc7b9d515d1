package record

import (
	"time"
)

// TimeLayout is the wire format for tempo_registro in API responses and
// spreadsheet rows.
const TimeLayout = "2006-01-02 15:04:05"

// Record is one persisted sensor reading. Measurement fields are pointers
// because a producer may omit any of them; an absent measurement is stored
// as NULL and rendered as JSON null.
type Record struct {
	ID          int64
	Temperature *float64
	Pressure    *float64
	Altitude    *float64
	Humidity    *float64
	CO2         *float64
	RecordedAt  time.Time // always UTC
}

// View is the JSON projection used by the query API and the dashboard:
// Portuguese field names, tempo_registro as a formatted string.
type View struct {
	ID            int64    `json:"id"`
	Temperature   *float64 `json:"temperatura"`
	Pressure      *float64 `json:"pressao"`
	Altitude      *float64 `json:"altitude"`
	Humidity      *float64 `json:"umidade"`
	CO2           *float64 `json:"co2"`
	TempoRegistro string   `json:"tempo_registro"`
}

// AsView projects the record for serialization.
func (r Record) AsView() View {
	return View{
		ID:            r.ID,
		Temperature:   r.Temperature,
		Pressure:      r.Pressure,
		Altitude:      r.Altitude,
		Humidity:      r.Humidity,
		CO2:           r.CO2,
		TempoRegistro: r.RecordedAt.UTC().Format(TimeLayout),
	}
}

// Views projects a slice of records, preserving order.
func Views(records []Record) []View {
	views := make([]View, 0, len(records))
	for _, r := range records {
		views = append(views, r.AsView())
	}
	return views
}
