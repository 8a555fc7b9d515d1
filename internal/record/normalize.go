package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ValidationError reports a payload that cannot become a Record.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// KeyMap names the payload keys for each field. The broker and the HTTP
// endpoint use different vocabularies for the same reading.
type KeyMap struct {
	Temperature string
	Pressure    string
	Altitude    string
	Humidity    string
	CO2         string
	Timestamp   string
}

// BrokerKeys is the field vocabulary of the pub/sub feed.
var BrokerKeys = KeyMap{
	Temperature: "temperature",
	Pressure:    "pressure",
	Altitude:    "altitude",
	Humidity:    "humidity",
	CO2:         "CO2",
	Timestamp:   "timestamp",
}

// RequestKeys is the field vocabulary of POST /data.
var RequestKeys = KeyMap{
	Temperature: "temperatura",
	Pressure:    "pressao",
	Altitude:    "altitude",
	Humidity:    "umidade",
	CO2:         "co2",
	Timestamp:   "tempo_registro",
}

// Normalize converts a decoded payload into an unsaved Record (ID zero).
// The timestamp key is required and must parse as integer Unix seconds;
// measurement fields pass through unchecked, absent ones stay nil.
func Normalize(payload map[string]any, keys KeyMap) (Record, error) {
	ts, ok := payload[keys.Timestamp]
	if !ok || ts == nil {
		return Record{}, &ValidationError{Reason: "missing timestamp"}
	}

	epoch, err := toEpoch(ts)
	if err != nil {
		return Record{}, &ValidationError{Reason: "invalid timestamp"}
	}

	rec := Record{RecordedAt: time.Unix(epoch, 0).UTC()}

	for _, f := range []struct {
		key  string
		dest **float64
	}{
		{keys.Temperature, &rec.Temperature},
		{keys.Pressure, &rec.Pressure},
		{keys.Altitude, &rec.Altitude},
		{keys.Humidity, &rec.Humidity},
		{keys.CO2, &rec.CO2},
	} {
		v, ok := payload[f.key]
		if !ok || v == nil {
			continue
		}
		n, err := toFloat(v)
		if err != nil {
			return Record{}, &ValidationError{Reason: fmt.Sprintf("invalid %s", f.key)}
		}
		*f.dest = &n
	}

	return rec, nil
}

// toEpoch accepts the numeric shapes a JSON decoder may hand us. A float is
// only valid when it carries a whole number of seconds.
func toEpoch(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case float64:
		n := int64(t)
		if float64(n) != t {
			return 0, fmt.Errorf("timestamp %v is not an integer", t)
		}
		return n, nil
	case json.Number:
		return t.Int64()
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, fmt.Errorf("timestamp has unsupported type %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case string:
		return strconv.ParseFloat(t, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
