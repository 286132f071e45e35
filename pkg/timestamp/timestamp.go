// Package timestamp reduces the timestamp encodings found in loosely typed
// documents to a single epoch-millisecond value.
package timestamp

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Value is one of EpochMillis, ISOString, SecondsContainer or NativeDate.
// A nil Value means the field was absent.
type Value interface {
	millis() int64
}

// EpochMillis is a raw epoch-millisecond number.
type EpochMillis int64

// ISOString is an ISO-8601 / RFC3339 encoded instant.
type ISOString string

// SecondsContainer is the {seconds, nanoseconds} shape document stores use
// for server timestamps.
type SecondsContainer struct {
	Seconds int64
	Nanos   int64
}

// NativeDate wraps a decoded time.Time.
type NativeDate time.Time

func (v EpochMillis) millis() int64 { return int64(v) }

func (v ISOString) millis() int64 {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return 0
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}

func (v SecondsContainer) millis() int64 {
	return v.Seconds*1000 + v.Nanos/int64(time.Millisecond)
}

func (v NativeDate) millis() int64 {
	t := time.Time(v)
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Millis returns v as epoch milliseconds, or 0 when v is absent or cannot be
// interpreted.
func Millis(v Value) int64 {
	if v == nil {
		return 0
	}
	return v.millis()
}

// FromField classifies a raw document field. It returns nil for absent or
// unrecognized shapes.
func FromField(raw interface{}) Value {
	switch f := raw.(type) {
	case nil:
		return nil
	case Value:
		return f
	case time.Time:
		return NativeDate(f)
	case *time.Time:
		if f == nil {
			return nil
		}
		return NativeDate(*f)
	case float64:
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return EpochMillis(int64(f))
	case float32:
		return FromField(float64(f))
	case int:
		return EpochMillis(f)
	case int64:
		return EpochMillis(f)
	case int32:
		return EpochMillis(f)
	case uint64:
		return EpochMillis(int64(f))
	case json.Number:
		if n, err := f.Int64(); err == nil {
			return EpochMillis(n)
		}
		if n, err := f.Float64(); err == nil {
			return FromField(n)
		}
		return nil
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64); err == nil {
			return EpochMillis(n)
		}
		return ISOString(f)
	case map[string]interface{}:
		return fromContainer(f)
	}
	return nil
}

func fromContainer(m map[string]interface{}) Value {
	secs, ok := intField(m, "seconds", "_seconds")
	if !ok {
		return nil
	}
	nanos, _ := intField(m, "nanoseconds", "_nanoseconds", "nanos")
	return SecondsContainer{Seconds: secs, Nanos: nanos}
}

func intField(m map[string]interface{}, keys ...string) (int64, bool) {
	for _, k := range keys {
		raw, ok := m[k]
		if !ok {
			continue
		}
		switch n := raw.(type) {
		case float64:
			return int64(n), true
		case int64:
			return n, true
		case int:
			return int64(n), true
		case int32:
			return int64(n), true
		case json.Number:
			if v, err := n.Int64(); err == nil {
				return v, true
			}
		case string:
			if v, err := strconv.ParseInt(n, 10, 64); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

// FieldMillis is FromField followed by Millis.
func FieldMillis(raw interface{}) int64 {
	return Millis(FromField(raw))
}
