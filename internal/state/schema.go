// Package state persists the node's single durable record.
//
// Every named field of logic.State has one schema entry with a typed getter
// and setter over a tagged Value, so the storage representation never depends
// on which Go type a caller happens to pass.
package state

import (
	"fmt"
	"strconv"

	"github.com/sweeney/alarmguard/internal/logic"
)

// Kind tags the representation of a stored value.
type Kind string

const (
	KindBool   Kind = "bool"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindString Kind = "string"
)

// Value is a tagged variant holding exactly one of its payload fields.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Str   string
}

func boolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }
func intValue(i int64) Value { return Value{Kind: KindInt, Int: i} }
func floatValue(f float64) Value { return Value{Kind: KindFloat, Float: f} }
func stringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// Encode renders the payload as text for storage.
func (v Value) Encode() string {
	switch v.Kind {
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	default:
		return v.Str
	}
}

// DecodeValue parses text stored under kind.
func DecodeValue(kind Kind, text string) (Value, error) {
	switch kind {
	case KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, fmt.Errorf("decode bool: %w", err)
		}
		return boolValue(b), nil
	case KindInt:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("decode int: %w", err)
		}
		return intValue(i), nil
	case KindFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("decode float: %w", err)
		}
		return floatValue(f), nil
	case KindString:
		return stringValue(text), nil
	}
	return Value{}, fmt.Errorf("unknown kind %q", kind)
}

// Field is one persisted key with its typed accessors.
type Field struct {
	Key  string
	Kind Kind
	Get  func(logic.State) Value
	Set  func(*logic.State, Value)
}

// Schema lists every persisted field. Keys must never be renamed.
var Schema = []Field{
	{"mode", KindString,
		func(s logic.State) Value { return stringValue(string(s.Mode)) },
		func(s *logic.State, v Value) { s.Mode = logic.BootMode(v.Str) }},
	{"detection", KindBool,
		func(s logic.State) Value { return boolValue(s.DetectionEnabled) },
		func(s *logic.State, v Value) { s.DetectionEnabled = v.Bool }},
	{"nightMode", KindBool,
		func(s logic.State) Value { return boolValue(s.NightModeEnabled) },
		func(s *logic.State, v Value) { s.NightModeEnabled = v.Bool }},
	{"photoflash", KindBool,
		func(s logic.State) Value { return boolValue(s.FlashRequested) },
		func(s *logic.State, v Value) { s.FlashRequested = v.Bool }},
	{"pendingPhoto", KindString,
		func(s logic.State) Value { return stringValue(s.PendingPhotoRef) },
		func(s *logic.State, v Value) { s.PendingPhotoRef = v.Str }},
	{"photoLastID", KindInt,
		func(s logic.State) Value { return intValue(int64(s.LastPhotoIndex)) },
		func(s *logic.State, v Value) { s.LastPhotoIndex = int(v.Int) }},
	{"lastmsgID", KindInt,
		func(s logic.State) Value { return intValue(s.LastProcessedCommandID) },
		func(s *logic.State, v Value) { s.LastProcessedCommandID = v.Int }},
	{"motionEvents", KindInt,
		func(s logic.State) Value { return intValue(int64(s.MotionEventCount)) },
		func(s *logic.State, v Value) { s.MotionEventCount = int(v.Int) }},
	{"minChange", KindFloat,
		func(s logic.State) Value { return floatValue(s.MinChangeThresholdPercent) },
		func(s *logic.State, v Value) { s.MinChangeThresholdPercent = v.Float }},
	{"debug", KindBool,
		func(s logic.State) Value { return boolValue(s.DebugEnabled) },
		func(s *logic.State, v Value) { s.DebugEnabled = v.Bool }},
	{"timeMarker", KindInt,
		func(s logic.State) Value { return intValue(s.TimeOfDayMarker) },
		func(s *logic.State, v Value) { s.TimeOfDayMarker = v.Int }},
	{"captureAttempts", KindInt,
		func(s logic.State) Value { return intValue(int64(s.CaptureAttempts)) },
		func(s *logic.State, v Value) { s.CaptureAttempts = int(v.Int) }},
}

// Row is a stored (kind, text) pair.
type Row struct {
	Kind Kind
	Text string
}

// FromRows builds a record from stored rows. Absent keys, kind mismatches and
// undecodable values keep the field's default; skipped keys are returned for logging.
func FromRows(rows map[string]Row) (logic.State, []string) {
	st := logic.DefaultState()
	var skipped []string
	for _, f := range Schema {
		row, ok := rows[f.Key]
		if !ok {
			continue
		}
		if row.Kind != f.Kind {
			skipped = append(skipped, f.Key)
			continue
		}
		v, err := DecodeValue(row.Kind, row.Text)
		if err != nil {
			skipped = append(skipped, f.Key)
			continue
		}
		f.Set(&st, v)
	}
	st.Normalize()
	return st, skipped
}

// ToRows flattens a record into stored rows.
func ToRows(st logic.State) map[string]Row {
	rows := make(map[string]Row, len(Schema))
	for _, f := range Schema {
		v := f.Get(st)
		rows[f.Key] = Row{Kind: v.Kind, Text: v.Encode()}
	}
	return rows
}
