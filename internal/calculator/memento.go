package calculator

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Memento is a snapshot of the history list at one point in time. It owns a
// private copy of the calculations and is never modified after capture.
type Memento struct {
	history   []Calculation
	timestamp time.Time
}

// NewMemento captures a copy of history taken at ts.
func NewMemento(history []Calculation, ts time.Time) Memento {
	return Memento{history: cloneHistory(history), timestamp: ts}
}

// History returns a copy of the captured calculations.
func (m Memento) History() []Calculation {
	return cloneHistory(m.history)
}

// Len is the number of captured calculations.
func (m Memento) Len() int {
	return len(m.history)
}

// Timestamp is the capture time.
func (m Memento) Timestamp() time.Time {
	return m.timestamp
}

// CalculationRecord is the all-string form of a Calculation used by snapshots
// and history files.
type CalculationRecord struct {
	Operation string `json:"operation" yaml:"operation"`
	Operand1  string `json:"operand1" yaml:"operand1"`
	Operand2  string `json:"operand2" yaml:"operand2"`
	Result    string `json:"result" yaml:"result"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}

// MementoRecord is the structured form of a Memento.
type MementoRecord struct {
	History   []CalculationRecord `json:"history" yaml:"history"`
	Timestamp string              `json:"timestamp" yaml:"timestamp"`
}

// Record converts the memento to its structured form.
func (m Memento) Record() MementoRecord {
	rec := MementoRecord{
		History:   make([]CalculationRecord, 0, len(m.history)),
		Timestamp: FormatTimestamp(m.timestamp),
	}
	for _, c := range m.history {
		rec.History = append(rec.History, c.Record())
	}
	return rec
}

// MementoFromRecord rebuilds a Memento from its structured form. A record
// without a timestamp gets the current time.
func MementoFromRecord(rec MementoRecord) (Memento, error) {
	history := make([]Calculation, 0, len(rec.History))
	for i, cr := range rec.History {
		c, err := CalculationFromRecord(cr)
		if err != nil {
			return Memento{}, fmt.Errorf("history entry %d: %w", i, err)
		}
		history = append(history, c)
	}

	ts := time.Now()
	if rec.Timestamp != "" {
		parsed, err := ParseTimestamp(rec.Timestamp)
		if err != nil {
			return Memento{}, fmt.Errorf("memento timestamp: %w", err)
		}
		ts = parsed
	}

	return Memento{history: history, timestamp: ts}, nil
}

// Record converts the calculation to its all-string form.
func (c Calculation) Record() CalculationRecord {
	return CalculationRecord{
		Operation: c.Operation,
		Operand1:  c.Operand1.String(),
		Operand2:  c.Operand2.String(),
		Result:    c.Result.String(),
		Timestamp: FormatTimestamp(c.Timestamp),
	}
}

// CalculationFromRecord parses the all-string form back into a Calculation.
func CalculationFromRecord(rec CalculationRecord) (Calculation, error) {
	if rec.Operation == "" {
		return Calculation{}, errors.New("missing operation")
	}

	a, err := parseDecimalField("operand1", rec.Operand1)
	if err != nil {
		return Calculation{}, err
	}
	b, err := parseDecimalField("operand2", rec.Operand2)
	if err != nil {
		return Calculation{}, err
	}
	result, err := parseDecimalField("result", rec.Result)
	if err != nil {
		return Calculation{}, err
	}
	ts, err := ParseTimestamp(rec.Timestamp)
	if err != nil {
		return Calculation{}, err
	}

	return Calculation{
		Operation: rec.Operation,
		Operand1:  a,
		Operand2:  b,
		Result:    result,
		Timestamp: ts,
	}, nil
}

func parseDecimalField(name, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s %q: %w", name, raw, err)
	}
	return d, nil
}

// timestampLayouts are accepted when parsing. Offset-less ISO-8601 values
// are read as local time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// FormatTimestamp renders ts as RFC 3339 with nanoseconds.
func FormatTimestamp(ts time.Time) string {
	return ts.Format(time.RFC3339Nano)
}

// ParseTimestamp parses an ISO-8601 timestamp with or without an offset.
func ParseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing timestamp %q: not ISO-8601", raw)
}

func cloneHistory(h []Calculation) []Calculation {
	out := make([]Calculation, len(h))
	copy(out, h)
	return out
}
