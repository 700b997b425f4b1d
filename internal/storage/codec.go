package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"decimal-calculator/internal/calculator"
)

// Columns is the header of a CSV history file.
var Columns = []string{"operation", "operand1", "operand2", "result", "timestamp"}

// Codec encodes a history to and from one file format.
type Codec interface {
	Encode(w io.Writer, history []calculator.Calculation) error
	Decode(r io.Reader) ([]calculator.Calculation, error)
}

// CSVCodec writes one row per calculation under the Columns header.
type CSVCodec struct{}

func (CSVCodec) Encode(w io.Writer, history []calculator.Calculation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, c := range history {
		rec := c.Record()
		if err := cw.Write([]string{rec.Operation, rec.Operand1, rec.Operand2, rec.Result, rec.Timestamp}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (CSVCodec) Decode(r io.Reader) ([]calculator.Calculation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var history []calculator.Calculation
	for row := 2; ; row++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row %d: %w", row, err)
		}
		if len(fields) < len(header) {
			return nil, fmt.Errorf("row %d: expected %d fields, got %d", row, len(header), len(fields))
		}

		c, err := calculator.CalculationFromRecord(calculator.CalculationRecord{
			Operation: fields[index["operation"]],
			Operand1:  fields[index["operand1"]],
			Operand2:  fields[index["operand2"]],
			Result:    fields[index["result"]],
			Timestamp: fields[index["timestamp"]],
		})
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		history = append(history, c)
	}
	return history, nil
}

// columnIndex maps each required column to its position. Extra columns, such
// as a leading index written by spreadsheet tools, are ignored.
func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}
	return index, nil
}

// JSONCodec writes the memento record document.
type JSONCodec struct{}

func (JSONCodec) Encode(w io.Writer, history []calculator.Calculation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(calculator.NewMemento(history, time.Now()).Record())
}

func (JSONCodec) Decode(r io.Reader) ([]calculator.Calculation, error) {
	var rec calculator.MementoRecord
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding json: %w", err)
	}
	return fromRecord(rec)
}

// YAMLCodec writes the memento record document as YAML.
type YAMLCodec struct{}

func (YAMLCodec) Encode(w io.Writer, history []calculator.Calculation) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(calculator.NewMemento(history, time.Now()).Record()); err != nil {
		return err
	}
	return enc.Close()
}

func (YAMLCodec) Decode(r io.Reader) ([]calculator.Calculation, error) {
	var rec calculator.MementoRecord
	if err := yaml.NewDecoder(r).Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	return fromRecord(rec)
}

func fromRecord(rec calculator.MementoRecord) ([]calculator.Calculation, error) {
	m, err := calculator.MementoFromRecord(rec)
	if err != nil {
		return nil, err
	}
	return m.History(), nil
}
