package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"decimal-calculator/internal/calculator"
)

func sampleHistory() []calculator.Calculation {
	ts := time.Date(2024, 3, 4, 5, 6, 7, 890000000, time.UTC)
	return []calculator.Calculation{
		{
			Operation: "Addition",
			Operand1:  decimal.RequireFromString("2.5"),
			Operand2:  decimal.RequireFromString("3"),
			Result:    decimal.RequireFromString("5.5"),
			Timestamp: ts,
		},
		{
			Operation: "Division",
			Operand1:  decimal.RequireFromString("1"),
			Operand2:  decimal.RequireFromString("3"),
			Result:    decimal.RequireFromString("0.3333333333333333"),
			Timestamp: ts.Add(time.Minute),
		},
		{
			Operation: "IntegerDivide",
			Operand1:  decimal.RequireFromString("-7"),
			Operand2:  decimal.RequireFromString("2"),
			Result:    decimal.RequireFromString("-4"),
			Timestamp: ts.Add(2 * time.Minute),
		},
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	for _, name := range []string{"history.csv", "history", "history.json", "history.yaml", "history.yml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			store, err := NewFileStore(path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			want := sampleHistory()
			if err := store.Save(want); err != nil {
				t.Fatalf("save: %v", err)
			}

			got, err := store.Load()
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if !calculator.EqualHistories(got, want) {
				t.Fatalf("expected %v, got %v", want, got)
			}
		})
	}
}

func TestFileStoreEmptyHistory(t *testing.T) {
	for _, name := range []string{"empty.csv", "empty.json", "empty.yaml"} {
		t.Run(name, func(t *testing.T) {
			store, err := NewFileStore(filepath.Join(t.TempDir(), name))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := store.Save(nil); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err := store.Load()
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(got) != 0 {
				t.Fatalf("expected empty history, got %v", got)
			}
		})
	}
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "missing.csv"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := store.Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil history, got %v", got)
	}
}

func TestFileStoreZeroLengthFileIsEmpty(t *testing.T) {
	for _, name := range []string{"zero.csv", "zero.json", "zero.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := os.WriteFile(path, nil, 0o644); err != nil {
				t.Fatalf("writing file: %v", err)
			}
			store, _ := NewFileStore(path)
			got, err := store.Load()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(got) != 0 {
				t.Fatalf("expected empty history, got %v", got)
			}
		})
	}
}

func TestNewFileStoreRejectsUnknownExtension(t *testing.T) {
	if _, err := NewFileStore("history.xlsx"); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestCSVFileLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	store, _ := NewFileStore(path)
	if err := store.Save(sampleHistory()[:1]); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", lines)
	}
	if lines[0] != "operation,operand1,operand2,result,timestamp" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "Addition,2.5,3,5.5,2024-03-04T05:06:07.89Z" {
		t.Fatalf("unexpected row %q", lines[1])
	}
}

func TestCSVDecodeAcceptsReorderedAndExtraColumns(t *testing.T) {
	src := ",timestamp,result,operand2,operand1,operation\n" +
		"0,2024-03-04T05:06:07,5,3,2,Addition\n"

	got, err := CSVCodec{}.Decode(strings.NewReader(src))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Operation != "Addition" || !got[0].Result.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected history %v", got)
	}
}

func TestCSVDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "missing column",
			src:  "operation,operand1,operand2,result\nAddition,1,2,3\n",
			want: `missing column "timestamp"`,
		},
		{
			name: "bad operand",
			src:  "operation,operand1,operand2,result,timestamp\nAddition,one,2,3,2024-03-04T05:06:07Z\n",
			want: "row 2",
		},
		{
			name: "short row",
			src:  "operation,operand1,operand2,result,timestamp\nAddition,1,2\n",
			want: "row 2: expected 5 fields, got 3",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CSVCodec{}.Decode(strings.NewReader(tc.src))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestFileStoreLoadReportsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	store, _ := NewFileStore(path)

	_, err := store.Load()
	if err == nil || !strings.Contains(err.Error(), path) {
		t.Fatalf("expected error naming %s, got %v", path, err)
	}
}
