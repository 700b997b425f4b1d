// Package calculator holds the arithmetic core: the built-in operations and
// the registry that names them, calculation records, memento snapshots, and
// the Calculator engine with undo/redo history and observers.
//
// All arithmetic uses github.com/shopspring/decimal. Power and Root go
// through float64 and carry its rounding.
package calculator
