package repl

import (
	"strings"

	"decimal-calculator/internal/calculator"
)

var builtinRows = [][]string{
	{"add", "subtract", "multiply", "divide", "power", "root"},
	{"modulus", "int_divide", "percent", "abs_diff"},
}

var sessionHelp = []string{
	"  history - Show calculation history",
	"  clear - Clear calculation history",
	"  undo - Undo the last calculation",
	"  redo - Redo the last undone calculation",
	"  save - Save calculation history to file",
	"  load - Load calculation history from file",
	"  exit - Exit the calculator",
}

func (r *REPL) printHelp() {
	r.println("\nAvailable commands:")
	for _, row := range builtinRows {
		r.println("  " + strings.Join(row, ", "))
	}
	if extra := r.extraOperations(); len(extra) > 0 {
		r.println("  " + strings.Join(extra, ", ") + " (plugins)")
	}
	for _, line := range sessionHelp {
		r.println(line)
	}
}

// extraOperations lists registered operations that are not built in.
func (r *REPL) extraOperations() []string {
	var extra []string
	for _, name := range r.registry.Names() {
		if !calculator.IsBuiltin(name) {
			extra = append(extra, name)
		}
	}
	return extra
}
