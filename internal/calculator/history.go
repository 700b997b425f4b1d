package calculator

import (
	"fmt"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultMaxHistorySize caps the live history when no limit is configured.
const DefaultMaxHistorySize = 1000

// Store persists the live history between sessions.
type Store interface {
	Save(history []Calculation) error
	Load() ([]Calculation, error)
}

// Observer is notified after every successful calculation.
type Observer interface {
	OnCalculation(c Calculation) error
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithStore sets the store used by SaveHistory and LoadHistory.
func WithStore(s Store) Option {
	return func(c *Calculator) { c.store = s }
}

// WithMaxHistorySize caps the live history; the oldest calculations are
// dropped first. Non-positive values keep the default.
func WithMaxHistorySize(n int) Option {
	return func(c *Calculator) {
		if n > 0 {
			c.maxHistory = n
		}
	}
}

// WithMaxInputValue bounds operand magnitude.
func WithMaxInputValue(max decimal.Decimal) Option {
	return func(c *Calculator) {
		if max.IsPositive() {
			c.maxInput = max
		}
	}
}

// WithClock replaces time.Now for calculation and snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		if now != nil {
			c.now = now
		}
	}
}

// Calculator owns the live history and its undo/redo stacks of mementos.
// It never logs or prints; failures are returned to the caller.
//
// A Calculator is not safe for concurrent use.
type Calculator struct {
	history   []Calculation
	undoStack []Memento
	redoStack []Memento

	operation Operation
	observers []Observer

	store      Store
	maxHistory int
	maxInput   decimal.Decimal
	now        func() time.Time
}

// New creates an empty calculator.
func New(opts ...Option) *Calculator {
	c := &Calculator{
		maxHistory: DefaultMaxHistorySize,
		maxInput:   DefaultMaxInputValue,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetOperation selects the operation used by PerformOperation. It stays
// selected until replaced.
func (c *Calculator) SetOperation(op Operation) {
	c.operation = op
}

// Operation returns the selected operation, or nil.
func (c *Calculator) Operation() Operation {
	return c.operation
}

// PerformOperation parses both operands, runs the selected operation and
// records the result. Observers run after the calculation is recorded; the
// first observer error stops notification and is returned.
func (c *Calculator) PerformOperation(rawA, rawB string) (decimal.Decimal, error) {
	a, err := ParseOperand(rawA, c.maxInput)
	if err != nil {
		return decimal.Zero, err
	}
	b, err := ParseOperand(rawB, c.maxInput)
	if err != nil {
		return decimal.Zero, err
	}

	if c.operation == nil {
		return decimal.Zero, newOperationError("No operation set")
	}

	result, err := c.operation.Execute(a, b)
	if err != nil {
		return decimal.Zero, err
	}

	calc := Calculation{
		Operation: c.operation.Name(),
		Operand1:  a,
		Operand2:  b,
		Result:    result,
		Timestamp: c.now(),
	}

	c.undoStack = append(c.undoStack, c.Snapshot())
	c.redoStack = nil
	c.history = append(c.history, calc)
	if len(c.history) > c.maxHistory {
		c.history = cloneHistory(c.history[len(c.history)-c.maxHistory:])
	}

	for _, o := range c.observers {
		if err := o.OnCalculation(calc); err != nil {
			return result, fmt.Errorf("notifying observer: %w", err)
		}
	}

	return result, nil
}

// Undo restores the history as it was before the last change. It returns
// false when there is nothing to undo.
func (c *Calculator) Undo() bool {
	if len(c.undoStack) == 0 {
		return false
	}

	c.redoStack = append(c.redoStack, c.Snapshot())
	m := c.undoStack[len(c.undoStack)-1]
	c.undoStack = c.undoStack[:len(c.undoStack)-1]
	c.history = m.History()
	return true
}

// Redo reapplies the last undone change. It returns false when there is
// nothing to redo.
func (c *Calculator) Redo() bool {
	if len(c.redoStack) == 0 {
		return false
	}

	c.undoStack = append(c.undoStack, c.Snapshot())
	m := c.redoStack[len(c.redoStack)-1]
	c.redoStack = c.redoStack[:len(c.redoStack)-1]
	c.history = m.History()
	return true
}

// ClearHistory drops the history and both stacks.
func (c *Calculator) ClearHistory() {
	c.history = nil
	c.undoStack = nil
	c.redoStack = nil
}

// ShowHistory formats each calculation in history order.
func (c *Calculator) ShowHistory() []string {
	lines := make([]string, 0, len(c.history))
	for _, calc := range c.history {
		lines = append(lines, calc.String())
	}
	return lines
}

// History returns a copy of the live history.
func (c *Calculator) History() []Calculation {
	return cloneHistory(c.history)
}

// Snapshot captures the live history.
func (c *Calculator) Snapshot() Memento {
	return NewMemento(c.history, c.now())
}

// UndoCount is the depth of the undo stack.
func (c *Calculator) UndoCount() int {
	return len(c.undoStack)
}

// RedoCount is the depth of the redo stack.
func (c *Calculator) RedoCount() int {
	return len(c.redoStack)
}

// AddObserver registers o. Adding the same observer twice has no effect.
// Observers are compared by identity, so use pointer types.
func (c *Calculator) AddObserver(o Observer) {
	if o == nil || c.indexOf(o) >= 0 {
		return
	}
	c.observers = append(c.observers, o)
}

// RemoveObserver unregisters o; removing an unknown observer is a no-op.
func (c *Calculator) RemoveObserver(o Observer) {
	i := c.indexOf(o)
	if i < 0 {
		return
	}
	c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
}

// Observers returns the registered observers in notification order.
func (c *Calculator) Observers() []Observer {
	out := make([]Observer, len(c.observers))
	copy(out, c.observers)
	return out
}

func (c *Calculator) indexOf(o Observer) int {
	if o == nil || !reflect.TypeOf(o).Comparable() {
		return -1
	}
	for i, existing := range c.observers {
		if reflect.TypeOf(existing) == reflect.TypeOf(o) && existing == o {
			return i
		}
	}
	return -1
}

// SaveHistory writes the live history to the store.
func (c *Calculator) SaveHistory() error {
	if c.store == nil {
		return ErrNoStore
	}
	return c.store.Save(c.History())
}

// LoadHistory replaces the live history with the stored one. Both stacks are
// cleared so the loaded history becomes the new baseline.
func (c *Calculator) LoadHistory() error {
	if c.store == nil {
		return ErrNoStore
	}
	history, err := c.store.Load()
	if err != nil {
		return err
	}
	if len(history) > c.maxHistory {
		history = history[len(history)-c.maxHistory:]
	}
	c.history = cloneHistory(history)
	c.undoStack = nil
	c.redoStack = nil
	return nil
}
