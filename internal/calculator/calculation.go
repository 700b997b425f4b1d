package calculator

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Calculation is one computed result with its inputs. It is a value type and
// is never modified after the engine creates it.
type Calculation struct {
	Operation string
	Operand1  decimal.Decimal
	Operand2  decimal.Decimal
	Result    decimal.Decimal
	Timestamp time.Time
}

var operationSymbols = map[string]string{
	"Addition":       "+",
	"Subtraction":    "-",
	"Multiplication": "*",
	"Division":       "/",
	"Power":          "^",
	"Modulus":        "mod",
	"IntegerDivide":  "//",
}

// String renders the calculation as "2 + 3 = 5", or "Root(8, 3) = 2" for
// operations without an infix symbol.
func (c Calculation) String() string {
	if sym, ok := operationSymbols[c.Operation]; ok {
		return fmt.Sprintf("%s %s %s = %s", c.Operand1, sym, c.Operand2, c.Result)
	}
	return fmt.Sprintf("%s(%s, %s) = %s", c.Operation, c.Operand1, c.Operand2, c.Result)
}

// Equal compares by value; decimals compare numerically and timestamps by instant.
func (c Calculation) Equal(o Calculation) bool {
	return c.Operation == o.Operation &&
		c.Operand1.Equal(o.Operand1) &&
		c.Operand2.Equal(o.Operand2) &&
		c.Result.Equal(o.Result) &&
		c.Timestamp.Equal(o.Timestamp)
}

// EqualHistories reports whether two histories hold value-equal calculations
// in the same order.
func EqualHistories(a, b []Calculation) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
