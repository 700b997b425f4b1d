package calculator

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// Operation is the capability every arithmetic operation provides. Execute
// must call Validate before computing anything.
type Operation interface {
	// Name is recorded as Calculation.Operation.
	Name() string
	Validate(a, b decimal.Decimal) error
	Execute(a, b decimal.Decimal) (decimal.Decimal, error)
}

// Kind enumerates the built-in operations.
type Kind int

const (
	Addition Kind = iota
	Subtraction
	Multiplication
	Division
	Power
	Root
	Modulus
	IntegerDivide
	Percent
	AbsoluteDifference
)

var kindNames = [...]string{
	Addition:           "Addition",
	Subtraction:        "Subtraction",
	Multiplication:     "Multiplication",
	Division:           "Division",
	Power:              "Power",
	Root:               "Root",
	Modulus:            "Modulus",
	IntegerDivide:      "IntegerDivide",
	Percent:            "Percent",
	AbsoluteDifference: "AbsoluteDifference",
}

// Kinds lists every built-in kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		Addition, Subtraction, Multiplication, Division, Power,
		Root, Modulus, IntegerDivide, Percent, AbsoluteDifference,
	}
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// Factory returns a Factory producing this kind, for use with Registry.Register.
func (k Kind) Factory() Factory {
	return func() Operation { return builtin{kind: k} }
}

var hundred = decimal.NewFromInt(100)

// builtin is the single implementation behind all built-in kinds.
type builtin struct {
	kind Kind
}

func (o builtin) Name() string {
	return o.kind.String()
}

func (o builtin) String() string {
	return o.Name()
}

func (o builtin) Validate(a, b decimal.Decimal) error {
	switch o.kind {
	case Division:
		if b.IsZero() {
			return newValidationError("Division by zero is not allowed")
		}
	case Power:
		if b.IsNegative() {
			return newValidationError("Negative exponents not supported")
		}
	case Root:
		if a.IsNegative() {
			return newValidationError("Cannot calculate root of negative number")
		}
		if b.IsZero() {
			return newValidationError("Zero root is undefined")
		}
	case Modulus:
		if b.IsZero() {
			return newValidationError("Division by zero in modulus is not allowed")
		}
	case IntegerDivide:
		if b.IsZero() {
			return newValidationError("Division by zero in integer division is not allowed")
		}
	case Percent:
		if b.IsZero() {
			return newValidationError("Cannot calculate percentage with denominator zero")
		}
	}
	return nil
}

func (o builtin) Execute(a, b decimal.Decimal) (decimal.Decimal, error) {
	if err := o.Validate(a, b); err != nil {
		return decimal.Zero, err
	}

	switch o.kind {
	case Addition:
		return a.Add(b), nil
	case Subtraction:
		return a.Sub(b), nil
	case Multiplication:
		return a.Mul(b), nil
	case Division:
		return quotient(a, b), nil
	case Power:
		return FromFloat(math.Pow(a.InexactFloat64(), b.InexactFloat64()))
	case Root:
		return FromFloat(math.Pow(a.InexactFloat64(), 1/b.InexactFloat64()))
	case Modulus:
		return a.Mod(b), nil
	case IntegerDivide:
		return floorDiv(a, b), nil
	case Percent:
		return quotient(a, b).Mul(hundred), nil
	case AbsoluteDifference:
		return a.Sub(b).Abs(), nil
	}
	return decimal.Zero, newOperationError("Operation failed: unsupported operation " + o.kind.String())
}

// floorDiv rounds the quotient toward negative infinity without going through
// a rounded division, so large operands cannot round across an integer.
func floorDiv(a, b decimal.Decimal) decimal.Decimal {
	q, r := a.QuoRem(b, 0)
	if !r.IsZero() && r.Sign() != b.Sign() {
		q = q.Sub(decimal.NewFromInt(1))
	}
	return q
}

// SignificantDigits is the number of significant digits kept by quotients.
const SignificantDigits = 28

// quotient divides keeping at least SignificantDigits significant digits,
// whatever the magnitude of the operands.
func quotient(a, b decimal.Decimal) decimal.Decimal {
	scale := SignificantDigits - magnitude(a) + magnitude(b)
	if scale < decimal.DivisionPrecision {
		scale = decimal.DivisionPrecision
	}
	return a.DivRound(b, int32(scale))
}

// magnitude is the position of the most significant digit of d relative to
// the decimal point.
func magnitude(d decimal.Decimal) int {
	return d.NumDigits() + int(d.Exponent())
}

// FromFloat converts a float64 intermediate to the decimal holding its exact
// binary value. Power and Root carry float64 rounding into their results.
func FromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, newOperationError("Operation failed: result is not a finite number")
	}
	// The denominator is 2^k, whose reciprocal has exactly k decimal places.
	r := new(big.Rat).SetFloat64(f)
	return decimal.NewFromBigRat(r, int32(r.Denom().BitLen()-1)), nil
}
