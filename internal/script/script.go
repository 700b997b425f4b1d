// Package script registers Lua-defined operations with a calculator registry.
//
// A script defines a global function execute(a, b) and may define
// validate(a, b) and a global name. Raising an error from validate rejects
// the operands:
//
//	name = "Hypotenuse"
//
//	function validate(a, b)
//	  if a < 0 or b < 0 then error("Sides must be non-negative", 0) end
//	end
//
//	function execute(a, b)
//	  return math.sqrt(a * a + b * b)
//	end
//
// Operands reach Lua as float64 numbers, so results carry float rounding.
package script

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	lua "github.com/yuin/gopher-lua"

	"decimal-calculator/internal/calculator"
)

// ErrClosed is returned when an operation runs after Close.
var ErrClosed = errors.New("script operation is closed")

// Operation is a calculator operation backed by its own Lua state.
type Operation struct {
	name  string
	state *lua.LState
}

// New compiles source and returns the operation it defines. fallbackName is
// used when the script does not set a global name.
func New(fallbackName, source string) (*Operation, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(L)

	if err := doWithRecovery(func() error { return L.DoString(source) }); err != nil {
		L.Close()
		return nil, fmt.Errorf("loading script %s: %w", fallbackName, err)
	}
	if L.GetGlobal("execute").Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("script %s: execute(a, b) is not defined", fallbackName)
	}

	name := fallbackName
	if v, ok := L.GetGlobal("name").(lua.LString); ok && v != "" {
		name = string(v)
	}

	return &Operation{name: name, state: L}, nil
}

// openSafeLibraries opens the libraries a pure arithmetic script needs.
// io, os, package and debug stay closed.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

func (o *Operation) Name() string {
	return o.name
}

func (o *Operation) Validate(a, b decimal.Decimal) error {
	if o.state == nil {
		return ErrClosed
	}
	if o.state.GetGlobal("validate").Type() != lua.LTFunction {
		return nil
	}
	if _, err := o.call("validate", a, b); err != nil {
		return &calculator.ValidationError{Message: luaMessage(err)}
	}
	return nil
}

func (o *Operation) Execute(a, b decimal.Decimal) (decimal.Decimal, error) {
	if err := o.Validate(a, b); err != nil {
		return decimal.Zero, err
	}

	ret, err := o.call("execute", a, b)
	if err != nil {
		return decimal.Zero, &calculator.OperationError{Message: "Operation failed: " + luaMessage(err)}
	}
	return toDecimal(ret)
}

// Close releases the Lua state.
func (o *Operation) Close() {
	if o.state != nil {
		o.state.Close()
		o.state = nil
	}
}

func (o *Operation) call(fn string, a, b decimal.Decimal) (lua.LValue, error) {
	var ret lua.LValue = lua.LNil
	err := doWithRecovery(func() error {
		if err := o.state.CallByParam(lua.P{
			Fn:      o.state.GetGlobal(fn),
			NRet:    1,
			Protect: true,
		}, lua.LNumber(a.InexactFloat64()), lua.LNumber(b.InexactFloat64())); err != nil {
			return err
		}
		ret = o.state.Get(-1)
		o.state.Pop(1)
		return nil
	})
	return ret, err
}

func toDecimal(v lua.LValue) (decimal.Decimal, error) {
	switch v := v.(type) {
	case lua.LNumber:
		return calculator.FromFloat(float64(v))
	case lua.LString:
		d, err := decimal.NewFromString(strings.TrimSpace(string(v)))
		if err != nil {
			return decimal.Zero, &calculator.OperationError{Message: fmt.Sprintf("Operation failed: script returned %q", string(v))}
		}
		return d, nil
	default:
		return decimal.Zero, &calculator.OperationError{Message: "Operation failed: script returned " + v.Type().String()}
	}
}

// luaMessage strips the Lua traceback, keeping the error value.
func luaMessage(err error) string {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return apiErr.Object.String()
	}
	return err.Error()
}

func doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

// LoadDir compiles every *.lua file in dir and registers it under its file
// stem. The returned operations must be closed by the caller.
func LoadDir(dir string, reg *calculator.Registry) ([]*Operation, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.lua"))
	if err != nil {
		return nil, fmt.Errorf("listing scripts in %s: %w", dir, err)
	}
	sort.Strings(paths)

	var ops []*Operation
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			CloseAll(ops)
			return nil, fmt.Errorf("reading script: %w", err)
		}

		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		op, err := New(stem, string(src))
		if err != nil {
			CloseAll(ops)
			return nil, err
		}
		if err := reg.Register(stem, func() calculator.Operation { return op }); err != nil {
			op.Close()
			CloseAll(ops)
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// CloseAll closes every operation.
func CloseAll(ops []*Operation) {
	for _, op := range ops {
		op.Close()
	}
}
