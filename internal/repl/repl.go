package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"decimal-calculator/internal/calculator"
	"decimal-calculator/internal/observability"
)

// tracer is the calculator's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("calculator")

// errInputClosed ends the session: stdin reached EOF or ctx was cancelled.
var errInputClosed = errors.New("input closed")

// errInterrupted abandons the command in progress; the session continues.
var errInterrupted = errors.New("interrupted")

// Option configures a REPL.
type Option func(*REPL)

// WithPrecision rounds displayed results to places decimal places.
func WithPrecision(places int32) Option {
	return func(r *REPL) { r.precision = places }
}

// WithColor toggles ANSI colours.
func WithColor(enabled bool) Option {
	return func(r *REPL) { r.color = enabled }
}

// WithInterrupts cancels the command in progress whenever a signal arrives on
// ch, typically fed by signal.Notify for os.Interrupt.
func WithInterrupts(ch <-chan os.Signal) Option {
	return func(r *REPL) { r.interrupts = ch }
}

// REPL reads commands and operands line by line and drives a Calculator.
type REPL struct {
	calc     *calculator.Calculator
	registry *calculator.Registry
	out      io.Writer
	lines    <-chan string

	interrupts <-chan os.Signal
	done       chan struct{}
	closeOnce  sync.Once

	precision int32
	color     bool
}

// New returns a REPL reading from in and writing to out.
func New(calc *calculator.Calculator, registry *calculator.Registry, in io.Reader, out io.Writer, opts ...Option) *REPL {
	done := make(chan struct{})
	r := &REPL{
		calc:      calc,
		registry:  registry,
		out:       out,
		lines:     scanLines(in, done),
		done:      done,
		precision: 10,
		color:     true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// scanLines feeds lines from in to a channel so reads can be abandoned when
// the session context is cancelled. The channel closes at EOF. The goroutine
// stops once done is closed, except while blocked reading in.
func scanLines(in io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}

func (r *REPL) close() {
	r.closeOnce.Do(func() { close(r.done) })
}

// Run processes commands until exit, EOF or ctx cancellation. An interrupt
// abandons the current command and returns to the command prompt.
func (r *REPL) Run(ctx context.Context) error {
	defer r.close()

	ctx = observability.ContextWithSessionID(ctx, observability.NewSessionID())
	logger := observability.LoggerWithTrace(ctx)
	logger.Info("calculator session started")
	defer logger.Info("calculator session ended")

	r.println(r.info("Calculator started. Type 'help' for commands."))

	for {
		line, err := r.readLine(ctx, "\nEnter command: ")
		exit := false
		if err == nil {
			exit, err = r.execute(ctx, strings.ToLower(strings.TrimSpace(line)))
		}
		switch {
		case errors.Is(err, errInterrupted):
			logger.Debug("command interrupted")
			r.println("\n" + r.notice("Operation cancelled"))
		case errors.Is(err, errInputClosed):
			r.println("\n" + r.info("Input terminated. Exiting..."))
			return nil
		case exit:
			return nil
		}
	}
}

func (r *REPL) readLine(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	select {
	case <-ctx.Done():
		return "", errInputClosed
	case <-r.interrupts:
		return "", errInterrupted
	case line, ok := <-r.lines:
		if !ok {
			return "", errInputClosed
		}
		return line, nil
	}
}

func (r *REPL) println(s string) {
	fmt.Fprintln(r.out, s)
}

// execute runs one command. It reports whether the session should end.
func (r *REPL) execute(ctx context.Context, command string) (bool, error) {
	if command == "" {
		return false, nil
	}

	known := isSessionCommand(command) || r.registry.Has(command)
	if !known {
		r.println(r.failure(fmt.Sprintf("Unknown command: '%s'. Type 'help' for available commands.", command)))
		return false, nil
	}

	ctx, span := tracer.Start(ctx, "calculator."+command,
		trace.WithAttributes(
			attribute.String("calculator.command", command),
			attribute.String("session.id", observability.SessionIDFromContext(ctx)),
		),
	)
	defer span.End()

	switch command {
	case "help":
		r.printHelp()
	case "exit":
		r.exit(ctx, span)
		return true, nil
	case "history":
		r.showHistory()
	case "clear":
		r.calc.ClearHistory()
		r.println(r.notice("History cleared"))
	case "undo":
		if r.calc.Undo() {
			r.println(r.notice("Operation undone"))
		} else {
			r.println(r.notice("Nothing to undo"))
		}
	case "redo":
		if r.calc.Redo() {
			r.println(r.notice("Operation redone"))
		} else {
			r.println(r.notice("Nothing to redo"))
		}
	case "save":
		if err := r.calc.SaveHistory(); err != nil {
			r.fail(ctx, span, command, "saving history failed", err)
			r.println(r.failure("Error saving history: " + err.Error()))
		} else {
			r.println(r.notice("History saved successfully"))
		}
	case "load":
		if err := r.calc.LoadHistory(); err != nil {
			r.fail(ctx, span, command, "loading history failed", err)
			r.println(r.failure("Error loading history: " + err.Error()))
		} else {
			r.println(r.notice("History loaded successfully"))
		}
	default:
		return false, r.calculate(ctx, span, command)
	}
	return false, nil
}

func isSessionCommand(command string) bool {
	switch command {
	case "help", "exit", "history", "clear", "undo", "redo", "save", "load":
		return true
	}
	return false
}

func (r *REPL) exit(ctx context.Context, span trace.Span) {
	if err := r.calc.SaveHistory(); err != nil {
		r.fail(ctx, span, "exit", "saving history on exit failed", err)
		r.println(r.failure("Warning: Could not save history: " + err.Error()))
	} else {
		r.println(r.notice("History saved successfully."))
	}
	r.println(r.info("Goodbye!"))
}

func (r *REPL) showHistory() {
	lines := r.calc.ShowHistory()
	if len(lines) == 0 {
		r.println(r.notice("No calculations in history"))
		return
	}
	r.println("\nCalculation History:")
	for i, line := range lines {
		r.println(fmt.Sprintf("%d. %s", i+1, line))
	}
}

// calculate prompts for two operands and runs the named operation.
func (r *REPL) calculate(ctx context.Context, span trace.Span, opName string) error {
	logger := observability.LoggerWithTrace(ctx)

	r.println("\nEnter numbers (or 'cancel' to abort):")
	a, err := r.readLine(ctx, "First number: ")
	if err != nil {
		return err
	}
	if isCancel(a) {
		r.println(r.notice("Operation cancelled"))
		return nil
	}
	b, err := r.readLine(ctx, "Second number: ")
	if err != nil {
		return err
	}
	if isCancel(b) {
		r.println(r.notice("Operation cancelled"))
		return nil
	}

	op, err := r.registry.Create(opName)
	if err != nil {
		r.fail(ctx, span, opName, "unknown operation", err)
		r.println(r.failure("Error: " + err.Error()))
		return nil
	}
	r.calc.SetOperation(op)

	span.SetAttributes(
		attribute.String("calculator.operand.a", a),
		attribute.String("calculator.operand.b", b),
	)

	start := time.Now()
	result, err := r.calc.PerformOperation(a, b)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0 // ms

	attrs := metric.WithAttributes(attribute.String("operation", opName))
	calculator.DurationHistogram().Record(ctx, elapsed, attrs)

	if err != nil {
		if calculator.IsValidationError(err) || calculator.IsOperationError(err) {
			r.fail(ctx, span, opName, "calculation rejected", err)
			r.println(r.failure("Error: " + err.Error()))
		} else {
			r.fail(ctx, span, opName, "calculation failed", err)
			r.println(r.failure("Unexpected error: " + err.Error()))
		}
		return nil
	}

	shown := r.format(result)
	span.AddEvent("computation.complete", trace.WithAttributes(
		attribute.String("result", shown),
		attribute.Float64("duration_ms", elapsed),
	))
	span.SetAttributes(attribute.String("calculator.result", shown))
	span.SetStatus(codes.Ok, "")

	logger.Debug("calculator command completed",
		zap.String("operation", opName),
		zap.String("result", shown),
		zap.Float64("duration_ms", elapsed),
	)

	r.println("\nResult: " + r.success(shown))
	return nil
}

func (r *REPL) fail(ctx context.Context, span trace.Span, opName, msg string, err error) {
	observability.RecordError(ctx, span, observability.LoggerWithTrace(ctx), calculator.ErrorCounter(), opName, msg, err)
}

// format rounds to the display precision and drops trailing zeros.
func (r *REPL) format(d decimal.Decimal) string {
	return d.Round(r.precision).String()
}

func isCancel(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "cancel")
}
