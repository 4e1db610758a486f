package sandbox

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
)

// ErrBusy is returned when a run is requested while one is outstanding.
// Callers treat it as a no-op.
var ErrBusy = errors.New("sandbox: run already in progress")

// Params configures a single execution. The secret is bound per run and is
// never stored on the engine.
type Params struct {
	Secret  int
	Timeout time.Duration
}

// Result is the execution contract: captured output, whether the helper was
// called with the secret, and a runtime-level error if the interpreter
// itself failed. User exceptions land in Output, never in Err.
type Result struct {
	Correct bool
	Output  string
	Err     string
}

// Engine executes user code in an embedded JavaScript interpreter. One
// engine serves one mounted sandbox component; each run gets a fresh
// isolated VM with its own binding table.
type Engine struct {
	running atomic.Bool
}

var ensureEngine = sync.OnceValues(func() (*Engine, error) {
	// Canary run: if the interpreter cannot evaluate a trivial program the
	// sandbox is reported unavailable instead of failing on first use.
	vm := goja.New()
	if _, err := vm.RunString("1 + 1"); err != nil {
		return nil, err
	}
	return &Engine{}, nil
})

// Ensure returns the process-wide sandbox engine, loading it on first call.
// Repeated calls share the one load; a load failure is sticky.
func Ensure() (*Engine, error) {
	return ensureEngine()
}

// Execute runs user code against a fresh VM. The checkAnswer helper returns
// true if and only if its argument equals the secret; it records a correct
// guess without ever exposing the secret's value to user code. All print and
// console.log output is captured in order. User exceptions are captured into
// the output, never propagated.
func (e *Engine) Execute(ctx context.Context, code string, params Params) (Result, error) {
	if !e.running.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer e.running.Store(false)

	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	vm := goja.New()
	vm.SetMaxCallStackSize(1024)

	var out strings.Builder
	correct := false
	secret := params.Secret

	printFn := func(call goja.FunctionCall) goja.Value {
		for i, arg := range call.Arguments {
			if i > 0 {
				out.WriteString(" ")
			}
			out.WriteString(arg.String())
		}
		out.WriteString("\n")
		return goja.Undefined()
	}
	vm.Set("print", printFn)
	console := vm.NewObject()
	console.Set("log", printFn)
	console.Set("error", printFn)
	console.Set("warn", printFn)
	vm.Set("console", console)

	vm.Set("checkAnswer", func(call goja.FunctionCall) goja.Value {
		candidate := call.Argument(0).ToInteger()
		if candidate == int64(secret) {
			correct = true
			return vm.ToValue(true)
		}
		return vm.ToValue(false)
	})

	done := make(chan struct{})
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	go func() {
		select {
		case <-timer.C:
			vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			vm.Interrupt("run cancelled")
		case <-done:
		}
	}()

	_, err := vm.RunString(code)
	close(done)

	res := Result{Correct: correct, Output: out.String()}
	if err != nil {
		var exc *goja.Exception
		var interrupted *goja.InterruptedError
		switch {
		case errors.As(err, &exc):
			// Script-level failure: rendered as program output, same as a
			// printed traceback.
			res.Output += exc.String() + "\n"
		case errors.As(err, &interrupted):
			res.Err = interrupted.String()
		default:
			res.Err = err.Error()
		}
	}
	return res, nil
}

// DefaultSnippet pre-fills the editor with an efficient brute-force loop.
const DefaultSnippet = `// Example: brute-force using checkAnswer(i)
for (let i = 1; i <= 10000; i++) {
    if (checkAnswer(i)) {
        print("Answer found! The value is: " + i);
        break;
    }
}
print("Loop finished (or answer found)");
`
