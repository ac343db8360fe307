package sinks

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"
)

// Script executes externally supplied JavaScript with injected globals and
// captures what it prints. Each Run gets a fresh runtime.
//
// This is the only place in the program that evaluates untrusted code.
type Script struct {
	command *Command
}

// NewScript creates a script sink. If command is non-nil, scripts get a
// system(cmd) builtin that runs through it.
func NewScript(command *Command) *Script {
	return &Script{command: command}
}

// Close is a no-op for the script sink
func (s *Script) Close() error {
	return nil
}

// Run evaluates program with globals defined and returns everything it printed.
// Output written before a failure is discarded along with the error.
func (s *Script) Run(program string, globals map[string]interface{}) (string, error) {
	vm := goja.New()
	out := &output{}

	if err := s.installBuiltins(vm, out); err != nil {
		return "", err
	}

	for name, value := range globals {
		if err := vm.Set(name, value); err != nil {
			return "", fmt.Errorf("failed to set global %s: %w", name, err)
		}
	}

	if _, err := vm.RunString(program); err != nil {
		return "", fmt.Errorf("script error: %w", err)
	}

	return out.String(), nil
}

// Eval evaluates a single expression and returns its exported value
func (s *Script) Eval(expression string) (interface{}, error) {
	vm := goja.New()
	out := &output{}

	if err := s.installBuiltins(vm, out); err != nil {
		return nil, err
	}

	value, err := vm.RunString(expression)
	if err != nil {
		return nil, fmt.Errorf("script error: %w", err)
	}

	if goja.IsUndefined(value) || goja.IsNull(value) {
		return out.String(), nil
	}
	return value.Export(), nil
}

// installBuiltins wires print/echo/console.log to out and system to the command sink
func (s *Script) installBuiltins(vm *goja.Runtime, out *output) error {
	printLine := func(call goja.FunctionCall) goja.Value {
		out.WriteString(joinArgs(call.Arguments) + "\n")
		return goja.Undefined()
	}

	if err := vm.Set("print", printLine); err != nil {
		return fmt.Errorf("failed to install print: %w", err)
	}

	if err := vm.Set("echo", func(call goja.FunctionCall) goja.Value {
		out.WriteString(joinArgs(call.Arguments))
		return goja.Undefined()
	}); err != nil {
		return fmt.Errorf("failed to install echo: %w", err)
	}

	console := vm.NewObject()
	if err := console.Set("log", printLine); err != nil {
		return fmt.Errorf("failed to install console.log: %w", err)
	}
	if err := vm.Set("console", console); err != nil {
		return fmt.Errorf("failed to install console: %w", err)
	}

	if s.command != nil {
		if err := vm.Set("system", func(command string) string {
			// a failing command still hands its output back to the script
			output, _ := s.command.Execute(command)
			return output
		}); err != nil {
			return fmt.Errorf("failed to install system: %w", err)
		}
	}

	return nil
}

func joinArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	return strings.Join(parts, " ")
}

// output collects printed text
type output struct {
	sb strings.Builder
}

func (o *output) WriteString(s string) {
	o.sb.WriteString(s)
}

func (o *output) String() string {
	return o.sb.String()
}
