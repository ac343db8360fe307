package modules

import (
	"fmt"
)

// DefaultLookupCommand is the command the domain is appended to
const DefaultLookupCommand = "nslookup"

// CommandInjection implements the command_injection vulnerability module
type CommandInjection struct{}

// init registers the module
func init() {
	Register(&CommandInjection{})
}

// Info returns module metadata
func (m *CommandInjection) Info() ModuleInfo {
	return ModuleInfo{
		Name:         "command_injection",
		Key:          "domain",
		Description:  "Domain lookup with the domain interpolated into a shell command line",
		RequiresSink: "command",
	}
}

// Handle runs the lookup command and renders its combined output.
// A failing command returns an error carrying the captured output.
func (m *CommandInjection) Handle(ctx *HandlerContext) (*Result, error) {
	if ctx.Sinks == nil || ctx.Sinks.Command == nil {
		return nil, fmt.Errorf("Command sink not available")
	}

	lookup := ctx.Options.LookupCommand
	if lookup == "" {
		lookup = DefaultLookupCommand
	}

	output, err := ctx.Sinks.Command.Execute(lookup + " " + ctx.Input)
	if err != nil {
		return nil, err
	}

	return NewResult(output), nil
}
