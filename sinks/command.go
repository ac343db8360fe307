package sinks

import (
	"bytes"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Command provides shell execution for command injection testing
type Command struct {
	shell    string
	shellArg string
}

// CommandError is returned when a command exits unsuccessfully.
// It keeps the combined output so callers can surface it verbatim.
type CommandError struct {
	Command string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// CombinedOutput returns the interleaved stdout and stderr of the failed command
func (e *CommandError) CombinedOutput() string {
	return e.Output
}

// NewCommand creates a new command sink using the platform shell
func NewCommand() *Command {
	shell := "/bin/sh"
	shellArg := "-c"

	if runtime.GOOS == "windows" {
		shell = "cmd.exe"
		shellArg = "/C"
	}

	return &Command{
		shell:    shell,
		shellArg: shellArg,
	}
}

// NewCommandWithShell creates a command sink that runs commands through the given shell
func NewCommandWithShell(shell string) *Command {
	cmd := NewCommand()
	if shell != "" {
		cmd.shell = shell
	}
	return cmd
}

// Close is a no-op for the command sink
func (c *Command) Close() error {
	return nil
}

// Shell returns the shell binary used to run commands
func (c *Command) Shell() string {
	return c.shell
}

// Execute runs a command through the shell - intentionally vulnerable.
// There is no timeout; the call blocks until the command exits.
func (c *Command) Execute(command string) (string, error) {
	cmd := exec.Command(c.shell, c.shellArg, command)

	// stdout and stderr share one buffer so the output keeps its interleaving
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.Stdin = strings.NewReader("")

	if err := cmd.Run(); err != nil {
		return output.String(), &CommandError{
			Command: command,
			Output:  output.String(),
			Err:     err,
		}
	}

	return output.String(), nil
}
