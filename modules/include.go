package modules

import (
	"fmt"
	"net"
	"strconv"
)

// CodeExecution implements the code_execution vulnerability module
type CodeExecution struct{}

// init registers the module
func init() {
	Register(&CodeExecution{})
}

// Info returns module metadata
func (m *CodeExecution) Info() ModuleInfo {
	return ModuleInfo{
		Name:         "code_execution",
		Key:          "include",
		Description:  "Local or remote script inclusion executed with request variables",
		RequiresSink: "script",
	}
}

// Handle loads the script, runs it and renders what it printed
func (m *CodeExecution) Handle(ctx *HandlerContext) (*Result, error) {
	if ctx.Sinks == nil || ctx.Sinks.Script == nil {
		return nil, fmt.Errorf("Script sink not available")
	}

	program, err := readResource(ctx.Sinks, ctx.Input)
	if err != nil {
		return nil, err
	}

	output, err := ctx.Sinks.Script.Run(program, requestGlobals(ctx))
	if err != nil {
		return nil, err
	}

	result := NewResult(ctx.Page.Document(output))
	result.Index = true
	return result, nil
}

// requestGlobals exposes request details to included scripts
func requestGlobals(ctx *HandlerContext) map[string]interface{} {
	globals := map[string]interface{}{
		"DOCUMENT_ROOT":   "",
		"HTTP_USER_AGENT": "",
		"REMOTE_ADDR":     "",
		"REMOTE_PORT":     0,
		"PATH":            "",
		"QUERY_STRING":    "",
	}

	if ctx.Sinks != nil && ctx.Sinks.Filesystem != nil {
		globals["DOCUMENT_ROOT"] = ctx.Sinks.Filesystem.BasePath()
	}

	r := ctx.Request
	if r == nil {
		return globals
	}

	globals["HTTP_USER_AGENT"] = r.UserAgent()
	globals["PATH"] = r.URL.EscapedPath()
	globals["QUERY_STRING"] = r.URL.RawQuery

	host, port, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		globals["REMOTE_ADDR"] = r.RemoteAddr
		return globals
	}
	globals["REMOTE_ADDR"] = host
	if n, err := strconv.Atoi(port); err == nil {
		globals["REMOTE_PORT"] = n
	}

	return globals
}
