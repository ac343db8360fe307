package modules

import (
	"fmt"
	"strings"
)

// OpenRedirect implements the open_redirect vulnerability module
type OpenRedirect struct{}

// init registers the module
func init() {
	Register(&OpenRedirect{})
}

// Info returns module metadata
func (m *OpenRedirect) Info() ModuleInfo {
	return ModuleInfo{
		Name:        "open_redirect",
		Key:         "redir",
		Description: "Meta refresh to an unvalidated target",
	}
}

// Handle injects the target into a meta refresh in the page head
func (m *OpenRedirect) Handle(ctx *HandlerContext) (*Result, error) {
	meta := fmt.Sprintf("<head><meta http-equiv=\"refresh\" content=\"0; url=%s\"/>", ctx.Input)
	return NewResult(strings.Replace(ctx.Page.Prefix(), "<head>", meta, 1)), nil
}
