package modules

import (
	"encoding/json"
	"fmt"
)

// JSONP implements the jsonp vulnerability module
type JSONP struct{}

// init registers the module
func init() {
	Register(&JSONP{})
}

// Info returns module metadata
func (m *JSONP) Info() ModuleInfo {
	return ModuleInfo{
		Name:        "jsonp",
		Path:        "/users.json",
		Description: "User surname export with an unvalidated JSONP callback",
	}
}

// Handle renders the username to surname map, wrapped in the callback when given
func (m *JSONP) Handle(ctx *HandlerContext) (*Result, error) {
	if ctx.Dataset == nil {
		return nil, fmt.Errorf("dataset not available")
	}

	data, err := json.Marshal(ctx.Dataset.Surnames())
	if err != nil {
		return nil, fmt.Errorf("failed to encode users: %w", err)
	}

	if callback, ok := ctx.Params.Lookup("callback"); ok {
		return NewResult(fmt.Sprintf("%s(%s)", callback, data)), nil
	}
	return NewResult(string(data)), nil
}
