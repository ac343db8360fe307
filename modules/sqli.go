package modules

import (
	"fmt"
)

// SQLInjection implements the sql_injection vulnerability module
type SQLInjection struct{}

// init registers the module
func init() {
	Register(&SQLInjection{})
}

// Info returns module metadata
func (m *SQLInjection) Info() ModuleInfo {
	return ModuleInfo{
		Name:         "sql_injection",
		Key:          "id",
		Description:  "User lookup with the id concatenated into the WHERE clause",
		RequiresSink: "sqlite",
	}
}

// Handle runs the composed query and renders the matching users
func (m *SQLInjection) Handle(ctx *HandlerContext) (*Result, error) {
	if ctx.Sinks == nil || ctx.Sinks.SQLite == nil {
		return nil, fmt.Errorf("SQLite sink not available")
	}

	query := "SELECT id, username, name, surname FROM users WHERE id=" + ctx.Input

	rows, err := ctx.Sinks.SQLite.Query(query)
	if err != nil {
		return nil, err
	}

	content := ctx.Page.Document(TableWithHeader([]string{"id", "username", "name", "surname"}, rows.Values))
	return NewResult(content), nil
}
