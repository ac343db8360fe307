package modules

import (
	"fmt"
	"time"
)

// XSSStored implements the xss_stored vulnerability module
type XSSStored struct{}

// init registers the module
func init() {
	Register(&XSSStored{})
}

// Info returns module metadata
func (m *XSSStored) Info() ModuleInfo {
	return ModuleInfo{
		Name:         "xss_stored",
		Key:          "comment",
		Description:  "Comment board storing and listing comments without encoding",
		MatchEmpty:   true,
		RequiresSink: "sqlite",
	}
}

// Handle stores a non-empty comment or lists all comments for an empty one
func (m *XSSStored) Handle(ctx *HandlerContext) (*Result, error) {
	if ctx.Sinks == nil || ctx.Sinks.SQLite == nil {
		return nil, fmt.Errorf("SQLite sink not available")
	}

	if ctx.Input == "" {
		rows, err := ctx.Sinks.SQLite.Query("SELECT id, comment, time FROM comments")
		if err != nil {
			return nil, err
		}
		content := TableWithHeader([]string{"id", "comment", "time"}, rows.Values)
		return NewResult(ctx.Page.Document(content)), nil
	}

	statement := fmt.Sprintf("INSERT INTO comments VALUES(NULL, '%s', '%s')", ctx.Input, time.Now().Format(time.ANSIC))
	if err := ctx.Sinks.SQLite.Exec(statement); err != nil {
		return nil, err
	}

	return NewResult(ctx.Page.Document("Thank you for leaving the comment. Please click <a href=\"/?comment=\">here</a> to see all comments")), nil
}
