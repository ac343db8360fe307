package modules

import (
	"net/http"

	"github.com/RIZZZIOM/TinyFlaw/dataset"
)

// Module defines the interface that all vulnerability modules must implement
type Module interface {
	// Info returns metadata about the module
	Info() ModuleInfo

	// Handle processes a request and returns the result
	Handle(ctx *HandlerContext) (*Result, error)
}

// ModuleInfo contains metadata about a vulnerability module
type ModuleInfo struct {
	// Name is the unique identifier for this module (e.g., "sql_injection")
	Name string

	// Key is the query parameter that triggers the module on "/"
	Key string

	// Path is the request path served by the module, for modules without a Key
	Path string

	// Description is a human-readable description
	Description string

	// MatchEmpty makes the key match even when its value is empty
	MatchEmpty bool

	// RequiresSink indicates what type of sink this module needs (empty if none)
	RequiresSink string
}

// HandlerContext provides all the context needed by a module to handle a request
type HandlerContext struct {
	// Request is the original HTTP request
	Request *http.Request

	// Params is the parsed query string
	Params Params

	// Input is the value of the parameter that selected the module
	Input string

	// Page renders the surrounding HTML document
	Page *Page

	// Dataset is the seed data loaded at startup
	Dataset *dataset.Dataset

	// Sinks provides access to the available sinks
	Sinks *SinkContext

	// Options carries runtime settings shared by all modules
	Options Options
}

// Options are the runtime settings modules consult
type Options struct {
	// XML enables the XML-based modules
	XML bool

	// LookupCommand is the external command the command_injection module runs
	LookupCommand string
}

// SinkContext holds references to available sinks
type SinkContext struct {
	// SQLite provides database operations
	SQLite SQLiteSink

	// Filesystem provides file operations
	Filesystem FilesystemSink

	// Command provides command execution
	Command CommandSink

	// HTTP provides outbound HTTP requests
	HTTP HTTPSink

	// Script evaluates JavaScript
	Script ScriptSink
}

// SQLiteSink interface for database operations
type SQLiteSink interface {
	// Query executes a SQL query and returns results
	Query(query string) (*Rows, error)

	// Exec executes a SQL statement
	Exec(statement string) error
}

// Rows is a column-ordered query result
type Rows struct {
	Columns []string
	Values  [][]interface{}
}

// FilesystemSink interface for file operations
type FilesystemSink interface {
	// Read reads a file, resolving relative paths against the document root
	Read(path string) ([]byte, error)

	// BasePath returns the document root
	BasePath() string
}

// CommandSink interface for command execution
type CommandSink interface {
	// Execute runs a command through the shell and returns its combined output
	Execute(command string) (string, error)
}

// HTTPSink interface for outbound HTTP requests
type HTTPSink interface {
	// Fetch makes an HTTP GET request and returns the response
	Fetch(url string) (*HTTPResponse, error)
}

// HTTPResponse represents the response from an HTTP request
type HTTPResponse struct {
	StatusCode int
	Body       string
}

// ScriptSink interface for evaluating untrusted JavaScript
type ScriptSink interface {
	// Run executes program with the given globals and returns its printed output
	Run(program string, globals map[string]interface{}) (string, error)

	// Eval evaluates an expression and returns its value
	Eval(expression string) (interface{}, error)
}

// Header is a single response header added by a module
type Header struct {
	Name  string
	Value string
}

// Result holds the output from a module handler
type Result struct {
	// Content is the response body before composition
	Content string

	// Headers are additional headers to set on the response
	Headers []Header

	// Index asks the composer to append the vulnerability catalog unless the document is already closed
	Index bool
}

// NewResult creates a new result with content
func NewResult(content string) *Result {
	return &Result{Content: content}
}

// WithHeader appends a response header and returns the result
func (r *Result) WithHeader(name, value string) *Result {
	r.Headers = append(r.Headers, Header{Name: name, Value: value})
	return r
}
