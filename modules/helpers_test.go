package modules

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/RIZZZIOM/TinyFlaw/dataset"
)

// fakeSQLite records statements and returns canned rows
type fakeSQLite struct {
	queries []string
	execs   []string
	rows    *Rows
	err     error
}

func (f *fakeSQLite) Query(query string) (*Rows, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if f.rows == nil {
		return &Rows{}, nil
	}
	return f.rows, nil
}

func (f *fakeSQLite) Exec(statement string) error {
	f.execs = append(f.execs, statement)
	return f.err
}

// fakeCommand records commands and returns canned output
type fakeCommand struct {
	commands []string
	output   string
	err      error
}

func (f *fakeCommand) Execute(command string) (string, error) {
	f.commands = append(f.commands, command)
	return f.output, f.err
}

// fakeFilesystem serves files from a map
type fakeFilesystem struct {
	root  string
	files map[string]string
}

func (f *fakeFilesystem) Read(path string) ([]byte, error) {
	content, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("failed to read %s: no such file or directory", path)
	}
	return []byte(content), nil
}

func (f *fakeFilesystem) BasePath() string {
	return f.root
}

// fakeHTTP serves URLs from a map
type fakeHTTP struct {
	pages map[string]string
}

func (f *fakeHTTP) Fetch(url string) (*HTTPResponse, error) {
	body, ok := f.pages[url]
	if !ok {
		return nil, fmt.Errorf("HTTP Error 404: Not Found")
	}
	return &HTTPResponse{StatusCode: 200, Body: body}, nil
}

// fakeScript echoes the program and keeps the globals it was given
type fakeScript struct {
	programs []string
	globals  map[string]interface{}
	value    interface{}
	err      error
}

func (f *fakeScript) Run(program string, globals map[string]interface{}) (string, error) {
	f.programs = append(f.programs, program)
	f.globals = globals
	if f.err != nil {
		return "", f.err
	}
	return "ran:" + program, nil
}

func (f *fakeScript) Eval(expression string) (interface{}, error) {
	f.programs = append(f.programs, expression)
	return f.value, f.err
}

// newTestContext builds a handler context for a request to target
func newTestContext(t *testing.T, target string, params Params, input string) *HandlerContext {
	t.Helper()

	data, err := dataset.Default()
	if err != nil {
		t.Fatalf("Failed to load dataset: %v", err)
	}

	return &HandlerContext{
		Request: httptest.NewRequest("GET", target, nil),
		Params:  params,
		Input:   input,
		Page:    NewPage("TinyFlaw", ""),
		Dataset: data,
		Sinks:   &SinkContext{},
		Options: Options{XML: true, LookupCommand: DefaultLookupCommand},
	}
}
