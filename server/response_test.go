package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/RIZZZIOM/TinyFlaw/catalog"
	"github.com/RIZZZIOM/TinyFlaw/modules"
)

type outputError struct {
	output string
}

func (e *outputError) Error() string          { return "exit status 1" }
func (e *outputError) CombinedOutput() string { return e.output }

func newTestComposer(xml bool) *Composer {
	return NewComposer(modules.NewPage("TinyFlaw", "0.2b"), catalog.New("http://127.0.0.1:65412"), xml)
}

// TestComposer_ContentType tests content type selection and charset
func TestComposer_ContentType(t *testing.T) {
	c := newTestComposer(true)

	tests := []struct {
		name     string
		content  string
		params   modules.Params
		expected string
	}{
		{"html", modules.DocumentMarker + "<p>x</p>", nil, "text/html; charset=utf-8"},
		{"plain", "uid=0(root)", nil, "text/plain; charset=utf-8"},
		{"charset param", "x", modules.Params{"charset": "iso-8859-1"}, "text/plain; charset=iso-8859-1"},
		{"unvalidated charset", "x", modules.Params{"charset": "nonsense"}, "text/plain; charset=nonsense"},
		{"empty charset", "x", modules.Params{"charset": ""}, "text/plain; charset=utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := c.Compose(tt.params, modules.NewResult(tt.content), nil)
			if got := resp.Header("Content-Type"); got != tt.expected {
				t.Errorf("Expected Content-Type '%s', got '%s'", tt.expected, got)
			}
			if resp.StatusCode != http.StatusOK {
				t.Errorf("Expected status 200, got %d", resp.StatusCode)
			}
		})
	}
}

// TestComposer_FixedHeaders tests the headers present on every response
func TestComposer_FixedHeaders(t *testing.T) {
	c := newTestComposer(true)

	result := modules.NewResult("x").WithHeader("Set-Cookie", "SESSIONID=abc; path=/")
	for _, resp := range []*Response{
		c.Compose(nil, result, nil),
		c.Status(nil, http.StatusNotFound),
		c.Compose(nil, nil, &Failure{Handler: "h", Err: errors.New("boom")}),
	} {
		if resp.Header("Connection") != "close" {
			t.Error("Expected Connection: close")
		}
		if resp.Header("X-XSS-Protection") != "0" {
			t.Error("Expected X-XSS-Protection: 0")
		}
		if resp.Header("Server") != "TinyFlaw/0.2b" {
			t.Errorf("Unexpected Server header '%s'", resp.Header("Server"))
		}
		if resp.Header("Date") == "" {
			t.Error("Expected Date header")
		}
	}

	resp := c.Compose(nil, result, nil)
	if resp.Header("Set-Cookie") != "SESSIONID=abc; path=/" {
		t.Error("Expected module header to be appended")
	}
}

// TestComposer_Postfix tests appending the footer to page content
func TestComposer_Postfix(t *testing.T) {
	page := modules.NewPage("TinyFlaw", "0.2b")
	c := NewComposer(page, nil, true)

	resp := c.Compose(nil, modules.NewResult(page.Document("body")), nil)
	if resp.Body != page.Prefix()+"body"+page.Postfix() {
		t.Errorf("Expected postfix to be appended, got '%s'", resp.Body)
	}

	complete := page.Prefix() + page.PostfixWithVersion("x")
	if resp := c.Compose(nil, modules.NewResult(complete), nil); resp.Body != complete {
		t.Error("Expected complete page to stay unchanged")
	}

	if resp := c.Compose(nil, modules.NewResult("plain"), nil); resp.Body != "plain" {
		t.Error("Expected plain content to stay unchanged")
	}
}

// TestComposer_Index tests catalog rendering
func TestComposer_Index(t *testing.T) {
	index := &modules.Result{Content: modules.NewPage("TinyFlaw", "0.2b").Prefix(), Index: true}

	enabled := newTestComposer(true).Compose(nil, index, nil)
	if !strings.Contains(enabled.Body, "<span>Attacks:</span>") {
		t.Error("Expected catalog on the index page")
	}
	if strings.Contains(enabled.Body, `class="disabled"`) {
		t.Error("Expected no disabled entries with XML enabled")
	}
	if !strings.HasSuffix(enabled.Body, modules.PostfixSignature) {
		t.Error("Expected postfix after the catalog")
	}

	disabled := newTestComposer(false).Compose(nil, index, nil)
	if strings.Count(disabled.Body, `class="disabled"`) != 3 {
		t.Error("Expected XML entries to be disabled")
	}

	closed := &modules.Result{Content: index.Content + "</html>", Index: true}
	if resp := newTestComposer(true).Compose(nil, closed, nil); strings.Contains(resp.Body, "Attacks:") {
		t.Error("Expected no catalog after a closed document")
	}
}

// TestComposer_Status tests bare status pages
func TestComposer_Status(t *testing.T) {
	c := newTestComposer(true)

	resp := c.Status(nil, http.StatusNotFound)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
	if strings.Contains(resp.Body, "Attacks:") {
		t.Error("Expected no catalog on a 404 page")
	}
	if !strings.HasPrefix(resp.Body, modules.DocumentMarker) || !strings.HasSuffix(resp.Body, modules.PostfixSignature) {
		t.Error("Expected the page wrapper")
	}
}

// TestComposer_Failure tests trace rendering
func TestComposer_Failure(t *testing.T) {
	c := newTestComposer(true)

	root := errors.New("strconv.Atoi: parsing \"abc\": invalid syntax")
	failure := &Failure{
		Handler: "resource_exhaustion",
		Err:     fmt.Errorf("invalid size: %w", root),
		Stack:   []byte("goroutine 1 [running]:"),
	}

	resp := c.Compose(nil, nil, failure)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", resp.StatusCode)
	}

	for _, want := range []string{
		"Traceback (handler resource_exhaustion)",
		"error: invalid size: strconv.Atoi",
		"caused by: strconv.Atoi",
		"goroutine 1 [running]:",
	} {
		if !strings.Contains(resp.Body, want) {
			t.Errorf("Expected %q in trace:\n%s", want, resp.Body)
		}
	}
	if resp.Header("Content-Type") != "text/plain; charset=utf-8" {
		t.Errorf("Unexpected content type '%s'", resp.Header("Content-Type"))
	}
}

// TestComposer_CombinedOutput tests that command output replaces the trace
func TestComposer_CombinedOutput(t *testing.T) {
	c := newTestComposer(true)

	failure := &Failure{
		Handler: "command_injection",
		Err:     fmt.Errorf("wrapped: %w", &outputError{output: "** server can't find x: NXDOMAIN\n"}),
	}

	resp := c.Compose(nil, nil, failure)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", resp.StatusCode)
	}
	if resp.Body != "** server can't find x: NXDOMAIN\n" {
		t.Errorf("Expected captured output, got '%s'", resp.Body)
	}
}

// TestWriteResponse_Standard tests the fallback writer
func TestWriteResponse_Standard(t *testing.T) {
	c := newTestComposer(true)
	resp := c.Compose(nil, modules.NewResult("hello").WithHeader("Set-Cookie", "a=1"), nil)

	rec := httptest.NewRecorder()
	n, err := WriteResponse(rec, resp)
	if err != nil {
		t.Fatalf("WriteResponse failed: %v", err)
	}

	if n != 5 || rec.Body.String() != "hello" {
		t.Errorf("Unexpected body %q (%d bytes)", rec.Body.String(), n)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Set-Cookie") != "a=1" {
		t.Error("Expected Set-Cookie header")
	}
	if rec.Header().Get("X-XSS-Protection") != "0" {
		t.Error("Expected X-XSS-Protection header")
	}
}
