package server

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/RIZZZIOM/TinyFlaw/catalog"
	"github.com/RIZZZIOM/TinyFlaw/modules"
)

// Response is a fully composed reply, written verbatim
type Response struct {
	StatusCode int
	Headers    []modules.Header
	Body       string
}

// Header returns the first value of the named header
func (r *Response) Header(name string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// combinedOutput is implemented by errors that captured a command's output
type combinedOutput interface {
	CombinedOutput() string
}

// Failure is a handler error together with the stack where it surfaced
type Failure struct {
	Handler string
	Err     error
	Stack   []byte
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Handler, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Trace renders the failure as a diagnostic trace
func (f *Failure) Trace() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Traceback (handler %s):\n", f.Handler)
	fmt.Fprintf(&b, "error: %v\n", f.Err)
	for err := errors.Unwrap(f.Err); err != nil; err = errors.Unwrap(err) {
		fmt.Fprintf(&b, "caused by: %v\n", err)
	}
	if len(f.Stack) > 0 {
		b.WriteString("\n")
		b.Write(f.Stack)
	}
	return b.String()
}

// Composer turns handler results into responses
type Composer struct {
	page       *modules.Page
	catalog    *catalog.Catalog
	xmlEnabled bool
	server     string
	now        func() time.Time
}

// NewComposer creates a composer
func NewComposer(page *modules.Page, cat *catalog.Catalog, xmlEnabled bool) *Composer {
	return &Composer{
		page:       page,
		catalog:    cat,
		xmlEnabled: xmlEnabled,
		server:     fmt.Sprintf("%s/%s", page.Name(), page.Version()),
		now:        time.Now,
	}
}

// Compose builds the response for a handler outcome. Any failure yields a 500
// whose body is the captured command output when there is one, else a trace.
func (c *Composer) Compose(params modules.Params, result *modules.Result, failure *Failure) *Response {
	if failure != nil {
		var output combinedOutput
		if errors.As(failure.Err, &output) {
			return c.build(params, http.StatusInternalServerError, output.CombinedOutput(), nil)
		}
		return c.build(params, http.StatusInternalServerError, failure.Trace(), nil)
	}

	content := result.Content
	if result.Index && c.catalog != nil && !strings.Contains(content, modules.PostfixSignature) {
		content += c.catalog.Render(c.xmlEnabled)
	}

	return c.build(params, http.StatusOK, content, result.Headers)
}

// Status builds a bare page response for routing outcomes such as 404
func (c *Composer) Status(params modules.Params, statusCode int) *Response {
	return c.build(params, statusCode, c.page.Prefix(), nil)
}

func (c *Composer) build(params modules.Params, statusCode int, content string, extra []modules.Header) *Response {
	if strings.Contains(content, c.page.Prefix()) && !strings.Contains(content, modules.PostfixSignature) {
		content += c.page.Postfix()
	}

	contentType := "text/plain"
	if strings.HasPrefix(content, modules.DocumentMarker) {
		contentType = "text/html"
	}

	charset := "utf-8"
	if value := params.Get("charset"); value != "" {
		charset = value
	}

	headers := []modules.Header{
		{Name: "Connection", Value: "close"},
		{Name: "X-XSS-Protection", Value: "0"},
		{Name: "Content-Type", Value: contentType + "; charset=" + charset},
		{Name: "Server", Value: c.server},
		{Name: "Date", Value: c.now().UTC().Format(http.TimeFormat)},
	}
	headers = append(headers, extra...)

	return &Response{StatusCode: statusCode, Headers: headers, Body: content}
}

// WriteResponse sends resp. On a hijackable connection the status line and
// headers are written as-is and the connection is closed after the body.
func WriteResponse(w http.ResponseWriter, resp *Response) (int64, error) {
	hijacker, ok := w.(http.Hijacker)
	if !ok {
		return writeStandard(w, resp)
	}

	conn, rw, err := hijacker.Hijack()
	if err != nil {
		return writeStandard(w, resp)
	}
	defer conn.Close()

	return writeRaw(rw.Writer, resp)
}

func writeRaw(w *bufio.Writer, resp *Response) (int64, error) {
	fmt.Fprintf(w, "HTTP/1.0 %d %s\r\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	for _, h := range resp.Headers {
		fmt.Fprintf(w, "%s: %s\r\n", h.Name, h.Value)
	}
	w.WriteString("\r\n")

	n, err := w.WriteString(resp.Body)
	if err != nil {
		return int64(n), err
	}
	return int64(n), w.Flush()
}

func writeStandard(w http.ResponseWriter, resp *Response) (int64, error) {
	header := w.Header()
	for _, h := range resp.Headers {
		header.Add(h.Name, h.Value)
	}
	w.WriteHeader(resp.StatusCode)

	n, err := w.Write([]byte(resp.Body))
	return int64(n), err
}
