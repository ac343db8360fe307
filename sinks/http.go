package sinks

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html/charset"
)

// HTTP provides outbound requests for SSRF, remote inclusion and XXE testing
type HTTP struct {
	client    *http.Client
	userAgent string
}

// HTTPResponse represents the response from an HTTP request
type HTTPResponse struct {
	StatusCode  int
	ContentType string
	Raw         []byte
	// Body is Raw decoded to UTF-8 using the declared or sniffed charset
	Body    string
	Headers map[string]string
}

// NewHTTP creates a new HTTP sink. Besides http and https it serves
// file:// URLs from the local filesystem.
func NewHTTP() *HTTP {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.RegisterProtocol("file", http.NewFileTransport(http.Dir("/")))

	return &HTTP{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: "TinyFlaw/1.0",
	}
}

// Close is a no-op for the HTTP sink
func (h *HTTP) Close() error {
	return nil
}

// SetUserAgent changes the User-Agent header
func (h *HTTP) SetUserAgent(userAgent string) {
	if userAgent != "" {
		h.userAgent = userAgent
	}
}

// Fetch makes a GET request to the specified URL - intentionally vulnerable to SSRF
func (h *HTTP) Fetch(url string) (*HTTPResponse, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("HTTP Error %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	body, err := decodeText(raw, contentType)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string)
	for key, values := range resp.Header {
		headers[key] = strings.Join(values, ", ")
	}

	return &HTTPResponse{
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Raw:         raw,
		Body:        body,
		Headers:     headers,
	}, nil
}

// decodeText converts raw bytes to UTF-8 text, using the charset from
// contentType or, failing that, one sniffed from the content
func decodeText(raw []byte, contentType string) (string, error) {
	reader, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	return string(decoded), nil
}
