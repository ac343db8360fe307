package modules

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// FileAccess implements the file_access vulnerability module
type FileAccess struct{}

// init registers the module
func init() {
	Register(&FileAccess{})
}

// Info returns module metadata
func (m *FileAccess) Info() ModuleInfo {
	return ModuleInfo{
		Name:         "file_access",
		Key:          "path",
		Description:  "Local file read or remote fetch of an unvalidated path or URL",
		RequiresSink: "filesystem",
	}
}

// Handle reads the local file or fetches the URL and renders it as text
func (m *FileAccess) Handle(ctx *HandlerContext) (*Result, error) {
	content, err := readResource(ctx.Sinks, ctx.Input)
	if err != nil {
		return nil, err
	}
	return NewResult(content), nil
}

// readResource loads a path or URL as text. Values containing "://" go through the HTTP sink.
func readResource(sinks *SinkContext, location string) (string, error) {
	if sinks == nil {
		return "", fmt.Errorf("no sinks available")
	}

	if strings.Contains(location, "://") {
		if sinks.HTTP == nil {
			return "", fmt.Errorf("HTTP sink not available")
		}
		resp, err := sinks.HTTP.Fetch(location)
		if err != nil {
			return "", err
		}
		return resp.Body, nil
	}

	if sinks.Filesystem == nil {
		return "", fmt.Errorf("Filesystem sink not available")
	}
	raw, err := sinks.Filesystem.Read(location)
	if err != nil {
		return "", err
	}
	return decodeText(raw)
}

// decodeText sniffs the encoding of raw bytes and converts them to UTF-8
func decodeText(raw []byte) (string, error) {
	encoding, _, _ := charset.DetermineEncoding(raw, "")
	decoded, err := io.ReadAll(encoding.NewDecoder().Reader(bytes.NewReader(raw)))
	if err != nil {
		return "", fmt.Errorf("failed to decode content: %w", err)
	}
	return string(decoded), nil
}
