package sinks

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestNewHTTP tests HTTP sink creation
func TestNewHTTP(t *testing.T) {
	sink := NewHTTP()
	if sink == nil {
		t.Fatal("Expected HTTP sink, got nil")
	}
	if sink.client.Timeout != 0 {
		t.Errorf("Expected no client timeout, got %v", sink.client.Timeout)
	}
}

// TestHTTP_Fetch tests GET request
func TestHTTP_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("Expected GET method, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("success"))
	}))
	defer server.Close()

	sink := NewHTTP()
	resp, err := sink.Fetch(server.URL)
	if err != nil {
		t.Fatalf("Failed to make GET request: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	if resp.Body != "success" {
		t.Errorf("Expected body 'success', got '%s'", resp.Body)
	}
}

// TestHTTP_Fetch_UserAgent tests the User-Agent header
func TestHTTP_Fetch_UserAgent(t *testing.T) {
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	sink := NewHTTP()
	sink.SetUserAgent("Custom/2.0")

	if _, err := sink.Fetch(server.URL); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if received != "Custom/2.0" {
		t.Errorf("Expected User-Agent 'Custom/2.0', got '%s'", received)
	}

	// an empty override keeps the current value
	sink.SetUserAgent("")
	if _, err := sink.Fetch(server.URL); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if received != "Custom/2.0" {
		t.Errorf("Expected User-Agent to stay 'Custom/2.0', got '%s'", received)
	}
}

// TestHTTP_Fetch_Charset tests decoding a non-UTF-8 body
func TestHTTP_Fetch_Charset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=iso-8859-1")
		w.Write([]byte{'c', 'a', 'f', 0xe9})
	}))
	defer server.Close()

	sink := NewHTTP()
	resp, err := sink.Fetch(server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if resp.Body != "café" {
		t.Errorf("Expected 'café', got '%s'", resp.Body)
	}

	if len(resp.Raw) != 4 {
		t.Errorf("Expected 4 raw bytes, got %d", len(resp.Raw))
	}
}

// TestHTTP_Fetch_ErrorStatus tests that 4xx/5xx responses become errors
func TestHTTP_Fetch_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	sink := NewHTTP()
	_, err := sink.Fetch(server.URL)
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}

	if !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected error to mention 404, got '%s'", err.Error())
	}
}

// TestHTTP_Fetch_Unreachable tests a connection failure
func TestHTTP_Fetch_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	sink := NewHTTP()
	if _, err := sink.Fetch(url); err == nil {
		t.Error("Expected error for unreachable server")
	}
}

// TestHTTP_Fetch_FileScheme tests reading local files through file:// URLs
func TestHTTP_Fetch_FileScheme(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.txt")
	if err := os.WriteFile(path, []byte("local content"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	sink := NewHTTP()
	resp, err := sink.Fetch("file://" + filepath.ToSlash(path))
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if resp.Body != "local content" {
		t.Errorf("Expected 'local content', got '%s'", resp.Body)
	}
}

// TestHTTP_Fetch_InvalidURL tests a malformed URL
func TestHTTP_Fetch_InvalidURL(t *testing.T) {
	sink := NewHTTP()
	if _, err := sink.Fetch("http://[::1"); err == nil {
		t.Error("Expected error for malformed URL")
	}
}
