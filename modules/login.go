package modules

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

const sessionAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const sessionLength = 20

// ExpiredSessionCookie clears the session cookie
const ExpiredSessionCookie = "SESSIONID=; path=/; expires=Thu, 01 Jan 1970 00:00:00 GMT"

var nonWord = regexp.MustCompile(`[^\w]`)

// Login implements the login vulnerability module
type Login struct{}

// init registers the module
func init() {
	Register(&Login{})
}

// Info returns module metadata
func (m *Login) Info() ModuleInfo {
	return ModuleInfo{
		Name:         "login",
		Path:         "/login",
		Description:  "Login form with the password concatenated into the credential query",
		RequiresSink: "sqlite",
	}
}

// Handle checks the credentials and sets or clears the session cookie
func (m *Login) Handle(ctx *HandlerContext) (*Result, error) {
	if ctx.Sinks == nil || ctx.Sinks.SQLite == nil {
		return nil, fmt.Errorf("SQLite sink not available")
	}

	username := nonWord.ReplaceAllString(ctx.Params.Get("username"), "")
	password := ctx.Params.Get("password")

	query := fmt.Sprintf("SELECT * FROM users WHERE username='%s' AND password='%s'", username, password)
	rows, err := ctx.Sinks.SQLite.Query(query)
	if err != nil {
		return nil, err
	}

	if len(rows.Values) == 0 {
		content := fmt.Sprintf("<meta http-equiv=\"Set-Cookie\" content=\"%s\">The username and/or password is incorrect", ExpiredSessionCookie)
		return NewResult(ctx.Page.Document(content)).WithHeader("Set-Cookie", ExpiredSessionCookie), nil
	}

	token, err := sessionToken()
	if err != nil {
		return nil, err
	}

	cookie := fmt.Sprintf("SESSIONID=%s; path=/", token)
	content := fmt.Sprintf("Welcome <b>%s</b><meta http-equiv=\"Set-Cookie\" content=\"%s\"><meta http-equiv=\"refresh\" content=\"1; url=/\"/>", username, cookie)
	return NewResult(ctx.Page.Document(content)).WithHeader("Set-Cookie", cookie), nil
}

// sessionToken returns a random alphanumeric session identifier
func sessionToken() (string, error) {
	limit := big.NewInt(int64(len(sessionAlphabet)))
	token := make([]byte, sessionLength)
	for i := range token {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate session token: %w", err)
		}
		token[i] = sessionAlphabet[n.Int64()]
	}
	return string(token), nil
}
