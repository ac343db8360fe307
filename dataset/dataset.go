package dataset

import (
	_ "embed"
	"encoding/xml"
	"fmt"
	"os"
)

//go:embed users.xml
var defaultUsersXML []byte

// User is a single seeded account
type User struct {
	ID       string `xml:"id,attr"`
	Username string `xml:"username"`
	Name     string `xml:"name"`
	Surname  string `xml:"surname"`
	Password string `xml:"password"`
}

type usersDocument struct {
	XMLName xml.Name `xml:"users"`
	Users   []User   `xml:"user"`
}

// Dataset holds the seed users together with the raw XML they were parsed from.
// It is read-only after Load returns.
type Dataset struct {
	raw   []byte
	users []User
}

// Default returns the embedded seed dataset
func Default() (*Dataset, error) {
	return Parse(defaultUsersXML)
}

// Load reads a seed dataset from path, or returns the embedded one if path is empty
func Load(path string) (*Dataset, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}

	return Parse(data)
}

// Parse decodes a users XML document
func Parse(data []byte) (*Dataset, error) {
	var doc usersDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse users XML: %w", err)
	}

	if len(doc.Users) == 0 {
		return nil, fmt.Errorf("users XML contains no <user> elements")
	}

	raw := make([]byte, len(data))
	copy(raw, data)

	return &Dataset{raw: raw, users: doc.Users}, nil
}

// Users returns a copy of the seeded users in document order
func (d *Dataset) Users() []User {
	users := make([]User, len(d.users))
	copy(users, d.users)
	return users
}

// XML returns a copy of the raw seed document
func (d *Dataset) XML() []byte {
	raw := make([]byte, len(d.raw))
	copy(raw, d.raw)
	return raw
}

// Surnames maps each username to its surname
func (d *Dataset) Surnames() map[string]string {
	surnames := make(map[string]string, len(d.users))
	for _, u := range d.users {
		surnames[u.Username] = u.Surname
	}
	return surnames
}
