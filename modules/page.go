package modules

import (
	"fmt"
	"html"
	"strings"
)

// DefaultVersion is shown in the page footer
const DefaultVersion = "0.2b"

// DocumentMarker starts every HTML page
const DocumentMarker = "<!DOCTYPE html>"

const pagePrefix = DocumentMarker + `
<html>
<head>
<style>
a {font-weight: bold; text-decoration: none; color: blue;}
ul {display: inline-block;}
.disabled {text-decoration: line-through; color: gray}
.disabled a {color: gray; pointer-events: none; cursor: default}
table {border-collapse: collapse; margin: 12px; border: 2px solid black}
th, td {border: 1px solid black; padding: 3px}
span {font-size: larger; font-weight: bold}
</style>
<title>%s</title>
</head>
<body style='font: 12px monospace'>
<script>function process(data) {alert("Surname(s) from JSON results: " + Object.keys(data).map(function(k) {return data[k]}));}; var index=document.location.hash.indexOf('lang='); if (index != -1) document.write('<div style="position: absolute; top: 5px; right: 5px;">Chosen language: <b>' + decodeURIComponent(document.location.hash.substring(index + 5)) + '</b></div>');</script>
`

const pagePostfix = `</body>
<div style="position: fixed; bottom: 5px; text-align: center; width: 100%%;">Powered by <a href="/" style="font-weight: bold; text-decoration: none; color: red">%s</a> (v<b>%s</b>)</div>
</html>`

// PostfixSignature identifies a page that already carries its footer
const PostfixSignature = "</html>"

// Page renders the fixed HTML fragments around module output
type Page struct {
	name    string
	version string
}

// NewPage creates a page with the application name and footer version
func NewPage(name, version string) *Page {
	if name == "" {
		name = "TinyFlaw"
	}
	if version == "" {
		version = DefaultVersion
	}
	return &Page{name: name, version: version}
}

// Name returns the application name
func (p *Page) Name() string {
	return p.name
}

// Version returns the footer version
func (p *Page) Version() string {
	return p.version
}

// Prefix returns the document head and opening body
func (p *Page) Prefix() string {
	return fmt.Sprintf(pagePrefix, html.EscapeString(p.name))
}

// Postfix returns the footer and closing tags
func (p *Page) Postfix() string {
	return p.PostfixWithVersion(p.version)
}

// PostfixWithVersion returns the footer with version inserted verbatim
func (p *Page) PostfixWithVersion(version string) string {
	return fmt.Sprintf(pagePostfix, html.EscapeString(p.name), version)
}

// Document wraps body in the page prefix; the composer adds the postfix
func (p *Page) Document(body string) string {
	return p.Prefix() + body
}

// Table renders rows as an HTML table. Values are inserted verbatim and nil renders as "-".
func Table(rows [][]interface{}) string {
	var b strings.Builder
	b.WriteString("<table>")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, value := range row {
			if value == nil {
				value = "-"
			}
			fmt.Fprintf(&b, "<td>%v</td>", value)
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

// TableWithHeader renders a header row followed by rows
func TableWithHeader(columns []string, rows [][]interface{}) string {
	var b strings.Builder
	b.WriteString("<table><thead><tr>")
	for _, column := range columns {
		fmt.Fprintf(&b, "<th>%s</th>", column)
	}
	b.WriteString("</tr></thead>")
	b.WriteString(strings.TrimPrefix(Table(rows), "<table>"))
	return b.String()
}
