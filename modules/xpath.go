package modules

import (
	"bytes"
	"fmt"

	"github.com/antchfx/xmlquery"
)

// XPathInjection implements the xpath_injection vulnerability module
type XPathInjection struct{}

// init registers the module
func init() {
	Register(&XPathInjection{})
}

// Info returns module metadata
func (m *XPathInjection) Info() ModuleInfo {
	return ModuleInfo{
		Name:        "xpath_injection",
		Key:         "name",
		Description: "Surname lookup with the name concatenated into an XPath predicate",
	}
}

// Handle evaluates the composed expression and renders the last match's surname
func (m *XPathInjection) Handle(ctx *HandlerContext) (*Result, error) {
	if !ctx.Options.XML {
		return nil, ErrXMLDisabled
	}
	if ctx.Dataset == nil {
		return nil, fmt.Errorf("dataset not available")
	}

	doc, err := xmlquery.Parse(bytes.NewReader(ctx.Dataset.XML()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}

	expr := fmt.Sprintf("//user[name/text()='%s']", ctx.Input)
	nodes, err := xmlquery.QueryAll(doc, expr)
	if err != nil {
		return nil, fmt.Errorf("invalid XPath expression %q: %w", expr, err)
	}

	surname := "-"
	if len(nodes) > 0 {
		if node := nodes[len(nodes)-1].SelectElement("surname"); node != nil {
			surname = node.InnerText()
		}
	}

	return NewResult(ctx.Page.Document(fmt.Sprintf("<b>Surname:</b> %s", surname))), nil
}
