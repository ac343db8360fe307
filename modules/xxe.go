package modules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"
)

// ErrXMLDisabled is returned by XML modules when XML support is turned off
var ErrXMLDisabled = errors.New("XML support is disabled")

// maxEntityBytes caps the total size of expanded entity values
const maxEntityBytes = 10 << 20

// XXE implements the xxe (XML External Entity) vulnerability module
type XXE struct{}

// init registers the module
func init() {
	Register(&XXE{})
}

// Info returns module metadata
func (m *XXE) Info() ModuleInfo {
	return ModuleInfo{
		Name:        "xxe",
		Key:         "xml",
		Description: "XML parsing with external entities resolved from files and the network",
	}
}

// entityDecl matches general entity declarations inside a DOCTYPE internal subset.
// Groups: name, external keyword, double-quoted value, single-quoted value.
var entityDecl = regexp.MustCompile(`<!ENTITY\s+([\w.:-]+)\s+(SYSTEM|PUBLIC\s+(?:"[^"]*"|'[^']*'))?\s*(?:"([^"]*)"|'([^']*)')\s*>`)

var entityRef = regexp.MustCompile(`&([\w.:-]+);`)

// Handle parses the document with its entities resolved and re-serializes it
func (m *XXE) Handle(ctx *HandlerContext) (*Result, error) {
	if !ctx.Options.XML {
		return nil, ErrXMLDisabled
	}

	entities, err := resolveEntities(ctx.Sinks, ctx.Input)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve entities: %w", err)
	}

	output, err := reserialize(ctx.Input, entities)
	if err != nil {
		return nil, err
	}

	return NewResult(output), nil
}

// resolveEntities collects declared entities in document order.
// External values are loaded through the sinks; internal values expand earlier declarations.
func resolveEntities(sinks *SinkContext, document string) (map[string]string, error) {
	entities := make(map[string]string)
	total := 0

	for _, match := range entityDecl.FindAllStringSubmatch(document, -1) {
		name, external := match[1], match[2]
		value := match[3]
		if value == "" {
			value = match[4]
		}

		if _, exists := entities[name]; exists {
			// first declaration is binding
			continue
		}

		if external != "" {
			content, err := readResource(sinks, value)
			if err != nil {
				return nil, fmt.Errorf("entity '%s': %w", name, err)
			}
			value = content
		} else {
			value = entityRef.ReplaceAllStringFunc(value, func(ref string) string {
				if expanded, ok := entities[ref[1:len(ref)-1]]; ok {
					return expanded
				}
				return ref
			})
		}

		total += len(value)
		if total > maxEntityBytes {
			return nil, fmt.Errorf("entity expansion exceeds %d bytes", maxEntityBytes)
		}
		entities[name] = value
	}

	return entities, nil
}

// reserialize parses the document with entities and writes it back indented.
// The DOCTYPE and XML declaration are dropped.
func reserialize(document string, entities map[string]string) (string, error) {
	doc, err := xmlquery.ParseWithOptions(strings.NewReader(document), xmlquery.ParserOptions{
		Decoder: &xmlquery.DecoderOptions{
			Strict: true,
			Entity: entities,
		},
	})
	if err != nil {
		return "", fmt.Errorf("XML syntax error: %w", err)
	}

	var b strings.Builder
	for node := doc.FirstChild; node != nil; node = node.NextSibling {
		switch node.Type {
		case xmlquery.ElementNode:
			dropBlankText(node)
			b.WriteString(strings.TrimPrefix(node.OutputXMLWithOptions(
				xmlquery.WithOutputSelf(),
				xmlquery.WithIndentation("  "),
			), "\n"))
			b.WriteString("\n")
		case xmlquery.CommentNode:
			b.WriteString(node.OutputXML(true))
			b.WriteString("\n")
		}
	}

	return b.String(), nil
}

// dropBlankText removes whitespace-only text nodes below n
func dropBlankText(n *xmlquery.Node) {
	child := n.FirstChild
	for child != nil {
		next := child.NextSibling
		switch child.Type {
		case xmlquery.TextNode:
			if strings.TrimSpace(child.Data) == "" {
				xmlquery.RemoveFromTree(child)
			}
		case xmlquery.ElementNode:
			dropBlankText(child)
		}
		child = next
	}
}
