package modules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Deserialization implements the insecure_deserialization vulnerability module
type Deserialization struct{}

// init registers the module
func init() {
	Register(&Deserialization{})
}

// Info returns module metadata
func (m *Deserialization) Info() ModuleInfo {
	return ModuleInfo{
		Name:        "insecure_deserialization",
		Key:         "object",
		Description: "YAML object graph reconstruction where local tags run commands, scripts and file reads",
	}
}

// Handle reconstructs the object and renders its informal string form
func (m *Deserialization) Handle(ctx *HandlerContext) (*Result, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(ctx.Input), &root); err != nil {
		return nil, fmt.Errorf("failed to decode object: %w", err)
	}

	decoder := newObjectDecoder(ctx.Sinks)
	object, err := decoder.construct(&root)
	if err != nil {
		return nil, err
	}

	return NewResult(fmt.Sprintf("%v", object)), nil
}

const (
	// maxAliasExpansions caps how many times aliases may be followed in one document
	maxAliasExpansions = 10000
	// maxObjectNodes caps the size of the reconstructed object graph
	maxObjectNodes = 1 << 20
)

// constructor builds a value from a tagged scalar
type constructor func(value string) (interface{}, error)

// objectDecoder turns a YAML node tree into plain Go values, running tag constructors
type objectDecoder struct {
	tags      map[string]constructor
	expanding map[*yaml.Node]bool
	aliases   int
	nodes     int
}

func newObjectDecoder(sinks *SinkContext) *objectDecoder {
	d := &objectDecoder{expanding: make(map[*yaml.Node]bool), tags: map[string]constructor{
		"!env": func(value string) (interface{}, error) {
			return os.Getenv(value), nil
		},
		"!file": func(value string) (interface{}, error) {
			content, err := os.ReadFile(value)
			if err != nil {
				return nil, err
			}
			return string(content), nil
		},
	}}

	if sinks == nil {
		return d
	}

	if sinks.Command != nil {
		d.tags["!system"] = func(value string) (interface{}, error) {
			return sinks.Command.Execute(value)
		}
	}
	if sinks.Script != nil {
		d.tags["!eval"] = func(value string) (interface{}, error) {
			return sinks.Script.Eval(value)
		}
	}
	if sinks.Filesystem != nil {
		d.tags["!file"] = func(value string) (interface{}, error) {
			content, err := sinks.Filesystem.Read(value)
			if err != nil {
				return nil, err
			}
			return string(content), nil
		}
	}

	return d
}

func (d *objectDecoder) construct(node *yaml.Node) (interface{}, error) {
	d.nodes++
	if d.nodes > maxObjectNodes {
		return nil, fmt.Errorf("object exceeds %d nodes", maxObjectNodes)
	}

	switch node.Kind {
	case 0:
		return nil, nil

	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return d.construct(node.Content[0])

	case yaml.AliasNode:
		if d.expanding[node.Alias] {
			return nil, fmt.Errorf("recursive alias '%s'", node.Value)
		}
		d.aliases++
		if d.aliases > maxAliasExpansions {
			return nil, fmt.Errorf("object expands more than %d aliases", maxAliasExpansions)
		}
		d.expanding[node.Alias] = true
		defer delete(d.expanding, node.Alias)
		return d.construct(node.Alias)

	case yaml.MappingNode:
		object := make(map[string]interface{}, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, err := d.construct(node.Content[i])
			if err != nil {
				return nil, err
			}
			value, err := d.construct(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			object[fmt.Sprint(key)] = value
		}
		return object, nil

	case yaml.SequenceNode:
		items := make([]interface{}, 0, len(node.Content))
		for _, child := range node.Content {
			item, err := d.construct(child)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil

	case yaml.ScalarNode:
		if fn, ok := d.tags[node.Tag]; ok {
			return fn(node.Value)
		}
		var value interface{}
		if err := node.Decode(&value); err != nil {
			return nil, err
		}
		return value, nil
	}

	return nil, fmt.Errorf("unsupported node kind %d", node.Kind)
}
