// Package metadata reads directive metadata documents for the build driver.
//
// A document lists directives with their inputs in declaration order:
//
//	package: github.com/acme/widgets
//	directives:
//	  - type: Tooltip
//	    selector: "[tooltip]"
//	    inputs:
//	      text: string
//	      delay: num
//	      anchor:
//	        type: dom.Element
//	        import: github.com/acme/dom
//	    lifecycle: [OnChanges]
//
// Inputs may also be written as a sequence of {name, type, import, property}.
package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AnatoleLucet/turn/internal/cdgen"
	"gopkg.in/yaml.v3"
)

var ErrInvalidDocument = errors.New("metadata: invalid document")

type document struct {
	Package    string      `yaml:"package"`
	Directives []directive `yaml:"directives"`
}

type directive struct {
	Type      string   `yaml:"type"`
	Package   string   `yaml:"package"`
	Selector  string   `yaml:"selector"`
	Component bool     `yaml:"component"`
	Inputs    inputs   `yaml:"inputs"`
	Lifecycle []string `yaml:"lifecycle"`
}

type input struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Import   string `yaml:"import"`
	Property string `yaml:"property"`
}

type inputs []input

// UnmarshalYAML accepts both an ordered mapping of name to type (or to an
// input body) and a sequence of inputs.
func (in *inputs) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var list []input
		if err := node.Decode(&list); err != nil {
			return err
		}
		*in = list
		return nil

	case yaml.MappingNode:
		list := make([]input, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]

			item := input{Name: key.Value}
			switch {
			case value.Kind == yaml.ScalarNode && value.Tag == "!!null":
			case value.Kind == yaml.ScalarNode:
				item.Type = value.Value
			case value.Kind == yaml.MappingNode:
				if err := value.Decode(&item); err != nil {
					return err
				}
				item.Name = key.Value
			default:
				return fmt.Errorf("line %d: input %q: expected a type or a mapping", value.Line, key.Value)
			}

			list = append(list, item)
		}
		*in = list
		return nil

	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*in = nil
			return nil
		}
	}

	return fmt.Errorf("line %d: inputs: expected a mapping or a sequence", node.Line)
}

// Load decodes every directive of the document read from r.
func Load(r io.Reader) ([]*cdgen.DirectiveMetadata, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	out := make([]*cdgen.DirectiveMetadata, 0, len(doc.Directives))
	for i, d := range doc.Directives {
		m, err := d.metadata(doc.Package)
		if err != nil {
			return nil, fmt.Errorf("%w: directives[%d]: %w", ErrInvalidDocument, i, err)
		}
		out = append(out, m)
	}

	return out, nil
}

// LoadFile loads the document at path.
func LoadFile(path string) ([]*cdgen.DirectiveMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("metadata: read %s: %w", path, err)
	}

	ms, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ms, nil
}

func (d directive) metadata(defaultPackage string) (*cdgen.DirectiveMetadata, error) {
	pkg := d.Package
	if pkg == "" {
		pkg = defaultPackage
	}

	m := &cdgen.DirectiveMetadata{
		Type:        cdgen.TypeRef{Package: pkg, Name: d.Type},
		Selector:    d.Selector,
		IsComponent: d.Component,
		Inputs:      make([]cdgen.Input, 0, len(d.Inputs)),
	}

	for _, in := range d.Inputs {
		m.Inputs = append(m.Inputs, cdgen.Input{
			Name:     in.Name,
			Type:     in.Type,
			Import:   in.Import,
			Property: in.Property,
		})
	}

	for _, name := range d.Lifecycle {
		l, err := cdgen.ParseLifecycle(name)
		if err != nil {
			return nil, err
		}
		m.Lifecycle = append(m.Lifecycle, l)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}
