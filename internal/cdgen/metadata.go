package cdgen

import (
	"fmt"
	"go/parser"
	"go/token"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lifecycle is a lifecycle capability a directive declares.
type Lifecycle int

const (
	LifecycleOnChanges Lifecycle = iota
	LifecycleOnInit
	LifecycleDoCheck
	LifecycleAfterContentInit
	LifecycleAfterContentChecked
	LifecycleAfterViewInit
	LifecycleAfterViewChecked
	LifecycleOnDestroy
)

var lifecycleNames = []string{
	"OnChanges",
	"OnInit",
	"DoCheck",
	"AfterContentInit",
	"AfterContentChecked",
	"AfterViewInit",
	"AfterViewChecked",
	"OnDestroy",
}

func (l Lifecycle) String() string {
	if l < 0 || int(l) >= len(lifecycleNames) {
		return fmt.Sprintf("Lifecycle(%d)", int(l))
	}
	return lifecycleNames[l]
}

// ParseLifecycle accepts the capability name, case-insensitively, with or
// without an "ng" prefix.
func ParseLifecycle(s string) (Lifecycle, error) {
	name := strings.TrimSpace(s)
	if len(name) > 2 && strings.EqualFold(name[:2], "ng") {
		name = name[2:]
	}

	for i, n := range lifecycleNames {
		if strings.EqualFold(n, name) {
			return Lifecycle(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownLifecycle, s)
}

// TypeRef names a Go type. An empty Package means the type lives in the
// package the detector is generated into.
type TypeRef struct {
	Package string
	Name    string
}

func (t TypeRef) String() string {
	if t.Package == "" {
		return t.Name
	}
	return t.Package + "." + t.Name
}

// Input is one bound input of a directive.
type Input struct {
	Name string

	// Type is the declared value type, empty when undeclared.
	Type string

	// Import is the package the qualified names in Type refer to, if any.
	// Type may be written with any qualifier, e.g. "[]dom.Node".
	Import string

	// Property overrides the directive field the input writes to.
	Property string
}

// PropertyName returns the directive field an input is written to.
func (in Input) PropertyName() string {
	if in.Property != "" {
		return in.Property
	}
	return exported(in.Name)
}

// DirectiveMetadata describes a directive or component as resolved by the
// metadata stage. Generators treat it as read-only.
type DirectiveMetadata struct {
	Type        TypeRef
	Selector    string
	IsComponent bool

	// Inputs in declaration order.
	Inputs []Input

	Lifecycle []Lifecycle
}

func (m *DirectiveMetadata) HasLifecycle(l Lifecycle) bool {
	return slices.Contains(m.Lifecycle, l)
}

func exported(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// Validate checks the names a generated detector is built from.
func (m *DirectiveMetadata) Validate() error {
	if !token.IsIdentifier(m.Type.Name) {
		return fmt.Errorf("%w: type name %q", ErrInvalidMetadata, m.Type.Name)
	}

	seen := make(map[string]struct{}, len(m.Inputs))
	for i, in := range m.Inputs {
		if !token.IsIdentifier(in.Name) {
			return fmt.Errorf("%w: %s inputs[%d] name %q", ErrInvalidMetadata, m.Type.Name, i, in.Name)
		}
		if _, dup := seen[in.Name]; dup {
			return fmt.Errorf("%w: %s input %q declared twice", ErrInvalidMetadata, m.Type.Name, in.Name)
		}
		seen[in.Name] = struct{}{}

		if prop := in.PropertyName(); !token.IsExported(prop) || !token.IsIdentifier(prop) {
			return fmt.Errorf("%w: %s input %q writes to unexported property %q", ErrInvalidMetadata, m.Type.Name, in.Name, prop)
		}

		if _, primitive := primitives[in.Type]; in.Type != "" && !primitive {
			if _, err := parser.ParseExpr(in.Type); err != nil {
				return fmt.Errorf("%w: %s input %q type %q", ErrInvalidMetadata, m.Type.Name, in.Name, in.Type)
			}
		}
	}

	return nil
}
