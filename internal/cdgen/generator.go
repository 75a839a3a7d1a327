package cdgen

import "strconv"

const (
	// ReservedDirective is the built-in conditional rendering directive,
	// which is special-cased by the view compiler and never gets a detector.
	ReservedDirective = "NgIf"

	FieldPrefix    = "field_"
	MethodPrefix   = "Set_"
	InstanceField  = "instance"
	ChangesField   = "changes"
	ValueParam     = "value"
	DirectiveParam = "directive"
	DetectorSuffix = "ChangeDetector"
)

type Options struct {
	// DebugComparisons guards updates with the instrumented comparison.
	DebugComparisons bool
}

// primitives maps declared type names with cheap equality to their Go type.
var primitives = map[string]string{
	"bool":       "bool",
	"boolean":    "bool",
	"string":     "string",
	"String":     "string",
	"int":        "int",
	"int8":       "int8",
	"int16":      "int16",
	"int32":      "int32",
	"int64":      "int64",
	"uint":       "uint",
	"uint8":      "uint8",
	"uint16":     "uint16",
	"uint32":     "uint32",
	"uint64":     "uint64",
	"uintptr":    "uintptr",
	"byte":       "byte",
	"rune":       "rune",
	"float32":    "float32",
	"float64":    "float64",
	"complex64":  "complex64",
	"complex128": "complex128",
	"num":        "float64",
	"number":     "float64",
	"double":     "float64",
}

// IsPrimitive reports whether a declared type keeps its own type in the
// previous-value field.
func IsPrimitive(declared string) bool {
	_, ok := primitives[declared]
	return ok
}

// RequiresChangeDetector reports whether Generate may be called for m: plain
// directives with at least one input, except the reserved directive.
func RequiresChangeDetector(m *DirectiveMetadata) bool {
	return ineligibility(m) == ""
}

// IneligibleReason explains why RequiresChangeDetector(m) is false, or
// returns "" when it is true.
func IneligibleReason(m *DirectiveMetadata) string {
	return ineligibility(m)
}

func ineligibility(m *DirectiveMetadata) string {
	switch {
	case m.IsComponent:
		return "components do not take a change detector"
	case len(m.Inputs) == 0:
		return "no bound inputs"
	case m.Type.Name == ReservedDirective:
		return "reserved directive"
	default:
		return ""
	}
}

// Generate builds the change detector of m. It panics with a *ContractError
// when RequiresChangeDetector(m) is false.
func Generate(m *DirectiveMetadata, opts Options) *Class {
	if reason := ineligibility(m); reason != "" {
		panic(&ContractError{Directive: m.Type.String(), Reason: reason})
	}

	directive := Type{Name: m.Type.Name, Package: m.Type.Package, Pointer: true}
	tracksChanges := m.HasLifecycle(LifecycleOnChanges)

	c := &Class{
		Name:      m.Type.Name + DetectorSuffix,
		Directive: m.Type,
		Instance:  Field{Name: InstanceField, Type: directive},
		Fields:    make([]Field, 0, len(m.Inputs)),
		Methods:   make([]Method, 0, len(m.Inputs)),
	}

	ctor := Constructor{
		Param: Param{Name: DirectiveParam, Type: directive},
		Body: []Stmt{
			SetFieldStmt{Field: InstanceField, Value: ParamExpr{Name: DirectiveParam}},
		},
	}
	if tracksChanges {
		c.Changes = &Field{Name: ChangesField, Type: Type{Name: "Changes", Package: DetectPackage, Pointer: true}}
		ctor.Body = append(ctor.Body, SetFieldStmt{
			Field: ChangesField,
			Value: CallExpr{Func: SymNewChanges, Args: []Expr{ParamExpr{Name: DirectiveParam}}},
		})
	}
	c.Constructor = ctor

	// one counter for the whole directive keeps field names short and unique
	fieldCount := 0
	for _, in := range m.Inputs {
		field := Field{Name: FieldPrefix + strconv.Itoa(fieldCount), Type: fieldType(in)}
		fieldCount++

		c.Fields = append(c.Fields, field)
		c.Methods = append(c.Methods, updateMethod(in, field, tracksChanges, opts))
	}

	return c
}

func updateMethod(in Input, field Field, tracksChanges bool, opts Options) Method {
	param := Param{Name: ValueParam, Type: paramType(in)}
	previous := FieldExpr{Name: field.Name}
	current := ParamExpr{Name: param.Name}

	body := []Stmt{SetPropertyStmt{Property: in.PropertyName(), Value: current}}
	if tracksChanges {
		body = append(body, RecordChangeStmt{Input: in.Name, Previous: previous, Current: current})
	}
	body = append(body, SetFieldStmt{Field: field.Name, Value: current})

	var changed Expr
	if opts.DebugComparisons {
		changed = CallExpr{Func: SymDebugNotIdentical, Args: []Expr{StringExpr{Value: in.Name}, previous, current}}
	} else {
		changed = NotExpr{X: CallExpr{Func: SymLooseIdentical, Args: []Expr{previous, current}}}
	}
	if tracksChanges {
		// the previous-value field starts at the zero value, so the first
		// update is a change whatever it holds
		changed = OrExpr{X: NotExpr{X: SeenExpr{Input: in.Name}}, Y: changed}
	}

	return Method{
		Name:  MethodPrefix + in.Name,
		Input: in.Name,
		Param: param,
		Body:  []Stmt{IfStmt{Cond: changed, Then: body}},
	}
}

func fieldType(in Input) Type {
	if goType, ok := primitives[in.Type]; ok {
		return Type{Name: goType}
	}
	return AnyType
}

func paramType(in Input) Type {
	if goType, ok := primitives[in.Type]; ok {
		return Type{Name: goType}
	}
	if in.Type == "" {
		return AnyType
	}
	return Type{Name: in.Type, Import: in.Import}
}
