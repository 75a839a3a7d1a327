package cdgen

// DetectPackage is the runtime package generated detectors call into.
const DetectPackage = "github.com/AnatoleLucet/turn/detect"

// Type is the static type of a generated slot. The zero Type is the untyped
// (any) slot.
type Type struct {
	// Name is a Go type expression, or a bare type name when Package is set.
	Name string

	// Package qualifies Name at render time.
	Package string

	Pointer bool

	// Import is the package the qualifiers inside Name refer to. They are
	// rewritten at render time to the name the package is imported under.
	Import string
}

var AnyType = Type{}

func (t Type) IsAny() bool { return t.Name == "" }

func (t Type) String() string {
	if t.IsAny() {
		return "any"
	}

	s := t.Name
	if t.Package != "" {
		s = t.Package + "." + s
	}
	if t.Pointer {
		s = "*" + s
	}
	return s
}

type Field struct {
	Name string
	Type Type
}

type Param struct {
	Name string
	Type Type
}

// Symbol is a package-level function of the runtime.
type Symbol struct {
	Package string
	Name    string
}

var (
	SymLooseIdentical    = Symbol{Package: DetectPackage, Name: "LooseIdentical"}
	SymDebugNotIdentical = Symbol{Package: DetectPackage, Name: "DebugNotIdentical"}
	SymNewChanges        = Symbol{Package: DetectPackage, Name: "NewChanges"}
)

// Expr is an expression of the generated code.
type Expr interface{ expr() }

// FieldExpr reads a field of the detector.
type FieldExpr struct{ Name string }

// ParamExpr reads a parameter of the enclosing method.
type ParamExpr struct{ Name string }

type StringExpr struct{ Value string }

type CallExpr struct {
	Func Symbol
	Args []Expr
}

type NotExpr struct{ X Expr }

type OrExpr struct{ X, Y Expr }

// SeenExpr reports whether the changes accumulator has recorded input.
type SeenExpr struct{ Input string }

func (FieldExpr) expr()  {}
func (ParamExpr) expr()  {}
func (StringExpr) expr() {}
func (CallExpr) expr()   {}
func (NotExpr) expr()    {}
func (OrExpr) expr()     {}
func (SeenExpr) expr()   {}

// Stmt is a statement of the generated code.
type Stmt interface{ stmt() }

// SetPropertyStmt assigns to a property of the directive instance.
type SetPropertyStmt struct {
	Property string
	Value    Expr
}

// SetFieldStmt assigns to a field of the detector.
type SetFieldStmt struct {
	Field string
	Value Expr
}

// RecordChangeStmt appends to the changes accumulator.
type RecordChangeStmt struct {
	Input    string
	Previous Expr
	Current  Expr
}

type IfStmt struct {
	Cond Expr
	Then []Stmt
}

func (SetPropertyStmt) stmt()  {}
func (SetFieldStmt) stmt()     {}
func (RecordChangeStmt) stmt() {}
func (IfStmt) stmt()           {}

type Constructor struct {
	Param Param
	Body  []Stmt
}

// Method is the update method of one input.
type Method struct {
	Name  string
	Input string
	Param Param
	Body  []Stmt
}

// Class is a generated change detector.
type Class struct {
	Name      string
	Directive TypeRef

	// Fields holds the previous-value fields, one per input, in input order.
	Fields []Field

	Instance Field

	// Changes is nil unless the directive implements OnChanges.
	Changes *Field

	Constructor Constructor

	// Methods holds the update methods, one per input, in input order.
	Methods []Method
}

func (c *Class) Method(name string) (*Method, bool) {
	for i := range c.Methods {
		if c.Methods[i].Name == name {
			return &c.Methods[i], true
		}
	}
	return nil, false
}

func (c *Class) MethodForInput(input string) (*Method, bool) {
	for i := range c.Methods {
		if c.Methods[i].Input == input {
			return &c.Methods[i], true
		}
	}
	return nil, false
}
