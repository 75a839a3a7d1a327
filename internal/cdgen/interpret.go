package cdgen

import (
	"fmt"
	"reflect"

	"github.com/AnatoleLucet/turn/detect"
)

var anyType = reflect.TypeFor[any]()

var primitiveKinds = map[string]reflect.Type{
	"bool":       reflect.TypeFor[bool](),
	"string":     reflect.TypeFor[string](),
	"int":        reflect.TypeFor[int](),
	"int8":       reflect.TypeFor[int8](),
	"int16":      reflect.TypeFor[int16](),
	"int32":      reflect.TypeFor[int32](),
	"int64":      reflect.TypeFor[int64](),
	"uint":       reflect.TypeFor[uint](),
	"uint8":      reflect.TypeFor[uint8](),
	"uint16":     reflect.TypeFor[uint16](),
	"uint32":     reflect.TypeFor[uint32](),
	"uint64":     reflect.TypeFor[uint64](),
	"uintptr":    reflect.TypeFor[uintptr](),
	"byte":       reflect.TypeFor[byte](),
	"rune":       reflect.TypeFor[rune](),
	"float32":    reflect.TypeFor[float32](),
	"float64":    reflect.TypeFor[float64](),
	"complex64":  reflect.TypeFor[complex64](),
	"complex128": reflect.TypeFor[complex128](),
}

// Detector runs a generated class against a live directive without going
// through generated source.
type Detector struct {
	class  *Class
	fields map[string]reflect.Value
}

// Instantiate runs the class constructor for directive, which must be a
// pointer to a struct exposing every property the class writes.
func Instantiate(c *Class, directive any) (*Detector, error) {
	v := reflect.ValueOf(directive)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: got %T", ErrNotStructPointer, directive)
	}

	for _, m := range c.Methods {
		for _, prop := range properties(m.Body) {
			f := v.Elem().FieldByName(prop)
			if !f.IsValid() || !f.CanSet() {
				return nil, fmt.Errorf("%w: %T.%s", ErrUnknownProperty, directive, prop)
			}
		}
	}

	d := &Detector{class: c, fields: make(map[string]reflect.Value)}
	for _, f := range c.Fields {
		d.fields[f.Name] = reflect.New(slotType(f.Type)).Elem()
	}
	d.fields[c.Instance.Name] = reflect.New(anyType).Elem()
	if c.Changes != nil {
		d.fields[c.Changes.Name] = reflect.New(anyType).Elem()
	}

	params := map[string]any{c.Constructor.Param.Name: directive}
	if err := d.exec(c.Constructor.Body, params); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Detector) Class() *Class { return d.class }

func (d *Detector) Instance() any {
	return d.fields[d.class.Instance.Name].Interface()
}

// Changes returns the accumulator, nil for directives without OnChanges.
func (d *Detector) Changes() *detect.Changes {
	if d.class.Changes == nil {
		return nil
	}
	c, _ := d.fields[d.class.Changes.Name].Interface().(*detect.Changes)
	return c
}

// Field returns the current value of a detector field.
func (d *Detector) Field(name string) (any, bool) {
	f, ok := d.fields[name]
	if !ok {
		return nil, false
	}
	return f.Interface(), true
}

// Call invokes the update method with the given name.
func (d *Detector) Call(method string, value any) error {
	m, ok := d.class.Method(method)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownMethod, d.class.Name, method)
	}
	return d.call(m, value)
}

// Update invokes the update method of input.
func (d *Detector) Update(input string, value any) error {
	m, ok := d.class.MethodForInput(input)
	if !ok {
		return fmt.Errorf("%w: %s input %q", ErrUnknownMethod, d.class.Name, input)
	}
	return d.call(m, value)
}

func (d *Detector) call(m *Method, value any) error {
	param := reflect.New(slotType(m.Param.Type)).Elem()
	if err := assign(param, value); err != nil {
		return fmt.Errorf("%s(%s): %w", m.Name, m.Param.Name, err)
	}

	return d.exec(m.Body, map[string]any{m.Param.Name: param.Interface()})
}

func (d *Detector) exec(stmts []Stmt, params map[string]any) error {
	for _, s := range stmts {
		switch s := s.(type) {
		case SetPropertyStmt:
			target := reflect.ValueOf(d.Instance()).Elem().FieldByName(s.Property)
			if err := assign(target, d.eval(s.Value, params)); err != nil {
				return fmt.Errorf("set %s: %w", s.Property, err)
			}
		case SetFieldStmt:
			if err := assign(d.fields[s.Field], d.eval(s.Value, params)); err != nil {
				return fmt.Errorf("set %s: %w", s.Field, err)
			}
		case RecordChangeStmt:
			d.Changes().Record(s.Input, d.eval(s.Previous, params), d.eval(s.Current, params))
		case IfStmt:
			cond, _ := d.eval(s.Cond, params).(bool)
			if !cond {
				continue
			}
			if err := d.exec(s.Then, params); err != nil {
				return err
			}
		default:
			return fmt.Errorf("cdgen: unexpected statement %T", s)
		}
	}

	return nil
}

func (d *Detector) eval(e Expr, params map[string]any) any {
	switch e := e.(type) {
	case FieldExpr:
		return d.fields[e.Name].Interface()
	case ParamExpr:
		return params[e.Name]
	case StringExpr:
		return e.Value
	case NotExpr:
		b, _ := d.eval(e.X, params).(bool)
		return !b
	case OrExpr:
		if b, _ := d.eval(e.X, params).(bool); b {
			return true
		}
		b, _ := d.eval(e.Y, params).(bool)
		return b
	case SeenExpr:
		return d.Changes().Seen(e.Input)
	case CallExpr:
		args := make([]any, len(e.Args))
		for i, a := range e.Args {
			args[i] = d.eval(a, params)
		}
		return call(e.Func, args)
	default:
		panic(fmt.Sprintf("cdgen: unexpected expression %T", e))
	}
}

func call(fn Symbol, args []any) any {
	switch fn {
	case SymLooseIdentical:
		return detect.LooseIdentical(args[0], args[1])
	case SymDebugNotIdentical:
		return detect.DebugNotIdentical(args[0].(string), args[1], args[2])
	case SymNewChanges:
		return detect.NewChanges(args[0])
	default:
		panic(fmt.Sprintf("cdgen: unknown runtime function %s.%s", fn.Package, fn.Name))
	}
}

func properties(stmts []Stmt) []string {
	var props []string
	for _, s := range stmts {
		switch s := s.(type) {
		case SetPropertyStmt:
			props = append(props, s.Property)
		case IfStmt:
			props = append(props, properties(s.Then)...)
		}
	}
	return props
}

func slotType(t Type) reflect.Type {
	if rt, ok := primitiveKinds[t.Name]; ok && t.Package == "" && !t.Pointer {
		return rt
	}
	return anyType
}

// assign stores v into dst, converting between numeric kinds when needed.
func assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.SetZero()
		return nil
	}

	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(dst.Type()):
		dst.Set(rv)
	case isNumeric(rv.Kind()) && isNumeric(dst.Kind()) && rv.Type().ConvertibleTo(dst.Type()):
		dst.Set(rv.Convert(dst.Type()))
	default:
		return fmt.Errorf("%w: %s to %s", ErrIncompatible, rv.Type(), dst.Type())
	}

	return nil
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
