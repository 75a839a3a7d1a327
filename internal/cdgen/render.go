package cdgen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"path"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// GeneratedHeader opens every rendered file.
const GeneratedHeader = "// Code generated by turngen. DO NOT EDIT."

type RenderOptions struct {
	// Package is the package clause of the output file.
	Package string

	// ImportPath of the output package. Types living there are not qualified.
	ImportPath string
}

// Render writes c as a formatted Go source file.
func Render(c *Class, opts RenderOptions) ([]byte, error) {
	return RenderFile([]*Class{c}, opts)
}

// RenderFile writes several detectors into one formatted Go source file.
func RenderFile(classes []*Class, opts RenderOptions) ([]byte, error) {
	if opts.Package == "" {
		return nil, fmt.Errorf("cdgen: render: package name required")
	}

	r := &renderer{local: opts.ImportPath, imports: make(map[string]string)}
	for _, c := range classes {
		r.class(c)
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "%s\n\npackage %s\n\n", GeneratedHeader, opts.Package)
	r.writeImports(&out)
	out.Write(r.body.Bytes())

	src, err := format.Source(out.Bytes())
	if err != nil {
		return nil, fmt.Errorf("cdgen: render: %w", err)
	}

	return src, nil
}

type renderer struct {
	local   string
	imports map[string]string // path -> name
	body    bytes.Buffer
}

func (r *renderer) printf(format string, args ...any) {
	fmt.Fprintf(&r.body, format, args...)
}

func (r *renderer) class(c *Class) {
	recv := "d"
	instance := r.typ(c.Instance.Type)

	r.printf("// %s tracks the bound inputs of %s.\n", c.Name, c.Directive.Name)
	r.printf("type %s struct {\n", c.Name)
	for _, f := range c.Fields {
		r.printf("%s %s\n", f.Name, r.typ(f.Type))
	}
	r.printf("%s %s\n", c.Instance.Name, instance)
	if c.Changes != nil {
		r.printf("%s %s\n", c.Changes.Name, r.typ(c.Changes.Type))
	}
	r.printf("}\n\n")

	r.printf("func New%s(%s %s) *%s {\n", c.Name, c.Constructor.Param.Name, r.typ(c.Constructor.Param.Type), c.Name)
	r.printf("%s := &%s{}\n", recv, c.Name)
	r.stmts(recv, c.Instance.Name, c.Constructor.Body)
	r.printf("return %s\n}\n\n", recv)

	r.printf("func (%s *%s) Instance() %s { return %s.%s }\n\n", recv, c.Name, instance, recv, c.Instance.Name)
	if c.Changes != nil {
		r.printf("func (%s *%s) Changes() %s { return %s.%s }\n\n", recv, c.Name, r.typ(c.Changes.Type), recv, c.Changes.Name)
	}

	for _, m := range c.Methods {
		r.printf("func (%s *%s) %s(%s %s) {\n", recv, c.Name, m.Name, m.Param.Name, r.typ(m.Param.Type))
		r.stmts(recv, c.Instance.Name, m.Body)
		r.printf("}\n\n")
	}
}

func (r *renderer) stmts(recv, instance string, stmts []Stmt) {
	for _, s := range stmts {
		switch s := s.(type) {
		case SetPropertyStmt:
			r.printf("%s.%s.%s = %s\n", recv, instance, s.Property, r.expr(recv, s.Value))
		case SetFieldStmt:
			r.printf("%s.%s = %s\n", recv, s.Field, r.expr(recv, s.Value))
		case RecordChangeStmt:
			r.printf("%s.%s.Record(%s, %s, %s)\n", recv, ChangesField, strconv.Quote(s.Input),
				r.expr(recv, s.Previous), r.expr(recv, s.Current))
		case IfStmt:
			r.printf("if %s {\n", r.expr(recv, s.Cond))
			r.stmts(recv, instance, s.Then)
			r.printf("}\n")
		default:
			panic(fmt.Sprintf("cdgen: render: unexpected statement %T", s))
		}
	}
}

func (r *renderer) expr(recv string, e Expr) string {
	switch e := e.(type) {
	case FieldExpr:
		return recv + "." + e.Name
	case ParamExpr:
		return e.Name
	case StringExpr:
		return strconv.Quote(e.Value)
	case NotExpr:
		return "!" + r.expr(recv, e.X)
	case OrExpr:
		return r.expr(recv, e.X) + " || " + r.expr(recv, e.Y)
	case SeenExpr:
		return recv + "." + ChangesField + ".Seen(" + strconv.Quote(e.Input) + ")"
	case CallExpr:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = r.expr(recv, a)
		}
		return r.qualify(e.Func.Package, e.Func.Name) + "(" + strings.Join(args, ", ") + ")"
	default:
		panic(fmt.Sprintf("cdgen: render: unexpected expression %T", e))
	}
}

func (r *renderer) typ(t Type) string {
	if t.IsAny() {
		return "any"
	}
	if t.Import != "" {
		return r.declared(t)
	}

	s := r.qualify(t.Package, t.Name)
	if t.Pointer {
		s = "*" + s
	}
	return s
}

// declared rewrites the package qualifiers of a declared type expression to
// the name t.Import is imported under, or drops them when the type lives in
// the output package.
func (r *renderer) declared(t Type) string {
	fset := token.NewFileSet()
	expr, err := parser.ParseExprFrom(fset, "", t.Name, 0)
	if err != nil {
		return t.Name
	}

	type edit struct {
		start, end int
		text       string
	}

	var edits []edit
	ast.Inspect(expr, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		id, ok := sel.X.(*ast.Ident)
		if !ok {
			return true
		}

		text := ""
		if t.Import != r.local {
			text = r.use(t.Import) + "."
		}
		edits = append(edits, edit{
			start: fset.Position(id.Pos()).Offset,
			end:   fset.Position(sel.Sel.Pos()).Offset,
			text:  text,
		})
		return false
	})

	s := t.Name
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		s = s[:e.start] + e.text + s[e.end:]
	}
	return s
}

func (r *renderer) qualify(pkg, name string) string {
	if pkg == "" || pkg == r.local {
		return name
	}
	return r.use(pkg) + "." + name
}

func (r *renderer) use(pkg string) string {
	if name, ok := r.imports[pkg]; ok {
		return name
	}

	base := PackageName(pkg)
	name := base
	for i := 2; r.nameTaken(name); i++ {
		name = base + strconv.Itoa(i)
	}

	r.imports[pkg] = name
	return name
}

func (r *renderer) nameTaken(name string) bool {
	for _, n := range r.imports {
		if n == name {
			return true
		}
	}
	return false
}

func (r *renderer) writeImports(out *bytes.Buffer) {
	if len(r.imports) == 0 {
		return
	}

	paths := make([]string, 0, len(r.imports))
	for p := range r.imports {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	out.WriteString("import (\n")
	for _, p := range paths {
		if name := r.imports[p]; name != path.Base(p) {
			fmt.Fprintf(out, "%s %q\n", name, p)
		} else {
			fmt.Fprintf(out, "%q\n", p)
		}
	}
	out.WriteString(")\n\n")
}

var (
	majorVersion = regexp.MustCompile(`^v[0-9]+$`)
	gopkgVersion = regexp.MustCompile(`\.v[0-9]+$`)
	notIdent     = regexp.MustCompile(`[^A-Za-z0-9_]`)
)

// PackageName guesses the name of the package at an import path: the last
// element, skipping major version suffixes, with invalid characters removed.
func PackageName(importPath string) string {
	elems := strings.Split(importPath, "/")
	name := elems[len(elems)-1]
	if majorVersion.MatchString(name) && len(elems) > 1 {
		name = elems[len(elems)-2]
	}

	name = gopkgVersion.ReplaceAllString(name, "")
	name = strings.TrimPrefix(name, "go-")
	name = notIdent.ReplaceAllString(name, "")
	if name == "" {
		name = "pkg"
	}
	return name
}
