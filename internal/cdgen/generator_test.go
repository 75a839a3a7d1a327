package cdgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tooltip() *DirectiveMetadata {
	return &DirectiveMetadata{
		Type:     TypeRef{Package: "github.com/acme/widgets", Name: "Tooltip"},
		Selector: "[tooltip]",
		Inputs: []Input{
			{Name: "text", Type: "string"},
			{Name: "delay", Type: "num"},
			{Name: "anchor", Type: "*Element"},
			{Name: "extra"},
		},
	}
}

func TestRequiresChangeDetector(t *testing.T) {
	t.Run("plain directive with inputs", func(t *testing.T) {
		assert.True(t, RequiresChangeDetector(tooltip()))
	})

	t.Run("components never do", func(t *testing.T) {
		m := tooltip()
		m.IsComponent = true
		assert.False(t, RequiresChangeDetector(m))
	})

	t.Run("directives without inputs never do", func(t *testing.T) {
		m := tooltip()
		m.Inputs = nil
		assert.False(t, RequiresChangeDetector(m))
	})

	t.Run("the reserved directive never does", func(t *testing.T) {
		m := &DirectiveMetadata{
			Type:   TypeRef{Name: ReservedDirective},
			Inputs: []Input{{Name: "ngIf", Type: "bool"}},
		}
		assert.False(t, RequiresChangeDetector(m))
	})
}

func TestGenerate(t *testing.T) {
	t.Run("one field and one method per input in order", func(t *testing.T) {
		c := Generate(tooltip(), Options{})

		assert.Equal(t, "TooltipChangeDetector", c.Name)
		require.Len(t, c.Fields, 4)
		require.Len(t, c.Methods, 4)

		assert.Equal(t, []Field{
			{Name: "field_0", Type: Type{Name: "string"}},
			{Name: "field_1", Type: Type{Name: "float64"}},
			{Name: "field_2", Type: AnyType},
			{Name: "field_3", Type: AnyType},
		}, c.Fields)

		names := []string{}
		for _, m := range c.Methods {
			names = append(names, m.Name)
		}
		assert.Equal(t, []string{"Set_text", "Set_delay", "Set_anchor", "Set_extra"}, names)

		assert.Equal(t, Type{Name: "*Element"}, c.Methods[2].Param.Type)
		assert.Equal(t, AnyType, c.Methods[3].Param.Type)
	})

	t.Run("holds the instance", func(t *testing.T) {
		c := Generate(tooltip(), Options{})

		directive := Type{Name: "Tooltip", Package: "github.com/acme/widgets", Pointer: true}
		assert.Equal(t, Field{Name: InstanceField, Type: directive}, c.Instance)
		assert.Equal(t, Constructor{
			Param: Param{Name: DirectiveParam, Type: directive},
			Body: []Stmt{
				SetFieldStmt{Field: InstanceField, Value: ParamExpr{Name: DirectiveParam}},
			},
		}, c.Constructor)
		assert.Nil(t, c.Changes)
	})

	t.Run("release update body", func(t *testing.T) {
		c := Generate(tooltip(), Options{})

		assert.Equal(t, []Stmt{
			IfStmt{
				Cond: NotExpr{X: CallExpr{Func: SymLooseIdentical, Args: []Expr{
					FieldExpr{Name: "field_0"}, ParamExpr{Name: "value"},
				}}},
				Then: []Stmt{
					SetPropertyStmt{Property: "Text", Value: ParamExpr{Name: "value"}},
					SetFieldStmt{Field: "field_0", Value: ParamExpr{Name: "value"}},
				},
			},
		}, c.Methods[0].Body)
	})

	t.Run("debug comparisons name the input", func(t *testing.T) {
		c := Generate(tooltip(), Options{DebugComparisons: true})

		cond := c.Methods[1].Body[0].(IfStmt).Cond
		assert.Equal(t, CallExpr{Func: SymDebugNotIdentical, Args: []Expr{
			StringExpr{Value: "delay"}, FieldExpr{Name: "field_1"}, ParamExpr{Name: "value"},
		}}, cond)
	})

	t.Run("change tracking wires the accumulator", func(t *testing.T) {
		m := tooltip()
		m.Lifecycle = []Lifecycle{LifecycleOnInit, LifecycleOnChanges}

		c := Generate(m, Options{})

		require.NotNil(t, c.Changes)
		assert.Equal(t, ChangesField, c.Changes.Name)
		assert.Contains(t, c.Constructor.Body, Stmt(SetFieldStmt{
			Field: ChangesField,
			Value: CallExpr{Func: SymNewChanges, Args: []Expr{ParamExpr{Name: DirectiveParam}}},
		}))

		assert.Equal(t, OrExpr{
			X: NotExpr{X: SeenExpr{Input: "delay"}},
			Y: NotExpr{X: CallExpr{Func: SymLooseIdentical, Args: []Expr{
				FieldExpr{Name: "field_1"}, ParamExpr{Name: "value"},
			}}},
		}, c.Methods[1].Body[0].(IfStmt).Cond)

		assert.Equal(t, []Stmt{
			SetPropertyStmt{Property: "Delay", Value: ParamExpr{Name: "value"}},
			RecordChangeStmt{Input: "delay", Previous: FieldExpr{Name: "field_1"}, Current: ParamExpr{Name: "value"}},
			SetFieldStmt{Field: "field_1", Value: ParamExpr{Name: "value"}},
		}, c.Methods[1].Body[0].(IfStmt).Then)
	})

	t.Run("property overrides", func(t *testing.T) {
		m := &DirectiveMetadata{
			Type:   TypeRef{Name: "Highlight"},
			Inputs: []Input{{Name: "color", Type: "string", Property: "Background"}},
		}

		c := Generate(m, Options{})

		assert.Equal(t, SetPropertyStmt{Property: "Background", Value: ParamExpr{Name: "value"}},
			c.Methods[0].Body[0].(IfStmt).Then[0])
	})

	t.Run("is deterministic", func(t *testing.T) {
		m := tooltip()
		m.Lifecycle = []Lifecycle{LifecycleOnChanges}

		assert.Equal(t, Generate(m, Options{}), Generate(m, Options{}))
	})

	t.Run("panics on ineligible directives", func(t *testing.T) {
		m := tooltip()
		m.IsComponent = true

		defer func() {
			r := recover()
			require.NotNil(t, r)

			err, ok := r.(*ContractError)
			require.True(t, ok)
			assert.ErrorIs(t, err, ErrNotEligible)
			assert.Equal(t, "github.com/acme/widgets.Tooltip", err.Directive)
		}()

		Generate(m, Options{})
	})
}

func TestMetadata(t *testing.T) {
	t.Run("parses lifecycles", func(t *testing.T) {
		for in, want := range map[string]Lifecycle{
			"OnChanges":  LifecycleOnChanges,
			"ngOnInit":   LifecycleOnInit,
			"docheck":    LifecycleDoCheck,
			"OnDestroy ": LifecycleOnDestroy,
		} {
			got, err := ParseLifecycle(in)
			require.NoError(t, err, in)
			assert.Equal(t, want, got, in)
		}

		_, err := ParseLifecycle("OnSomething")
		assert.ErrorIs(t, err, ErrUnknownLifecycle)
		assert.Equal(t, "AfterViewChecked", LifecycleAfterViewChecked.String())
	})

	t.Run("validates names", func(t *testing.T) {
		assert.NoError(t, tooltip().Validate())

		m := tooltip()
		m.Inputs = append(m.Inputs, Input{Name: "text"})
		assert.ErrorIs(t, m.Validate(), ErrInvalidMetadata)

		m = tooltip()
		m.Inputs[0].Name = "not-an-ident"
		assert.ErrorIs(t, m.Validate(), ErrInvalidMetadata)

		m = tooltip()
		m.Inputs[0].Property = "hidden"
		assert.ErrorIs(t, m.Validate(), ErrInvalidMetadata)

		m = tooltip()
		m.Type.Name = ""
		assert.ErrorIs(t, m.Validate(), ErrInvalidMetadata)

		m = tooltip()
		m.Inputs[2].Type = "map[string"
		assert.ErrorIs(t, m.Validate(), ErrInvalidMetadata)
	})

	t.Run("primitive types", func(t *testing.T) {
		assert.True(t, IsPrimitive("num"))
		assert.True(t, IsPrimitive("bool"))
		assert.False(t, IsPrimitive("[]string"))
		assert.False(t, IsPrimitive(""))
	})
}
