package detect

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooseIdentical(t *testing.T) {
	t.Run("compares comparable values", func(t *testing.T) {
		assert.True(t, LooseIdentical(5, 5))
		assert.False(t, LooseIdentical(5, 6))
		assert.True(t, LooseIdentical("a", "a"))
		assert.True(t, LooseIdentical(nil, nil))
		assert.False(t, LooseIdentical(nil, 0))
		assert.False(t, LooseIdentical(int32(1), int64(1)))
	})

	t.Run("treats NaN as identical to itself", func(t *testing.T) {
		assert.True(t, LooseIdentical(math.NaN(), math.NaN()))
		assert.False(t, LooseIdentical(math.NaN(), 1.0))
	})

	t.Run("uses identity for reference types", func(t *testing.T) {
		s := []int{1, 2}
		m := map[string]int{"a": 1}

		assert.True(t, LooseIdentical(s, s))
		assert.False(t, LooseIdentical(s, []int{1, 2}))
		assert.False(t, LooseIdentical(s, s[:1]))
		assert.True(t, LooseIdentical(m, m))
		assert.False(t, LooseIdentical(m, map[string]int{"a": 1}))

		fn := func() {}
		assert.False(t, LooseIdentical(fn, fn))
	})
}

func TestDebugNotIdentical(t *testing.T) {
	t.Run("reports dynamic type changes", func(t *testing.T) {
		reports := []error{}
		restore := SetDiagnostics(func(err error) { reports = append(reports, err) })
		defer restore()

		assert.False(t, DebugNotIdentical("value", 1, 1))
		assert.True(t, DebugNotIdentical("value", 1, 2))
		assert.Empty(t, reports)

		assert.True(t, DebugNotIdentical("value", 1, "1"))
		require.Len(t, reports, 1)
		assert.True(t, errors.Is(reports[0], ErrIncompatibleTypes))

		var cerr *ComparisonError
		require.ErrorAs(t, reports[0], &cerr)
		assert.Equal(t, "value", cerr.Input)
		assert.Equal(t, "int", cerr.PreviousType)
		assert.Equal(t, "string", cerr.CurrentType)
	})

	t.Run("does not report nil transitions", func(t *testing.T) {
		reports := 0
		restore := SetDiagnostics(func(error) { reports++ })
		defer restore()

		assert.True(t, DebugNotIdentical("value", nil, 1))
		assert.Equal(t, 0, reports)
	})
}

type listener struct {
	batches []map[string]SimpleChange
}

func (l *listener) OnChanges(changes map[string]SimpleChange) {
	l.batches = append(l.batches, changes)
}

func TestChanges(t *testing.T) {
	t.Run("delivers batches to the directive", func(t *testing.T) {
		dir := &listener{}
		c := NewChanges(dir)
		assert.Same(t, dir, c.Directive())

		assert.False(t, c.Deliver())

		c.Record("a", nil, 1)
		c.Record("b", nil, "x")
		assert.True(t, c.HasChanges())
		assert.True(t, c.Deliver())
		assert.False(t, c.HasChanges())

		c.Record("a", 1, 2)
		c.Deliver()

		require.Len(t, dir.batches, 2)
		assert.Equal(t, map[string]SimpleChange{
			"a": {Previous: nil, Current: 1, FirstChange: true},
			"b": {Previous: nil, Current: "x", FirstChange: true},
		}, dir.batches[0])
		assert.Equal(t, map[string]SimpleChange{
			"a": {Previous: 1, Current: 2, FirstChange: false},
		}, dir.batches[1])
	})

	t.Run("collapses repeated changes within a batch", func(t *testing.T) {
		c := NewChanges(nil)

		c.Record("a", 0, 1)
		c.Record("a", 1, 2)

		assert.Equal(t, map[string]SimpleChange{
			"a": {Previous: 0, Current: 2, FirstChange: true},
		}, c.Pending())
	})

	t.Run("remembers seen inputs across batches", func(t *testing.T) {
		c := NewChanges(nil)
		assert.False(t, c.Seen("a"))

		c.Record("a", 0, 0)
		assert.True(t, c.Seen("a"))
		assert.False(t, c.Seen("b"))

		c.Deliver()
		assert.True(t, c.Seen("a"))
	})
}
