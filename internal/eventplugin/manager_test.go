package eventplugin

import (
	"errors"
	"testing"
	"time"

	"github.com/AnatoleLucet/turn/internal/zone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inline runs handlers directly, returning errors through errs.
type inline struct {
	errs []error
}

func (r *inline) RunGuarded(fn func() error) {
	if err := fn(); err != nil {
		r.errs = append(r.errs, err)
	}
}

// fakePlugin supports a fixed set of events and logs its registrations.
type fakePlugin struct {
	NoGlobals
	events []string
	log    *[]string
	checks int
}

func (p *fakePlugin) Supports(eventName string) bool {
	p.checks++
	for _, e := range p.events {
		if e == eventName {
			return true
		}
	}
	return false
}

func (p *fakePlugin) AddEventListener(target Target, eventName string, handler func(Event)) (func(), error) {
	*p.log = append(*p.log, p.Plugin+":"+eventName)
	return target.Listen(eventName, handler), nil
}

func TestManager(t *testing.T) {
	t.Run("routes to the last registered plugin", func(t *testing.T) {
		log := []string{}
		first := &fakePlugin{NoGlobals: NoGlobals{Plugin: "first"}, events: []string{"click", "input"}, log: &log}
		second := &fakePlugin{NoGlobals: NoGlobals{Plugin: "second"}, events: []string{"click"}, log: &log}

		m := NewManager(&inline{}, first, second)
		el := NewElement("button")

		_, err := m.AddEventListener(el, "click", func(Event) error { return nil })
		require.NoError(t, err)
		_, err = m.AddEventListener(el, "input", func(Event) error { return nil })
		require.NoError(t, err)

		assert.Equal(t, []string{"second:click", "first:input"}, log)
	})

	t.Run("memoizes lookups until registration changes", func(t *testing.T) {
		log := []string{}
		p := &fakePlugin{NoGlobals: NoGlobals{Plugin: "p"}, events: []string{"click"}, log: &log}
		m := NewManager(&inline{}, p)

		for range 3 {
			got, err := m.Plugin("click")
			require.NoError(t, err)
			assert.Same(t, p, got)
		}
		assert.Equal(t, 1, p.checks)

		override := &fakePlugin{NoGlobals: NoGlobals{Plugin: "override"}, events: []string{"click"}, log: &log}
		m.Register(override)

		got, err := m.Plugin("click")
		require.NoError(t, err)
		assert.Same(t, override, got)
	})

	t.Run("fails when no plugin supports the event", func(t *testing.T) {
		m := NewManager(&inline{}, NewKeyPlugin())

		_, err := m.AddEventListener(NewElement("div"), "click", func(Event) error { return nil })

		var noPlugin *NoPluginError
		require.ErrorAs(t, err, &noPlugin)
		assert.Equal(t, "click", noPlugin.EventName)
		assert.ErrorIs(t, err, ErrNoPlugin)
	})

	t.Run("reports unsupported operations", func(t *testing.T) {
		m := NewManager(&inline{}, NewKeyPlugin())

		_, err := m.AddGlobalEventListener("window", "keydown.enter", func(Event) error { return nil })
		assert.ErrorIs(t, err, ErrUnsupported)
	})

	t.Run("routes handler errors to the runner", func(t *testing.T) {
		runner := &inline{}
		m := NewManager(runner, NewDOMPlugin(nil))
		el := NewElement("button")

		boom := errors.New("boom")
		_, err := m.AddEventListener(el, "click", func(Event) error { return boom })
		require.NoError(t, err)

		el.Fire(Event{Type: "click"})
		assert.Equal(t, []error{boom}, runner.errs)
	})

	t.Run("removes listeners", func(t *testing.T) {
		m := NewManager(&inline{}, NewDOMPlugin(nil))
		el := NewElement("button")

		calls := 0
		remove, err := m.AddEventListener(el, "click", func(Event) error { calls++; return nil })
		require.NoError(t, err)

		el.Fire(Event{Type: "click"})
		remove()
		remove()
		el.Fire(Event{Type: "click"})

		assert.Equal(t, 1, calls)
		assert.Equal(t, 0, el.Listeners("click"))
	})
}

func TestManagerZone(t *testing.T) {
	t.Run("events start turns", func(t *testing.T) {
		log := []string{}
		tr := zone.New(zone.Options{Clock: zone.NewFakeClock(time.Unix(0, 0))})
		tr.OnTurnStart().Subscribe(func(zone.TurnEvent) { log = append(log, "start") })
		tr.OnTurnDone().Subscribe(func(zone.TurnEvent) { log = append(log, "done") })

		m := NewManager(tr, NewDOMPlugin(nil))
		el := NewElement("button")

		_, err := m.AddEventListener(el, "click", func(e Event) error {
			log = append(log, "click")
			assert.True(t, tr.IsInInnerZone())
			assert.Same(t, el, e.Target)

			tr.Inner().ScheduleMicrotask(func() { log = append(log, "microtask") })
			return nil
		})
		require.NoError(t, err)

		el.Fire(Event{Type: "click"})
		assert.Equal(t, []string{"start", "click"}, log)

		tr.Scheduler().RunMicrotasks()
		assert.Equal(t, []string{"start", "click", "microtask", "done"}, log)
	})

	t.Run("handler failures reach the error stream", func(t *testing.T) {
		errs := []error{}
		tr := zone.New(zone.Options{Clock: zone.NewFakeClock(time.Unix(0, 0))})
		tr.OnError().Subscribe(func(e zone.ErrorEvent) { errs = append(errs, e.Err) })

		m := NewManager(tr, NewDOMPlugin(nil))
		el := NewElement("button")

		_, err := m.AddEventListener(el, "click", func(Event) error { panic("boom") })
		require.NoError(t, err)

		assert.NotPanics(t, func() { el.Fire(Event{Type: "click"}) })
		require.Len(t, errs, 1)

		var pe *zone.PanicError
		require.ErrorAs(t, errs[0], &pe)
		assert.Equal(t, "boom", pe.Value)
	})
}

func TestDOMPlugin(t *testing.T) {
	t.Run("resolves globals", func(t *testing.T) {
		window := NewElement("window")
		m := NewManager(&inline{}, NewDOMPlugin(map[string]Target{"window": window}))

		calls := 0
		_, err := m.AddGlobalEventListener("window", "resize", func(Event) error { calls++; return nil })
		require.NoError(t, err)

		window.Fire(Event{Type: "resize"})
		assert.Equal(t, 1, calls)

		_, err = m.AddGlobalEventListener("screen", "resize", func(Event) error { return nil })
		assert.ErrorIs(t, err, ErrUnsupported)
	})
}

func TestKeyPlugin(t *testing.T) {
	t.Run("parses key event names", func(t *testing.T) {
		f, ok := ParseKeyEvent("keydown.shift.control.Enter")
		require.True(t, ok)
		assert.Equal(t, KeyFilter{Type: "keydown", FullKey: "control.shift.enter"}, f)

		f, ok = ParseKeyEvent("keyup.esc")
		require.True(t, ok)
		assert.Equal(t, "escape", f.FullKey)

		for _, name := range []string{"keydown", "click.enter", "keydown.hyper.enter", "keydown.shift.shift.a"} {
			_, ok := ParseKeyEvent(name)
			assert.False(t, ok, name)
		}
	})

	t.Run("filters by key and modifiers", func(t *testing.T) {
		keys := []string{}
		m := NewManager(&inline{}, NewDOMPlugin(nil), NewKeyPlugin())
		el := NewElement("input")

		_, err := m.AddEventListener(el, "keydown.shift.enter", func(e Event) error {
			keys = append(keys, e.Key)
			return nil
		})
		require.NoError(t, err)

		el.Fire(Event{Type: "keydown", Key: "Enter"})
		el.Fire(Event{Type: "keydown", Key: "Enter", Shift: true})
		el.Fire(Event{Type: "keydown", Key: "Enter", Shift: true, Ctrl: true})
		el.Fire(Event{Type: "keyup", Key: "Enter", Shift: true})

		assert.Equal(t, []string{"Enter"}, keys)
	})

	t.Run("does not repeat the modifier being pressed", func(t *testing.T) {
		assert.Equal(t, "shift", EventFullKey(Event{Key: "Shift", Shift: true}))
		assert.Equal(t, "control.space", EventFullKey(Event{Key: " ", Ctrl: true}))
	})

	t.Run("aliases keys in any case", func(t *testing.T) {
		assert.Equal(t, "escape", EventFullKey(Event{Key: "Esc"}))
		assert.Equal(t, "delete", EventFullKey(Event{Key: "Del"}))

		f, ok := ParseKeyEvent("keyup.Esc")
		require.True(t, ok)
		assert.Equal(t, "escape", f.FullKey)

		fired := 0
		m := NewManager(&inline{}, NewDOMPlugin(nil), NewKeyPlugin())
		el := NewElement("input")

		_, err := m.AddEventListener(el, "keyup.esc", func(Event) error {
			fired++
			return nil
		})
		require.NoError(t, err)

		el.Fire(Event{Type: "keyup", Key: "Esc"})
		el.Fire(Event{Type: "keyup", Key: "Escape"})

		assert.Equal(t, 2, fired)
	})
}
