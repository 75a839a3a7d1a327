package eventplugin

import (
	"slices"
	"sync"

	"github.com/AnatoleLucet/turn/internal/logging"
	"github.com/charmbracelet/log"
)

// Runner runs handlers inside the tracked context. Errors and panics are
// reported by the runner, never returned to the event source.
type Runner interface {
	RunGuarded(fn func() error)
}

// Dispatcher is implemented by runners that must be called from their own
// loop goroutine. Handlers are then posted through Dispatch.
type Dispatcher interface {
	Dispatch(fn func())
}

// Handler receives events. A returned error is reported by the Runner.
type Handler func(Event) error

// Manager routes listener registrations to the plugin supporting each event.
// Plugins are searched last registered first and the result is cached per
// event name until the plugin list changes.
type Manager struct {
	runner Runner
	logger *log.Logger

	mu      sync.Mutex
	plugins []Plugin
	cache   map[string]Plugin
}

func NewManager(runner Runner, plugins ...Plugin) *Manager {
	return &Manager{
		runner:  runner,
		logger:  logging.Discard(),
		plugins: slices.Clone(plugins),
		cache:   make(map[string]Plugin),
	}
}

func (m *Manager) SetLogger(l *log.Logger) { m.logger = l }

// Register appends plugins, which take precedence over the ones already
// registered.
func (m *Manager) Register(plugins ...Plugin) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plugins = append(m.plugins, plugins...)
	clear(m.cache)
}

// Plugin returns the plugin handling eventName.
func (m *Manager) Plugin(eventName string) (Plugin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.cache[eventName]; ok {
		return p, nil
	}

	for i := len(m.plugins) - 1; i >= 0; i-- {
		if p := m.plugins[i]; p.Supports(eventName) {
			m.cache[eventName] = p
			return p, nil
		}
	}

	return nil, &NoPluginError{EventName: eventName}
}

// AddEventListener attaches handler to target for eventName.
func (m *Manager) AddEventListener(target Target, eventName string, handler Handler) (remove func(), err error) {
	p, err := m.Plugin(eventName)
	if err != nil {
		return nil, err
	}

	remove, err = p.AddEventListener(target, eventName, m.wrap(handler))
	if err != nil {
		return nil, err
	}

	m.logger.Debug("listener added", "event", eventName)
	return remove, nil
}

// AddGlobalEventListener attaches handler to the named global target.
func (m *Manager) AddGlobalEventListener(global, eventName string, handler Handler) (remove func(), err error) {
	p, err := m.Plugin(eventName)
	if err != nil {
		return nil, err
	}

	remove, err = p.AddGlobalEventListener(global, eventName, m.wrap(handler))
	if err != nil {
		return nil, err
	}

	m.logger.Debug("global listener added", "target", global, "event", eventName)
	return remove, nil
}

func (m *Manager) wrap(handler Handler) func(Event) {
	return func(e Event) {
		run := func() {
			m.runner.RunGuarded(func() error { return handler(e) })
		}

		if d, ok := m.runner.(Dispatcher); ok {
			d.Dispatch(run)
			return
		}
		run()
	}
}
