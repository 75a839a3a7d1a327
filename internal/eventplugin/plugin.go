package eventplugin

import "fmt"

// Plugin is a strategy for attaching listeners to one family of events.
type Plugin interface {
	Supports(eventName string) bool

	AddEventListener(target Target, eventName string, handler func(Event)) (remove func(), err error)

	// AddGlobalEventListener attaches to a well-known global target such as
	// "window", "document" or "body".
	AddGlobalEventListener(global, eventName string, handler func(Event)) (remove func(), err error)
}

// NoGlobals can be embedded by plugins that only handle concrete targets.
type NoGlobals struct {
	Plugin string
}

func (n NoGlobals) AddGlobalEventListener(global, eventName string, _ func(Event)) (func(), error) {
	return nil, fmt.Errorf("%s: %s on %s: %w", n.Plugin, eventName, global, ErrUnsupported)
}
