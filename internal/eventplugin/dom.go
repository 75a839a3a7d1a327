package eventplugin

import "fmt"

// DOMPlugin attaches listeners directly to targets. It supports every event
// and is meant to be registered first so that more specific plugins win.
type DOMPlugin struct {
	globals map[string]Target
}

// NewDOMPlugin returns a DOMPlugin resolving global listeners through
// globals, keyed by name.
func NewDOMPlugin(globals map[string]Target) *DOMPlugin {
	return &DOMPlugin{globals: globals}
}

func (p *DOMPlugin) Supports(string) bool { return true }

func (p *DOMPlugin) AddEventListener(target Target, eventName string, handler func(Event)) (func(), error) {
	return target.Listen(eventName, handler), nil
}

func (p *DOMPlugin) AddGlobalEventListener(global, eventName string, handler func(Event)) (func(), error) {
	target, ok := p.globals[global]
	if !ok {
		return nil, fmt.Errorf("dom: unknown global target %q: %w", global, ErrUnsupported)
	}
	return p.AddEventListener(target, eventName, handler)
}
