package eventplugin

import "sync"

// Event is a UI event delivered to listeners.
type Event struct {
	Type string
	Key  string

	Alt   bool
	Ctrl  bool
	Meta  bool
	Shift bool

	Target Target
	Data   any
}

// Target is anything native listeners can be attached to.
type Target interface {
	Listen(eventType string, fn func(Event)) (remove func())
}

// Element is an in-memory Target. Fire delivers events to its listeners in
// registration order.
type Element struct {
	Name string

	mu        sync.Mutex
	nextID    int
	listeners map[string][]listener
}

type listener struct {
	id int
	fn func(Event)
}

func NewElement(name string) *Element {
	return &Element{Name: name, listeners: make(map[string][]listener)}
}

func (el *Element) Listen(eventType string, fn func(Event)) (remove func()) {
	el.mu.Lock()
	defer el.mu.Unlock()

	id := el.nextID
	el.nextID++
	el.listeners[eventType] = append(el.listeners[eventType], listener{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { el.remove(eventType, id) })
	}
}

func (el *Element) remove(eventType string, id int) {
	el.mu.Lock()
	defer el.mu.Unlock()

	ls := el.listeners[eventType]
	for i, l := range ls {
		if l.id == id {
			el.listeners[eventType] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// Listeners returns the number of listeners for eventType.
func (el *Element) Listeners(eventType string) int {
	el.mu.Lock()
	defer el.mu.Unlock()
	return len(el.listeners[eventType])
}

// Fire delivers e to the listeners of e.Type. Target is set to el when empty.
func (el *Element) Fire(e Event) {
	if e.Target == nil {
		e.Target = el
	}

	el.mu.Lock()
	ls := append([]listener(nil), el.listeners[e.Type]...)
	el.mu.Unlock()

	for _, l := range ls {
		l.fn(e)
	}
}
