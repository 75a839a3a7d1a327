// Package turn pairs a zone that tracks asynchronous work in turns with a
// generator of per-directive change detectors that run at turn boundaries.
package turn

import (
	"time"

	"github.com/AnatoleLucet/turn/internal/cdgen"
	"github.com/AnatoleLucet/turn/internal/eventplugin"
	"github.com/AnatoleLucet/turn/internal/zone"
)

type (
	Options    = zone.Options
	TurnEvent  = zone.TurnEvent
	ErrorEvent = zone.ErrorEvent
	Snapshot   = zone.Snapshot
	Timer      = zone.Timer
	Context    = zone.Context
	Scheduler  = zone.Scheduler
	Clock      = zone.Clock
	FakeClock  = zone.FakeClock
	PanicError = zone.PanicError
	State      = zone.State
)

type Emitter[T any] = zone.Emitter[T]

// Zone tracks the work running in its inner context and emits turn
// boundaries on its event streams.
type Zone struct {
	*zone.Tracker
}

// NewZone creates a zone. Without a Scheduler or Clock in opts it runs on
// the real clock.
func NewZone(opts Options) *Zone {
	return &Zone{zone.New(opts)}
}

// NewFakeClock returns a clock that only moves through Scheduler.Advance.
func NewFakeClock(start time.Time) *FakeClock {
	return zone.NewFakeClock(start)
}

// Run executes fn inside the zone and returns its result.
func Run[R any](z *Zone, fn func() R) R {
	return zone.Run(z.Tracker, fn)
}

// RunUnary executes fn(a) inside the zone.
func RunUnary[A, R any](z *Zone, fn func(A) R, a A) R {
	return zone.RunUnary(z.Tracker, fn, a)
}

// RunBinary executes fn(a, b) inside the zone.
func RunBinary[A, B, R any](z *Zone, fn func(A, B) R, a A, b B) R {
	return zone.RunBinary(z.Tracker, fn, a, b)
}

// RunOutside executes fn outside the zone, where nothing it schedules is
// tracked.
func RunOutside[R any](z *Zone, fn func() R) R {
	return zone.RunOutside(z.Tracker, fn)
}

// Current returns the context executing on the calling goroutine.
func Current() *Context {
	return zone.Current()
}

type (
	DirectiveMetadata = cdgen.DirectiveMetadata
	Input             = cdgen.Input
	TypeRef           = cdgen.TypeRef
	Lifecycle         = cdgen.Lifecycle
	GenerateOptions   = cdgen.Options
	Detector          = cdgen.Detector
	DetectorClass     = cdgen.Class
	ContractError     = cdgen.ContractError
)

const (
	LifecycleOnChanges           = cdgen.LifecycleOnChanges
	LifecycleOnInit              = cdgen.LifecycleOnInit
	LifecycleDoCheck             = cdgen.LifecycleDoCheck
	LifecycleAfterContentInit    = cdgen.LifecycleAfterContentInit
	LifecycleAfterContentChecked = cdgen.LifecycleAfterContentChecked
	LifecycleAfterViewInit       = cdgen.LifecycleAfterViewInit
	LifecycleAfterViewChecked    = cdgen.LifecycleAfterViewChecked
	LifecycleOnDestroy           = cdgen.LifecycleOnDestroy
)

// RequiresChangeDetector reports whether GenerateDetector may be called for m.
func RequiresChangeDetector(m *DirectiveMetadata) bool {
	return cdgen.RequiresChangeDetector(m)
}

// GenerateDetector builds the change detector class of m. It panics with a
// *ContractError when RequiresChangeDetector(m) is false.
func GenerateDetector(m *DirectiveMetadata, opts GenerateOptions) *DetectorClass {
	return cdgen.Generate(m, opts)
}

// RenderDetector writes c as Go source for the package pkg at importPath.
func RenderDetector(c *DetectorClass, pkg, importPath string) ([]byte, error) {
	return cdgen.Render(c, cdgen.RenderOptions{Package: pkg, ImportPath: importPath})
}

// NewDetector runs the class constructor of c for directive, without
// generating source.
func NewDetector(c *DetectorClass, directive any) (*Detector, error) {
	return cdgen.Instantiate(c, directive)
}

type (
	Event        = eventplugin.Event
	Target       = eventplugin.Target
	Element      = eventplugin.Element
	EventPlugin  = eventplugin.Plugin
	EventHandler = eventplugin.Handler
	EventManager = eventplugin.Manager
)

// NewEventManager returns an event manager running handlers inside z. The
// DOM and key plugins are registered first, then plugins.
func NewEventManager(z *Zone, globals map[string]Target, plugins ...EventPlugin) *EventManager {
	all := append([]EventPlugin{eventplugin.NewDOMPlugin(globals), eventplugin.NewKeyPlugin()}, plugins...)
	return eventplugin.NewManager(z.Tracker, all...)
}

// NewElement returns an in-memory event target.
func NewElement(name string) *Element {
	return eventplugin.NewElement(name)
}
