package eventplugin

import (
	"errors"
	"fmt"
)

var (
	ErrNoPlugin    = errors.New("eventplugin: no plugin for event")
	ErrUnsupported = errors.New("eventplugin: operation not supported")
)

// NoPluginError is returned when no registered plugin supports an event.
type NoPluginError struct {
	EventName string
}

func (e *NoPluginError) Error() string {
	return fmt.Sprintf("eventplugin: no plugin for event %q", e.EventName)
}

func (e *NoPluginError) Unwrap() error { return ErrNoPlugin }
