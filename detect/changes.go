package detect

// SimpleChange is one input's change within a batch.
type SimpleChange struct {
	Previous    any
	Current     any
	FirstChange bool
}

func (c SimpleChange) IsFirstChange() bool { return c.FirstChange }

// OnChanges is implemented by directives that want the batch of changed
// inputs once per check.
type OnChanges interface {
	OnChanges(changes map[string]SimpleChange)
}

// Changes accumulates input changes for one directive until Deliver hands
// them over.
type Changes struct {
	directive any

	pending map[string]SimpleChange
	seen    map[string]struct{}
}

func NewChanges(directive any) *Changes {
	return &Changes{
		directive: directive,
		seen:      make(map[string]struct{}),
	}
}

func (c *Changes) Directive() any { return c.directive }

// Record adds a change for input. Several changes to the same input within a
// batch collapse into one keeping the oldest previous value.
func (c *Changes) Record(input string, previous, current any) {
	if c.pending == nil {
		c.pending = make(map[string]SimpleChange)
	}

	if change, ok := c.pending[input]; ok {
		change.Current = current
		c.pending[input] = change
		return
	}

	_, seen := c.seen[input]
	c.seen[input] = struct{}{}

	c.pending[input] = SimpleChange{Previous: previous, Current: current, FirstChange: !seen}
}

// Seen reports whether a change to input was ever recorded.
func (c *Changes) Seen(input string) bool {
	_, ok := c.seen[input]
	return ok
}

func (c *Changes) HasChanges() bool { return len(c.pending) > 0 }

// Pending returns a copy of the current batch.
func (c *Changes) Pending() map[string]SimpleChange {
	batch := make(map[string]SimpleChange, len(c.pending))
	for k, v := range c.pending {
		batch[k] = v
	}
	return batch
}

// Deliver passes the batch to the directive's OnChanges hook and starts a new
// one. It reports whether there was anything to deliver.
func (c *Changes) Deliver() bool {
	if len(c.pending) == 0 {
		return false
	}

	batch := c.pending
	c.pending = nil

	if hook, ok := c.directive.(OnChanges); ok {
		hook.OnChanges(batch)
	}

	return true
}
