// Package detect is the runtime support imported by generated change detectors:
// the comparison strategies guarding every update method and the changes
// accumulator used by directives that implement OnChanges.
package detect
