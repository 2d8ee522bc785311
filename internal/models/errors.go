package models

import "errors"

// Store-level sentinels. Backends translate their driver errors into these
// so callers never depend on a particular driver.
var (
	ErrNoRecord  = errors.New("models: no matching record found")
	ErrEventFull = errors.New("models: event is at capacity")
)
