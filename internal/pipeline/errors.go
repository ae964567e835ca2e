package pipeline

import "fmt"

// ConfigError is a fatal run-parameter problem, reported before any data
// is read.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return "configuration error: " + e.Reason
}

func (e *ConfigError) Unwrap() error { return e.Err }

// EmptyResultError means zero rows remained after read, filter and
// projection. A zero-row file is never a valid deliverable for this
// dataset, so the run fails and no output is written.
type EmptyResultError struct {
	Mode string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no rows to write for mode %s: empty or fully filtered input", e.Mode)
}
