package manifest

import "fmt"

// Build stages named in error messages.
const (
	StageGeneration    = "generation"
	StageSerialization = "serialization"
	StageWrite         = "write"
)

// ConfigurationError reports invalid or conflicting generator input.
// No bundle is produced when it is returned.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: field %s: %s", StageGeneration, e.Field, e.Reason)
}

// SerializationError reports a bundle that a format cannot represent.
type SerializationError struct {
	Format   Format
	Resource string
	Reason   string
	Err      error
}

func (e *SerializationError) Error() string {
	msg := fmt.Sprintf("%s: format %s", StageSerialization, e.Format)
	if e.Resource != "" {
		msg += fmt.Sprintf(": resource %s", e.Resource)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// IOError reports a failed manifest write. Files it names were not committed.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", StageWrite, e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
