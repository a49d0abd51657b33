package config

import "fmt"

// ValidationError reports a ConfigurationValidationError (spec.md §7):
// a missing or mistyped configuration field, located by a JSON Pointer
// into the merged document.
type ValidationError struct {
	File    string
	Pointer string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Pointer == "" {
		return fmt.Sprintf("ConfigurationValidationError: %s (%s)", e.Message, e.File)
	}
	return fmt.Sprintf("ConfigurationValidationError: %s (%s%s)", e.Message, e.File, e.Pointer)
}

// CycleError reports an `extends` chain that revisits a file already being
// read — spec.md §9 flags this as a case the original never guarded
// against and asks reimplementers to detect and reject during preprocess.
type CycleError struct {
	Path string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("ConfigurationValidationError: 'extends' chain cycles back to %s", e.Path)
}
