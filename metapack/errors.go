package metapack

import "fmt"

// FormatError is returned when reading a corrupt or malformed MetaPack
// file: a missing header/payload separator, invalid header JSON, a missing
// required header field, or a payload that fails to decode per its
// declared encoding.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("metapack: malformed artifact %s: %s", e.Path, e.Reason)
}
