package exitcode

import (
	"errors"
	"testing"

	"github.com/sourcemeta-go/registryindex/runerr"
)

func TestForErrorNilIsSuccess(t *testing.T) {
	if got := ForError(nil); got != Success {
		t.Fatalf("ForError(nil) = %d, want %d", got, Success)
	}
}

func TestForErrorEnvelopeMapsKind(t *testing.T) {
	err := runerr.New(runerr.KindDuplicateIdentifier, "dup")
	if got := ForError(err); got != DuplicateIdentifier {
		t.Fatalf("ForError(duplicate) = %d, want %d", got, DuplicateIdentifier)
	}
}

func TestForErrorGenericFallback(t *testing.T) {
	if got := ForError(errors.New("boom")); got != GenericFailure {
		t.Fatalf("ForError(generic) = %d, want %d", got, GenericFailure)
	}
}
