// Package exitcode maps the indexer's error kinds (package runerr) onto the
// process exit codes spec.md §6 requires: 0 on success, a distinct non-zero
// code per failure kind so callers (CI, the enterprise server's rebuild
// trigger) can distinguish "bad configuration" from "corrupt artifact"
// without parsing stderr. It is grounded on foundry/exit_codes.go's
// re-exported constant table, rewritten self-contained: the teacher's
// version re-exports generated bindings from a private "crucible" catalog
// module this rewrite has no access to (see DESIGN.md), so the codes here
// are a small fixed table scoped to exactly the six runerr.Kind values.
package exitcode

import (
	"errors"

	"github.com/sourcemeta-go/registryindex/config"
	"github.com/sourcemeta-go/registryindex/metapack"
	"github.com/sourcemeta-go/registryindex/runerr"
)

// Code is a process exit code.
type Code = int

const (
	Success                 Code = 0
	GenericFailure          Code = 1
	ConfigurationValidation Code = 20
	ResolverOutsideBase     Code = 21
	DuplicateIdentifier     Code = 22
	SchemaResolution        Code = 23
	MetaPackFormat          Code = 24
	URIParse                Code = 25
)

// ForKind returns the exit code for a runerr.Kind, or GenericFailure if the
// kind is unrecognised.
func ForKind(kind runerr.Kind) Code {
	switch kind {
	case runerr.KindConfigurationValidation:
		return ConfigurationValidation
	case runerr.KindResolverOutsideBase:
		return ResolverOutsideBase
	case runerr.KindDuplicateIdentifier:
		return DuplicateIdentifier
	case runerr.KindSchemaResolution:
		return SchemaResolution
	case runerr.KindMetaPackFormat:
		return MetaPackFormat
	case runerr.KindURIParse:
		return URIParse
	default:
		return GenericFailure
	}
}

// ForError searches err's wrap chain for a *runerr.Envelope and returns its
// exit code; a *config.ValidationError or *config.CycleError maps to
// ConfigurationValidation and a *metapack.FormatError to MetaPackFormat.
// Any other non-nil error maps to GenericFailure, and nil maps to Success.
func ForError(err error) Code {
	if err == nil {
		return Success
	}
	var env *runerr.Envelope
	if errors.As(err, &env) {
		return ForKind(env.Kind)
	}
	var validation *config.ValidationError
	var cycle *config.CycleError
	if errors.As(err, &validation) || errors.As(err, &cycle) {
		return ConfigurationValidation
	}
	var format *metapack.FormatError
	if errors.As(err, &format) {
		return MetaPackFormat
	}
	return GenericFailure
}
