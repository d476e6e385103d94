package rulekey

import (
	"fmt"

	bErrors "rulekeybuilder/pkg/errors"
)

// Error codes from spec.md §7, as package-local aliases of the
// pkg/errors codes used when this package builds its errors.
const (
	codeAmbiguousPath        = bErrors.ErrAmbiguousPath
	codeMissingFileHash      = bErrors.ErrMissingFileHash
	codeUnsupportedValue     = bErrors.ErrUnsupportedValue
	codeUnorderedCollection  = bErrors.ErrUnorderedCollection
	codeInvalidArchiveMember = bErrors.ErrInvalidArchiveMember
	codeCyclicRuleGraph      = bErrors.ErrCyclicRuleGraph
)

// newBuildError constructs a *pkg/errors.BuildError for the rule-key
// error kinds named in spec.md §7. Every error this package returns goes
// through here (or newBuildErrorf, below) so the CLI's ErrorHandler always sees a
// *bErrors.BuildError regardless of where in the core it originated.
func newBuildError(code bErrors.ErrorCode, message string) error {
	return bErrors.New(code, message)
}

func newBuildErrorf(code bErrors.ErrorCode, format string, args ...interface{}) error {
	return bErrors.New(code, fmt.Sprintf(format, args...))
}

// errInternalf reports a programmer error in how this package's own API
// is used (as opposed to a user-facing error kind from spec.md §7).
func errInternalf(format string, args ...interface{}) error {
	return bErrors.New(bErrors.ErrUnknown, fmt.Sprintf(format, args...))
}
