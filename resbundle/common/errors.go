package common

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the resolution engine. Absence of a value is never
// one of these; lookups report it with a false ok flag.
var (
	ErrUnknownQualifierToken        = errors.New("unknown qualifier token")
	ErrConflictingVersionQualifiers = errors.New("conflicting version qualifiers")
	ErrIndexCollision               = errors.New("resource index collision")
	ErrSealedTreeMutation           = errors.New("resource tree is sealed")
	ErrTreeNotSealed                = errors.New("resource tree is not sealed")
	ErrNamespaceRoutingConflict     = errors.New("namespace claimed by more than one tree")
	ErrInvalidResourceName          = errors.New("invalid resource name")
	ErrInvalidFixture               = errors.New("invalid fixture document")

	// ErrInvalidDensity is also an ErrUnknownQualifierToken.
	ErrInvalidDensity = fmt.Errorf("%w: density is not a real dpi", ErrUnknownQualifierToken)
)

// QualifierError reports a malformed qualifier string.
type QualifierError struct {
	Qualifiers string
	Token      string
	Err        error
}

func (e *QualifierError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("qualifier string %q: %v", e.Qualifiers, e.Err)
	}
	return fmt.Sprintf("qualifier string %q: %v %q", e.Qualifiers, e.Err, e.Token)
}

func (e *QualifierError) Unwrap() error { return e.Err }

// CollisionError names both sides of a conflicting name<->id binding.
type CollisionError struct {
	Name           string
	ID             uint32
	ExistingName   string
	ExistingID     uint32
	Source         string
	ExistingSource string
}

func (e *CollisionError) Error() string {
	if e.ExistingName != "" && e.ExistingName != e.Name {
		return fmt.Sprintf("%v: id 0x%08x bound to %s by %s and to %s by %s",
			ErrIndexCollision, e.ID, e.ExistingName, e.ExistingSource, e.Name, e.Source)
	}
	return fmt.Sprintf("%v: %s bound to 0x%08x by %s and to 0x%08x by %s",
		ErrIndexCollision, e.Name, e.ExistingID, e.ExistingSource, e.ID, e.Source)
}

func (e *CollisionError) Unwrap() error { return ErrIndexCollision }

// WrapError wraps an error with additional context
func WrapError(err error, message string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	context := fmt.Sprintf(message, args...)
	return fmt.Errorf("%s: %w", context, err)
}
