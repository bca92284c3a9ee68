package hooks

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure by the boundary that handles it.
type Kind int

// Failure kinds. NotFound, Ambiguous, AttachmentFailure and RemovalFailure
// are absorbed by the installer; HookBodyFailure propagates to the host.
const (
	KindUnknown Kind = iota
	KindNotFound
	KindAmbiguous
	KindAttachmentFailure
	KindRemovalFailure
	KindHookBodyFailure
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindAmbiguous:
		return "ambiguous"
	case KindAttachmentFailure:
		return "attachment_failure"
	case KindRemovalFailure:
		return "removal_failure"
	case KindHookBodyFailure:
		return "hook_body_failure"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. They compare by Kind only.
var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrAmbiguous         = &Error{Kind: KindAmbiguous}
	ErrAttachmentFailure = &Error{Kind: KindAttachmentFailure}
	ErrRemovalFailure    = &Error{Kind: KindRemovalFailure}
	ErrHookBodyFailure   = &Error{Kind: KindHookBodyFailure}
)

// Error is the typed failure produced by resolution, attachment, removal
// and hook bodies.
type Error struct {
	Kind   Kind
	Op     string
	Type   string
	Method string
	Err    error
}

func (e *Error) Error() string {
	target := e.Method
	if e.Type != "" {
		target = e.Type + "." + e.Method
	}

	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if target != "" {
		msg = fmt.Sprintf("%s %s", msg, target)
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Cause supports github.com/pkg/errors.Cause.
func (e *Error) Cause() error { return e.Err }

// Is reports kind equality, so errors.Is(err, ErrNotFound) matches any
// not-found error regardless of target.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// bodyError wraps a failure raised by a hook phase or by the original body.
func bodyError(m MethodInfo, phase string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Kind == KindHookBodyFailure {
		return err
	}
	return &Error{
		Kind:   KindHookBodyFailure,
		Op:     phase,
		Type:   m.Type,
		Method: m.Name,
		Err:    err,
	}
}

// panicError converts a recovered panic value into an error.
func panicError(v any) error {
	if err, ok := v.(error); ok {
		return errors.Wrap(err, "panic")
	}
	return errors.Errorf("panic: %v", v)
}
