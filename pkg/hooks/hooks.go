// Package hooks provides the per-invocation lifecycle of an intercepted
// method call. A Spec carries optional pre- and post-phase callbacks (or a
// fixed replacement value), a Param carries the mutable call state shared
// between the phases, and Run drives one call through
// Pending → PreRan → (OriginalRan | Replaced) → PostRan → Done.
package hooks

// Phase is the lifecycle state of one intercepted call
type Phase int

// Lifecycle phases in the order they are reached. An After callback sees
// OriginalRan or Replaced; once it returns, Run moves straight to Done.
// PhasePostRan names that step in logs and is never reported by Phase.
const (
	PhasePending Phase = iota
	PhasePreRan
	PhaseOriginalRan
	PhaseReplaced
	PhasePostRan
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhasePreRan:
		return "pre_ran"
	case PhaseOriginalRan:
		return "original_ran"
	case PhaseReplaced:
		return "replaced"
	case PhasePostRan:
		return "post_ran"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// BeforeFunc runs ahead of the original method. Returning an error records
// it in the call's error slot; the post-phase still runs.
type BeforeFunc func(p *Param) error

// AfterFunc runs after the original method (or the replacement), even when
// an earlier phase failed.
type AfterFunc func(p *Param) error

// Spec is the behavior attached by one installation.
type Spec struct {
	// Name is used in logs and diagnostics only
	Name   string
	Before BeforeFunc
	After  AfterFunc

	// Replace skips the original body and returns Replacement instead
	Replace     bool
	Replacement any
}

// Replacement returns a replace-mode Spec that always yields v.
func Replacement(v any) Spec {
	return Spec{Name: "replacement", Replace: true, Replacement: v}
}

// DoNothing suppresses the original body and returns nil.
var DoNothing = Spec{Name: "do_nothing", Replace: true}

// IsZero reports whether the spec would not change a call at all.
func (s Spec) IsZero() bool {
	return s.Before == nil && s.After == nil && !s.Replace
}

// MethodInfo identifies the intercepted method in a Param
type MethodInfo struct {
	Type string
	Name string
}

func (m MethodInfo) String() string {
	if m.Type == "" {
		return m.Name
	}
	return m.Type + "." + m.Name
}

// Invoker runs the next layer of a call: either an inner hook or the
// original body. It reads receiver and arguments from p.
type Invoker func(p *Param) (any, error)
