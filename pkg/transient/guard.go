package transient

import (
	"github.com/bambi/overwatch/pkg/hooks"
	"github.com/google/uuid"
)

// Predicate decides whether a guarded spec applies to a call.
type Predicate func(p *hooks.Param) bool

// Guard wraps spec so that both phases do nothing unless pred accepts the
// call. pred is evaluated once, in the pre-phase. A replace-mode spec
// replaces the result only for accepted calls.
func Guard(pred Predicate, spec hooks.Spec) hooks.Spec {
	accepted := "guard." + uuid.New().String()
	name := spec.Name
	if name == "" {
		name = "guarded"
	}

	return hooks.Spec{
		Name: name,
		Before: func(p *hooks.Param) error {
			if pred == nil || !pred(p) {
				return nil
			}
			p.SetExtra(accepted, true)
			if spec.Replace {
				p.SetResult(spec.Replacement)
			}
			if spec.Before != nil {
				return spec.Before(p)
			}
			return nil
		},
		After: func(p *hooks.Param) error {
			if _, ok := p.Extra(accepted); !ok {
				return nil
			}
			p.DeleteExtra(accepted)
			if spec.After != nil {
				return spec.After(p)
			}
			return nil
		},
	}
}
