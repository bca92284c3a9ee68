package hooks

// Run drives one call through spec. original runs the next layer, which is
// either an inner hook or the method's own body. Before failures are
// captured into p's error slot and skip the original; After always runs
// exactly once. The returned values are the final result and error slots.
func Run(p *Param, spec Spec, original Invoker) (any, error) {
	p.phase = PhasePending
	extras := make(map[string]any)

	if spec.Before != nil {
		if err := callPhase(p, extras, spec.Before); err != nil {
			p.SetErr(bodyError(p.Method, "before", err))
		}
	}
	p.phase = PhasePreRan

	switch {
	case p.returned:
		// Before short-circuited the call with a result or an error
		p.phase = PhaseReplaced
	case spec.Replace:
		p.SetResult(spec.Replacement)
		p.phase = PhaseReplaced
	default:
		result, err := invoke(p, original)
		if err != nil {
			p.result, p.err = nil, err
		} else {
			p.result, p.err = result, nil
		}
		p.returned = true
		p.phase = PhaseOriginalRan
	}

	if spec.After != nil {
		if err := callPhase(p, extras, spec.After); err != nil {
			p.SetErr(bodyError(p.Method, "after", err))
		}
	}
	// the post-phase is the last step, so PostRan is never stored
	p.phase = PhaseDone
	return p.ResultOrErr()
}

// Chain runs p through specs, first spec outermost, ending in original.
func Chain(p *Param, specs []Spec, original Invoker) (any, error) {
	if len(specs) == 0 {
		result, err := invoke(p, original)
		if err != nil {
			p.result, p.err = nil, err
		} else {
			p.result, p.err = result, nil
		}
		p.returned = true
		p.phase = PhaseDone
		return p.ResultOrErr()
	}

	// inner layers share the argument and result slots of this call
	return Run(p, specs[0], func(p *Param) (any, error) {
		return Chain(p, specs[1:], original)
	})
}

func callPhase(p *Param, extras map[string]any, fn func(*Param) error) (err error) {
	restore := p.scope(extras)
	defer restore()
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return fn(p)
}

func invoke(p *Param, original Invoker) (result any, err error) {
	if original == nil {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = bodyError(p.Method, "original", panicError(r))
		}
	}()
	return original(p)
}
