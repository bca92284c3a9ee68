package hooks

import (
	"context"
)

// Param is the mutable state of one intercepted call. It is owned by the
// executor for the duration of the call and handed by reference to every
// phase, so an argument rewritten in Before is what the original body sees.
type Param struct {
	Context context.Context
	Method  MethodInfo
	// This is nil for static methods
	This any
	Args []any

	result   any
	err      error
	returned bool
	phase    Phase

	// extras is scoped to the hook layer whose phase is currently running
	extras map[string]any
}

// NewParam builds the call state for one invocation.
func NewParam(ctx context.Context, m MethodInfo, this any, args []any) *Param {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Param{
		Context: ctx,
		Method:  m,
		This:    this,
		Args:    args,
	}
}

// Result returns the current result slot.
func (p *Param) Result() any { return p.result }

// Err returns the current error slot.
func (p *Param) Err() error { return p.err }

// ResultOrErr returns both slots, as the caller of the method observes them.
func (p *Param) ResultOrErr() (any, error) { return p.result, p.err }

// SetResult stores v and clears any recorded error. Called from Before it
// skips the original body.
func (p *Param) SetResult(v any) {
	p.result = v
	p.err = nil
	p.returned = true
}

// SetErr records err and clears the result. Called from Before it skips
// the original body.
func (p *Param) SetErr(err error) {
	p.result = nil
	p.err = err
	p.returned = true
}

// HasReturned reports whether a result or error has been set.
func (p *Param) HasReturned() bool { return p.returned }

// Phase returns the lifecycle state reached so far.
func (p *Param) Phase() Phase { return p.phase }

// Arg returns argument i, or nil when out of range.
func (p *Param) Arg(i int) any {
	if i < 0 || i >= len(p.Args) {
		return nil
	}
	return p.Args[i]
}

// SetArg replaces argument i. It returns false when i is out of range.
func (p *Param) SetArg(i int, v any) bool {
	if i < 0 || i >= len(p.Args) {
		return false
	}
	p.Args[i] = v
	return true
}

// SetExtra stores per-invocation state private to the running hook.
func (p *Param) SetExtra(key string, v any) {
	if p.extras == nil {
		return
	}
	p.extras[key] = v
}

// Extra returns per-invocation state stored by the running hook.
func (p *Param) Extra(key string) (any, bool) {
	v, ok := p.extras[key]
	return v, ok
}

// DeleteExtra resets a private slot to absent.
func (p *Param) DeleteExtra(key string) {
	delete(p.extras, key)
}

// scope swaps in the private extras of one hook layer and returns a func
// restoring the previous scope.
func (p *Param) scope(extras map[string]any) func() {
	saved := p.extras
	p.extras = extras
	return func() { p.extras = saved }
}
