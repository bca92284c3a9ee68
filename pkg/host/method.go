package host

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/bambi/overwatch/pkg/hooks"
	"github.com/bambi/overwatch/pkg/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Func is a method body. this is nil for static methods.
type Func func(ctx context.Context, this any, args []any) (any, error)

// MethodOption configures a method at definition time
type MethodOption func(*Method)

// Static marks a method as having no receiver.
func Static() MethodOption {
	return func(m *Method) { m.Static = true }
}

// Abstract marks a method as having no body. Abstract methods cannot be
// hooked or invoked.
func Abstract() MethodOption {
	return func(m *Method) { m.Abstract = true }
}

// Method is a resolved method of a host type together with its dispatch
// table of attached hooks.
type Method struct {
	Owner    *Type
	Name     string
	Params   []*Type
	Static   bool
	Abstract bool

	mu       sync.RWMutex
	impl     Func
	attached []*Attachment
}

// Attachment is one hook spec attached to a method.
type Attachment struct {
	method *Method
	spec   hooks.Spec
	seq    uint64
}

var attachSeq atomic.Uint64

// Method returns the method the attachment belongs to.
func (a *Attachment) Method() *Method { return a.method }

// Spec returns the attached spec.
func (a *Attachment) Spec() hooks.Spec { return a.spec }

// Errors reported by the dispatch table
var (
	ErrNotAttached = errors.New("hook is not attached")
	ErrNoBody      = errors.New("method has no body")
	ErrArity       = errors.New("wrong number of arguments")
	ErrNilReceiver = errors.New("nil receiver for instance method")
)

func (m *Method) String() string {
	return m.Owner.Name + "." + Signature(m.Name, m.Params)
}

// Info identifies the method inside a hooks.Param.
func (m *Method) Info() hooks.MethodInfo {
	return hooks.MethodInfo{Type: m.Owner.Name, Name: m.Name}
}

// Attach appends spec to the dispatch table. The first attached spec is the
// outermost layer of every later call.
func (m *Method) Attach(spec hooks.Spec) (*Attachment, error) {
	if m.Abstract {
		return nil, errors.Wrapf(ErrNoBody, "cannot hook abstract method %s", m)
	}
	if spec.IsZero() {
		return nil, errors.Errorf("spec %q for %s has no callbacks", spec.Name, m)
	}

	a := &Attachment{method: m, spec: spec, seq: attachSeq.Add(1)}

	m.mu.Lock()
	m.attached = append(m.attached, a)
	m.mu.Unlock()
	return a, nil
}

// Detach removes a from the dispatch table.
func (m *Method) Detach(a *Attachment) error {
	if a == nil {
		return errors.Wrapf(ErrNotAttached, "nil attachment on %s", m)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, cur := range m.attached {
		if cur == a {
			m.attached = append(m.attached[:i:i], m.attached[i+1:]...)
			return nil
		}
	}
	return errors.Wrapf(ErrNotAttached, "attachment %d on %s", a.seq, m)
}

// Hooked reports how many specs are attached.
func (m *Method) Hooked() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.attached)
}

// Invoke calls the method through its dispatch table. Attach and Detach
// during the call only affect calls started afterwards.
func (m *Method) Invoke(ctx context.Context, this any, args ...any) (any, error) {
	if err := m.check(this, args); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	args = append([]any(nil), args...)

	m.mu.RLock()
	specs := make([]hooks.Spec, len(m.attached))
	for i, a := range m.attached {
		specs[i] = a.spec
	}
	m.mu.RUnlock()

	p := hooks.NewParam(ctx, m.Info(), this, args)
	if len(specs) == 0 {
		return hooks.Chain(p, nil, m.call)
	}

	ctx, span := telemetry.Tracer("overwatch.host").Start(ctx, "host.invoke")
	defer span.End()
	span.SetAttributes(
		attribute.String("method.type", m.Owner.Name),
		attribute.String("method.name", m.Name),
		attribute.Int("hooks.count", len(specs)),
	)
	p.Context = ctx

	result, err := hooks.Chain(p, specs, m.call)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

// InvokeOriginal calls the body directly, bypassing every attached hook.
func (m *Method) InvokeOriginal(ctx context.Context, this any, args ...any) (any, error) {
	if err := m.check(this, args); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return m.call(hooks.NewParam(ctx, m.Info(), this, args))
}

func (m *Method) check(this any, args []any) error {
	if len(args) != len(m.Params) {
		return errors.Wrapf(ErrArity, "%s takes %d, got %d", m, len(m.Params), len(args))
	}
	if !m.Static && this == nil {
		return errors.Wrapf(ErrNilReceiver, "%s", m)
	}
	return nil
}

func (m *Method) call(p *hooks.Param) (any, error) {
	m.mu.RLock()
	fn := m.impl
	m.mu.RUnlock()
	if fn == nil {
		return nil, errors.Wrapf(ErrNoBody, "%s", m)
	}

	var this any
	if !m.Static {
		this = p.This
	}
	return fn(p.Context, this, p.Args)
}
