// Package transient builds outer hooks whose only job is to install an
// inner hook for the duration of one call. The inner hook is installed in
// the outer pre-phase and removed in the outer post-phase, so it is live
// only while the outer method body runs.
package transient

import (
	"context"
	"sync"

	"github.com/bambi/overwatch/pkg/hooks"
	"github.com/bambi/overwatch/pkg/host"
	"github.com/bambi/overwatch/pkg/install"
	"github.com/bambi/overwatch/pkg/locate"
	"github.com/bambi/overwatch/pkg/logger"
	"github.com/google/uuid"
)

// Config describes the inner hook
type Config struct {
	// Name labels the outer spec
	Name      string
	Installer *install.Installer
	Inner     locate.Descriptor
	// InnerSpec builds the inner spec from the outer call
	InnerSpec func(outer *hooks.Param) hooks.Spec
}

// Static returns an InnerSpec that ignores the outer call.
func Static(spec hooks.Spec) func(*hooks.Param) hooks.Spec {
	return func(*hooks.Param) hooks.Spec { return spec }
}

// Transient is an outer hook that scopes an inner hook to one call.
type Transient struct {
	cfg       Config
	slot      string
	serialize bool
}

// Option configures a Transient
type Option func(*Transient)

// WithoutSerialization lets concurrent outer calls install the inner hook
// independently, so a call on one goroutine may also see the inner hook
// installed by a call on another. Nested windows within one call chain
// never wait on each other either way, as long as method bodies pass on
// the context they are given.
func WithoutSerialization() Option {
	return func(t *Transient) { t.serialize = false }
}

// New creates a transient hook.
func New(cfg Config, opts ...Option) *Transient {
	if cfg.Name == "" {
		cfg.Name = "transient:" + cfg.Inner.Method
	}
	t := &Transient{
		cfg:       cfg,
		slot:      "transient." + uuid.New().String(),
		serialize: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Spec returns the outer spec to install on the outer method.
func (t *Transient) Spec() hooks.Spec {
	return hooks.Spec{
		Name:   t.cfg.Name,
		Before: t.before,
		After:  t.after,
	}
}

type window struct {
	handle *install.Handle
	lock   *sync.Mutex
	ctx    context.Context
}

func (t *Transient) before(p *hooks.Param) error {
	w := &window{ctx: p.Context}
	if t.serialize {
		if m := t.innerMethod(); m != nil {
			chain := heldBy(p.Context)
			if !chain.holds(m) {
				w.lock = lockFor(m)
				w.lock.Lock()
				p.Context = context.WithValue(p.Context, heldKey{}, &held{method: m, parent: chain})
			}
		}
	}
	// stored before installing so the post-phase can always release the lock
	p.SetExtra(t.slot, w)

	if t.cfg.InnerSpec == nil {
		return nil
	}
	w.handle = t.cfg.Installer.Install(p.Context, t.cfg.Inner, t.cfg.InnerSpec(p))

	logger.G(p.Context).
		WithField("outer", p.Method.String()).
		WithField("inner", t.cfg.Inner.String()).
		WithField("installed", w.handle != nil).
		Debug("transient hook window opened")
	return nil
}

func (t *Transient) after(p *hooks.Param) error {
	v, ok := p.Extra(t.slot)
	if !ok {
		return nil
	}
	w := v.(*window)
	p.DeleteExtra(t.slot)

	if w.lock != nil {
		defer w.lock.Unlock()
	}
	t.cfg.Installer.Remove(p.Context, w.handle)
	w.handle = nil
	p.Context = w.ctx
	return nil
}

// innerMethod resolves the inner descriptor for locking. A descriptor that
// does not resolve gets no lock; Install reports the failure.
func (t *Transient) innerMethod() *host.Method {
	res := locate.Resolve(t.cfg.Inner)
	if res.Kind != locate.Found {
		return nil
	}
	return res.Method
}

// locks serializes transient windows per inner method.
var locks sync.Map

func lockFor(m *host.Method) *sync.Mutex {
	v, _ := locks.LoadOrStore(m, &sync.Mutex{})
	return v.(*sync.Mutex)
}

type heldKey struct{}

// held lists the window locks owned by one call chain, innermost first.
type held struct {
	method *host.Method
	parent *held
}

func heldBy(ctx context.Context) *held {
	h, _ := ctx.Value(heldKey{}).(*held)
	return h
}

func (h *held) holds(m *host.Method) bool {
	for ; h != nil; h = h.parent {
		if h.method == m {
			return true
		}
	}
	return false
}
