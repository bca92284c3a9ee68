// Package host models the target program that hooks are installed into:
// named types with single inheritance and interfaces, methods with ordered
// parameter types, a Loader that resolves type names, and a per-method
// dispatch table through which every call is routed.
package host

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Type is a class of the target program.
type Type struct {
	Name       string
	Super      *Type
	Interfaces []*Type
	Primitive  bool

	mu      sync.RWMutex
	methods map[string]*Method
	order   []*Method
}

// Built-in types shared by every loader
var (
	Object = &Type{Name: "Object"}
	String = NewType("String", Object)
	Int    = primitive("int")
	Long   = primitive("long")
	Bool   = primitive("boolean")
	Float  = primitive("float")
)

func primitive(name string) *Type {
	return &Type{Name: name, Primitive: true}
}

// NewType creates a reference type. A nil super means Object.
func NewType(name string, super *Type, interfaces ...*Type) *Type {
	if super == nil {
		super = Object
	}
	return &Type{
		Name:       name,
		Super:      super,
		Interfaces: interfaces,
	}
}

// NewInterface creates an interface type extending the given interfaces.
func NewInterface(name string, extends ...*Type) *Type {
	return &Type{Name: name, Interfaces: extends}
}

// SimpleName returns the name without its package qualifier.
func (t *Type) SimpleName() string {
	if i := strings.LastIndex(t.Name, "."); i >= 0 {
		return t.Name[i+1:]
	}
	return t.Name
}

func (t *Type) String() string { return t.Name }

// Signature is the lookup key of a method: name(paramType,...).
func Signature(name string, params []*Type) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return name + "(" + strings.Join(names, ",") + ")"
}

// Define declares a method on t. Redefining a signature replaces the body
// but keeps attached hooks.
func (t *Type) Define(name string, params []*Type, fn Func, opts ...MethodOption) *Method {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.methods == nil {
		t.methods = make(map[string]*Method)
	}

	key := Signature(name, params)
	if m, ok := t.methods[key]; ok {
		m.mu.Lock()
		m.impl = fn
		m.mu.Unlock()
		for _, opt := range opts {
			opt(m)
		}
		return m
	}

	m := &Method{
		Owner:  t,
		Name:   name,
		Params: append([]*Type(nil), params...),
		impl:   fn,
	}
	for _, opt := range opts {
		opt(m)
	}
	t.methods[key] = m
	t.order = append(t.order, m)
	return m
}

// DeclaredMethod looks up a method declared on t by exact signature.
func (t *Type) DeclaredMethod(name string, params ...*Type) (*Method, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.methods[Signature(name, params)]
	return m, ok
}

// DeclaredMethods returns the methods declared on t in definition order.
func (t *Type) DeclaredMethods() []*Method {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*Method(nil), t.order...)
}

// Supertypes returns t followed by its ancestors, nearest first. Each type
// appears once.
func (t *Type) Supertypes() []*Type {
	var out []*Type
	seen := make(map[*Type]bool)
	queue := []*Type{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == nil || seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, cur)
		if cur.Super != nil {
			queue = append(queue, cur.Super)
		}
		queue = append(queue, cur.Interfaces...)
	}
	if !t.Primitive && !seen[Object] {
		out = append(out, Object)
	}
	return out
}

// Distance returns how many inheritance steps separate t from u, 0 when
// they are identical and -1 when t is not assignable to u.
func (t *Type) Distance(u *Type) int {
	if t == nil || u == nil {
		return -1
	}
	if t == u {
		return 0
	}
	if t.Primitive || u.Primitive {
		return -1
	}

	type step struct {
		t *Type
		d int
	}
	seen := make(map[*Type]bool)
	queue := []step{{t, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.t == nil || seen[cur.t] {
			continue
		}
		if cur.t == u {
			return cur.d
		}
		seen[cur.t] = true
		if cur.t.Super != nil {
			queue = append(queue, step{cur.t.Super, cur.d + 1})
		}
		for _, i := range cur.t.Interfaces {
			queue = append(queue, step{i, cur.d + 1})
		}
	}

	// interfaces have no superclass but are still objects
	if u == Object {
		return len(t.Supertypes())
	}
	return -1
}

// AssignableTo reports whether a value of type t can be passed where u is
// expected.
func (t *Type) AssignableTo(u *Type) bool {
	return t.Distance(u) >= 0
}

// ErrTypeNotFound is returned by Loader.FindType for unknown names.
var ErrTypeNotFound = errors.New("type not found")

// ErrDuplicateType is returned when a loader already defines a name.
var ErrDuplicateType = errors.New("type already defined")

// Loader resolves type names, delegating to its parent first.
type Loader struct {
	name   string
	parent *Loader

	mu    sync.RWMutex
	types map[string]*Type
}

// System is the root loader holding the built-in types.
var System = newSystemLoader()

func newSystemLoader() *Loader {
	l := &Loader{name: "system", types: make(map[string]*Type)}
	for _, t := range []*Type{Object, String, Int, Long, Bool, Float} {
		l.types[t.Name] = t
	}
	return l
}

// NewLoader creates a loader. A nil parent means System.
func NewLoader(name string, parent *Loader) *Loader {
	if parent == nil {
		parent = System
	}
	return &Loader{
		name:   name,
		parent: parent,
		types:  make(map[string]*Type),
	}
}

// Name returns the loader's name.
func (l *Loader) Name() string { return l.name }

// Define registers t under its name.
func (l *Loader) Define(t *Type) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.types[t.Name]; ok {
		return errors.Wrapf(ErrDuplicateType, "%s in loader %s", t.Name, l.name)
	}
	l.types[t.Name] = t
	return nil
}

// MustDefine registers t and panics on a duplicate name.
func (l *Loader) MustDefine(t *Type) *Type {
	if err := l.Define(t); err != nil {
		panic(err)
	}
	return t
}

// FindType resolves name through the parent chain, parent first.
func (l *Loader) FindType(name string) (*Type, error) {
	if l == nil {
		return nil, errors.Wrapf(ErrTypeNotFound, "%s (no loader)", name)
	}
	if l.parent != nil {
		if t, err := l.parent.FindType(name); err == nil {
			return t, nil
		}
	}

	l.mu.RLock()
	t, ok := l.types[name]
	l.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrTypeNotFound, "%s in loader %s", name, l.name)
	}
	return t, nil
}

// Types returns the types defined directly in l, sorted by name.
func (l *Loader) Types() []*Type {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Type, 0, len(l.types))
	for _, t := range l.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
