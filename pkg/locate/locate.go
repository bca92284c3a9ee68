// Package locate resolves a method of a host type from a name and a
// parameter specification. Exact specs are a direct signature lookup;
// best-match specs score every overload of the requested name and arity
// and fail closed when the best score is shared.
package locate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bambi/overwatch/pkg/hooks"
	"github.com/bambi/overwatch/pkg/host"
	"github.com/pkg/errors"
)

// Ref names one parameter type: a resolved type, a type name looked up
// through the descriptor's loader, or a wildcard.
type Ref struct {
	typ      *host.Type
	name     string
	wildcard bool
}

// T refers to a resolved type.
func T(t *host.Type) Ref { return Ref{typ: t} }

// Named refers to a type by name.
func Named(name string) Ref { return Ref{name: name} }

// Any matches every parameter type. Only valid in best-match specs.
func Any() Ref { return Ref{wildcard: true} }

func (r Ref) String() string {
	switch {
	case r.wildcard:
		return "?"
	case r.typ != nil:
		return r.typ.Name
	default:
		return r.name
	}
}

// resolve returns nil for a wildcard.
func (r Ref) resolve(l *host.Loader) (*host.Type, error) {
	switch {
	case r.wildcard:
		return nil, nil
	case r.typ != nil:
		return r.typ, nil
	case r.name == "":
		return nil, errors.New("empty parameter type")
	default:
		return l.FindType(r.name)
	}
}

// Mode selects the resolution strategy
type Mode int

// Resolution modes
const (
	ModeExact Mode = iota
	ModeBestMatch
)

// ParamSpec is the parameter part of a method descriptor.
type ParamSpec struct {
	Mode Mode
	Refs []Ref
}

// Exact requires a method whose parameter types are exactly refs.
func Exact(refs ...Ref) ParamSpec {
	return ParamSpec{Mode: ModeExact, Refs: refs}
}

// BestMatch accepts any overload whose parameters can take refs.
func BestMatch(refs ...Ref) ParamSpec {
	return ParamSpec{Mode: ModeBestMatch, Refs: refs}
}

// Arity accepts any overload with n parameters.
func Arity(n int) ParamSpec {
	refs := make([]Ref, n)
	for i := range refs {
		refs[i] = Any()
	}
	return BestMatch(refs...)
}

func (s ParamSpec) String() string {
	parts := make([]string, len(s.Refs))
	for i, r := range s.Refs {
		parts[i] = r.String()
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// Descriptor identifies the method to resolve. Either Type or TypeName is
// set; TypeName and Named refs are resolved through Loader.
type Descriptor struct {
	Type     *host.Type
	TypeName string
	Loader   *host.Loader
	Method   string
	Params   ParamSpec
}

// TargetName is the type name used in diagnostics.
func (d Descriptor) TargetName() string {
	if d.Type != nil {
		return d.Type.SimpleName()
	}
	return d.TypeName
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s.%s%s", d.TargetName(), d.Method, d.Params)
}

func (d Descriptor) loader() *host.Loader {
	if d.Loader != nil {
		return d.Loader
	}
	return host.System
}

// Kind is the outcome of a resolution attempt
type Kind int

// Resolution outcomes
const (
	Found Kind = iota
	NotFound
	Ambiguous
)

func (k Kind) String() string {
	switch k {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case Ambiguous:
		return "ambiguous"
	default:
		return "unknown"
	}
}

// Result is the typed outcome of Resolve. Method is set only when Kind is
// Found; Candidates lists the tied overloads when Kind is Ambiguous.
type Result struct {
	Kind       Kind
	Method     *host.Method
	Candidates []*host.Method
	Detail     string
}

// Err converts a failed result into a *hooks.Error, or nil when Found.
func (r Result) Err(d Descriptor) error {
	var kind hooks.Kind
	switch r.Kind {
	case Found:
		return nil
	case Ambiguous:
		kind = hooks.KindAmbiguous
	default:
		kind = hooks.KindNotFound
	}
	return &hooks.Error{
		Kind:   kind,
		Op:     "resolve",
		Type:   d.TargetName(),
		Method: d.Method,
		Err:    errors.New(r.Detail),
	}
}

func notFound(format string, args ...any) Result {
	return Result{Kind: NotFound, Detail: fmt.Sprintf(format, args...)}
}

// Resolve finds the single method d describes. It never panics; every
// failure is reported through the result kind.
func Resolve(d Descriptor) Result {
	if d.Method == "" {
		return notFound("empty method name")
	}

	typ := d.Type
	if typ == nil {
		t, err := d.loader().FindType(d.TypeName)
		if err != nil {
			return notFound("%v", err)
		}
		typ = t
	}

	params := make([]*host.Type, len(d.Params.Refs))
	for i, r := range d.Params.Refs {
		t, err := r.resolve(d.loader())
		if err != nil {
			return notFound("parameter %d: %v", i, err)
		}
		params[i] = t
	}

	if d.Params.Mode == ModeExact {
		return exact(typ, d.Method, params)
	}
	return bestMatch(typ, d.Method, params)
}

func exact(typ *host.Type, name string, params []*host.Type) Result {
	for i, p := range params {
		if p == nil {
			return notFound("parameter %d: wildcard in exact signature", i)
		}
	}
	m, ok := typ.DeclaredMethod(name, params...)
	if !ok {
		return notFound("no method %s on %s", host.Signature(name, params), typ.Name)
	}
	return Result{Kind: Found, Method: m}
}

const exactScore = 1000

type candidate struct {
	method *host.Method
	score  int
}

func bestMatch(typ *host.Type, name string, params []*host.Type) Result {
	var candidates []candidate
	seen := make(map[string]bool)

	for _, t := range typ.Supertypes() {
		for _, m := range t.DeclaredMethods() {
			if m.Name != name || len(m.Params) != len(params) {
				continue
			}
			sig := host.Signature(m.Name, m.Params)
			if seen[sig] {
				// hidden by a more derived declaration
				continue
			}
			seen[sig] = true

			if score, ok := scoreMethod(m, params); ok {
				candidates = append(candidates, candidate{method: m, score: score})
			}
		}
	}

	if len(candidates) == 0 {
		return notFound("no method %s with %d compatible parameters on %s", name, len(params), typ.Name)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	top := []*host.Method{candidates[0].method}
	for _, c := range candidates[1:] {
		if c.score != candidates[0].score {
			break
		}
		top = append(top, c.method)
	}
	if len(top) == 1 {
		return Result{Kind: Found, Method: top[0]}
	}

	if m := mostSpecific(top); m != nil {
		return Result{Kind: Found, Method: m}
	}

	names := make([]string, len(top))
	for i, m := range top {
		names[i] = m.String()
	}
	return Result{
		Kind:       Ambiguous,
		Candidates: top,
		Detail:     "equally matching overloads: " + strings.Join(names, ", "),
	}
}

// scoreMethod rates how well m's parameters accept the requested types.
// Identical types outrank assignable ones, and nearer ancestors outrank
// farther ones. Wildcards contribute nothing.
func scoreMethod(m *host.Method, params []*host.Type) (int, bool) {
	score := 0
	for i, want := range params {
		if want == nil {
			continue
		}
		d := want.Distance(m.Params[i])
		if d < 0 {
			return 0, false
		}
		if d == 0 {
			score += exactScore
		} else {
			score += exactScore - 1 - d
		}
	}
	return score, true
}

// mostSpecific returns the one method whose parameters are all assignable
// to the parameters of every other method, or nil.
func mostSpecific(methods []*host.Method) *host.Method {
	var winner *host.Method
	for _, m := range methods {
		ok := true
		for _, o := range methods {
			if m == o {
				continue
			}
			if !moreSpecific(m, o) {
				ok = false
				break
			}
		}
		if ok {
			if winner != nil {
				return nil
			}
			winner = m
		}
	}
	return winner
}

func moreSpecific(a, b *host.Method) bool {
	strict := false
	for i := range a.Params {
		d := a.Params[i].Distance(b.Params[i])
		if d < 0 {
			return false
		}
		if d > 0 {
			strict = true
		}
	}
	return strict
}
