// Package widget is a small view and animation toolkit registered as host
// types. Every toolkit operation goes through the host dispatch table, so
// hooks installed on the toolkit types see the calls the launcher makes.
package widget

import (
	"context"

	"github.com/bambi/overwatch/pkg/host"
	"github.com/pkg/errors"
)

// Type names as the launcher refers to them
const (
	ViewName               = "android.view.View"
	ViewGroupName          = "android.view.ViewGroup"
	LinearLayoutName       = "android.widget.LinearLayout"
	FrameLayoutName        = "android.widget.FrameLayout"
	MarginLayoutParamsName = "android.view.ViewGroup$MarginLayoutParams"
	AnimatorName           = "android.animation.Animator"
	ValueAnimatorName      = "android.animation.ValueAnimator"
	ObjectAnimatorName     = "android.animation.ObjectAnimator"
	AnimatorSetName        = "android.animation.AnimatorSet"
)

// MarginLayoutParams holds a view's margins.
type MarginLayoutParams struct {
	LeftMargin   int `host:"leftMargin"`
	TopMargin    int `host:"topMargin"`
	RightMargin  int `host:"rightMargin"`
	BottomMargin int `host:"bottomMargin"`
}

// View is the base of every widget.
type View struct {
	ID           int                 `host:"mID"`
	Background   any                 `host:"mBackground"`
	Color        int                 `host:"mBackgroundColor"`
	LayoutParams *MarginLayoutParams `host:"mLayoutParams"`
}

// ViewGroup is a view with children.
type ViewGroup struct {
	View
	Children []any `host:"mChildren"`
}

// ChildCount mirrors the target's mChildrenCount field
func (g *ViewGroup) ChildCount() int { return len(g.Children) }

// LinearLayout stacks its children.
type LinearLayout struct {
	ViewGroup
}

// FrameLayout overlays its children.
type FrameLayout struct {
	ViewGroup
}

// ValueAnimator interpolates between int values.
type ValueAnimator struct {
	Values   []int `host:"mValues"`
	Duration int64 `host:"mDuration"`
	Started  int
}

// ObjectAnimator animates a named property of a target.
type ObjectAnimator struct {
	ValueAnimator
	Target       any    `host:"mTarget"`
	PropertyName string `host:"mPropertyName"`
}

// AnimatorSet plays child animations together.
type AnimatorSet struct {
	Children []any `host:"mChildren"`
	Duration int64 `host:"mDuration"`
	Started  int
}

// Toolkit is the set of toolkit types registered in one loader.
type Toolkit struct {
	Loader *host.Loader

	View               *host.Type
	ViewGroup          *host.Type
	LinearLayout       *host.Type
	FrameLayout        *host.Type
	MarginLayoutParams *host.Type
	Animator           *host.Type
	ValueAnimator      *host.Type
	ObjectAnimator     *host.Type
	AnimatorSet        *host.Type
}

// Register defines the toolkit types in loader.
func Register(loader *host.Loader) (*Toolkit, error) {
	tk := &Toolkit{Loader: loader}

	tk.View = host.NewType(ViewName, nil)
	tk.ViewGroup = host.NewType(ViewGroupName, tk.View)
	tk.LinearLayout = host.NewType(LinearLayoutName, tk.ViewGroup)
	tk.FrameLayout = host.NewType(FrameLayoutName, tk.ViewGroup)
	tk.MarginLayoutParams = host.NewType(MarginLayoutParamsName, nil)
	tk.Animator = host.NewType(AnimatorName, nil)
	tk.ValueAnimator = host.NewType(ValueAnimatorName, tk.Animator)
	tk.ObjectAnimator = host.NewType(ObjectAnimatorName, tk.ValueAnimator)
	tk.AnimatorSet = host.NewType(AnimatorSetName, tk.Animator)

	for _, t := range []*host.Type{
		tk.View, tk.ViewGroup, tk.LinearLayout, tk.FrameLayout, tk.MarginLayoutParams,
		tk.Animator, tk.ValueAnimator, tk.ObjectAnimator, tk.AnimatorSet,
	} {
		if err := loader.Define(t); err != nil {
			return nil, errors.Wrap(err, "failed to register toolkit")
		}
	}

	tk.defineViews()
	tk.defineAnimators()
	return tk, nil
}

func (tk *Toolkit) defineViews() {
	tk.View.Define("setBackground", []*host.Type{host.Object}, func(_ context.Context, this any, args []any) (any, error) {
		v, err := asView(this)
		if err != nil {
			return nil, err
		}
		v.Background = args[0]
		return nil, nil
	})
	tk.View.Define("setBackgroundColor", []*host.Type{host.Int}, func(_ context.Context, this any, args []any) (any, error) {
		v, err := asView(this)
		if err != nil {
			return nil, err
		}
		v.Color = args[0].(int)
		return nil, nil
	})
	tk.View.Define("getLayoutParams", nil, func(_ context.Context, this any, _ []any) (any, error) {
		v, err := asView(this)
		if err != nil {
			return nil, err
		}
		return v.LayoutParams, nil
	})
	tk.View.Define("setLayoutParams", []*host.Type{tk.MarginLayoutParams}, func(_ context.Context, this any, args []any) (any, error) {
		v, err := asView(this)
		if err != nil {
			return nil, err
		}
		lp, _ := args[0].(*MarginLayoutParams)
		v.LayoutParams = lp
		return nil, nil
	})
	tk.ViewGroup.Define("getChildCount", nil, func(_ context.Context, this any, _ []any) (any, error) {
		g, err := asViewGroup(this)
		if err != nil {
			return nil, err
		}
		return g.ChildCount(), nil
	})
}

func (tk *Toolkit) defineAnimators() {
	tk.Animator.Define("start", nil, nil, host.Abstract())

	tk.ValueAnimator.Define("setIntValues", []*host.Type{host.Int, host.Int}, func(_ context.Context, this any, args []any) (any, error) {
		a, err := asValueAnimator(this)
		if err != nil {
			return nil, err
		}
		a.Values = []int{args[0].(int), args[1].(int)}
		return nil, nil
	})
	tk.ValueAnimator.Define("setDuration", []*host.Type{host.Long}, func(_ context.Context, this any, args []any) (any, error) {
		a, err := asValueAnimator(this)
		if err != nil {
			return nil, err
		}
		a.Duration = args[0].(int64)
		return this, nil
	})
	tk.ValueAnimator.Define("start", nil, func(_ context.Context, this any, _ []any) (any, error) {
		a, err := asValueAnimator(this)
		if err != nil {
			return nil, err
		}
		a.Started++
		if o, ok := this.(*ObjectAnimator); ok {
			o.apply()
		}
		return nil, nil
	})

	tk.AnimatorSet.Define("getChildAnimations", nil, func(_ context.Context, this any, _ []any) (any, error) {
		s, ok := this.(*AnimatorSet)
		if !ok {
			return nil, errors.Errorf("%T is not an AnimatorSet", this)
		}
		return append([]any(nil), s.Children...), nil
	})
	tk.AnimatorSet.Define("setDuration", []*host.Type{host.Long}, func(_ context.Context, this any, args []any) (any, error) {
		s, ok := this.(*AnimatorSet)
		if !ok {
			return nil, errors.Errorf("%T is not an AnimatorSet", this)
		}
		s.Duration = args[0].(int64)
		return this, nil
	})
	tk.AnimatorSet.Define("start", nil, func(ctx context.Context, this any, _ []any) (any, error) {
		s, ok := this.(*AnimatorSet)
		if !ok {
			return nil, errors.Errorf("%T is not an AnimatorSet", this)
		}
		s.Started++
		for _, child := range s.Children {
			if err := tk.startChild(ctx, child, s.Duration); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
}

// startChild starts a child animation; a set's duration overrides the
// durations of its children, as on the target platform.
func (tk *Toolkit) startChild(ctx context.Context, child any, duration int64) error {
	a, err := asValueAnimator(child)
	if err != nil {
		return err
	}
	if duration >= 0 {
		a.Duration = duration
	}
	typ := tk.ValueAnimator
	if _, ok := child.(*ObjectAnimator); ok {
		typ = tk.ObjectAnimator
	}
	_, err = tk.Call(ctx, typ, "start", child)
	return err
}

// Call invokes the named method of typ, or of the nearest supertype that
// declares it, through the dispatch table.
func (tk *Toolkit) Call(ctx context.Context, typ *host.Type, name string, this any, args ...any) (any, error) {
	m, err := Lookup(typ, name, len(args))
	if err != nil {
		return nil, err
	}
	return m.Invoke(ctx, this, args...)
}

// Lookup returns the first method named name with arity params declared on
// typ or one of its supertypes.
func Lookup(typ *host.Type, name string, arity int) (*host.Method, error) {
	for _, t := range typ.Supertypes() {
		for _, m := range t.DeclaredMethods() {
			if m.Name == name && len(m.Params) == arity && !m.Abstract {
				return m, nil
			}
		}
	}
	return nil, errors.Errorf("%s has no method %s/%d", typ.Name, name, arity)
}

// apply jumps the target property to the end value of the animation.
func (o *ObjectAnimator) apply() {
	if len(o.Values) == 0 || o.Target == nil {
		return
	}
	end := o.Values[len(o.Values)-1]
	if o.PropertyName == "backgroundColor" {
		if v, err := asView(o.Target); err == nil {
			v.Color = end
		}
	}
}

// Viewer is implemented by every widget embedding View
type Viewer interface {
	view() *View
}

func (v *View) view() *View { return v }

// Grouper is implemented by every widget embedding ViewGroup
type Grouper interface {
	group() *ViewGroup
}

func (g *ViewGroup) group() *ViewGroup { return g }

// Animated is implemented by every animator embedding ValueAnimator
type Animated interface {
	animator() *ValueAnimator
}

func (a *ValueAnimator) animator() *ValueAnimator { return a }

func asView(obj any) (*View, error) {
	if v, ok := obj.(Viewer); ok {
		return v.view(), nil
	}
	return nil, errors.Errorf("%T is not a view", obj)
}

func asViewGroup(obj any) (*ViewGroup, error) {
	if g, ok := obj.(Grouper); ok {
		return g.group(), nil
	}
	return nil, errors.Errorf("%T is not a view group", obj)
}

func asValueAnimator(obj any) (*ValueAnimator, error) {
	if a, ok := obj.(Animated); ok {
		return a.animator(), nil
	}
	return nil, errors.Errorf("%T is not a value animator", obj)
}
