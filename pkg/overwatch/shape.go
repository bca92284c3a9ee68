package overwatch

import "github.com/bambi/overwatch/pkg/widget"

// BackgroundColorProperty is the property the scrim animation drives.
const BackgroundColorProperty = "backgroundColor"

// LooksLikeBackgroundAnimation reports whether candidate is the search
// view's show/hide animation: an animator set of exactly three children,
// a value animator, a backgroundColor object animator targeting owner,
// and another value animator. AnimatorSet.start is called from all over
// the launcher, so anything else must be left alone.
func LooksLikeBackgroundAnimation(candidate, owner any) bool {
	set, ok := candidate.(*widget.AnimatorSet)
	if !ok || set == nil || len(set.Children) != 3 {
		return false
	}
	if _, ok := set.Children[0].(*widget.ValueAnimator); !ok {
		return false
	}
	if _, ok := set.Children[2].(*widget.ValueAnimator); !ok {
		return false
	}
	scrim, ok := set.Children[1].(*widget.ObjectAnimator)
	if !ok || scrim.PropertyName != BackgroundColorProperty {
		return false
	}
	return owner != nil && scrim.Target == owner
}

// Bounds returns the scrim interpolation bounds for one direction.
func Bounds(target int, show bool) (from, to int) {
	if show {
		return 0, target
	}
	return target, 0
}
