package widget

// NewLinearLayout returns an empty layout with zero margins.
func NewLinearLayout(id int, children ...any) *LinearLayout {
	l := &LinearLayout{}
	l.ID = id
	l.LayoutParams = &MarginLayoutParams{}
	l.Children = children
	return l
}

// NewFrameLayout returns an empty frame with zero margins.
func NewFrameLayout(id int, children ...any) *FrameLayout {
	f := &FrameLayout{}
	f.ID = id
	f.LayoutParams = &MarginLayoutParams{}
	f.Children = children
	return f
}

// NewValueAnimator animates between from and to.
func NewValueAnimator(from, to int, duration int64) *ValueAnimator {
	return &ValueAnimator{Values: []int{from, to}, Duration: duration}
}

// NewObjectAnimator animates property of target between from and to.
func NewObjectAnimator(target any, property string, from, to int, duration int64) *ObjectAnimator {
	return &ObjectAnimator{
		ValueAnimator: ValueAnimator{Values: []int{from, to}, Duration: duration},
		Target:        target,
		PropertyName:  property,
	}
}

// NewAnimatorSet plays children together. Its duration is unset (-1), so
// children keep their own durations until SetDuration is called.
func NewAnimatorSet(children ...any) *AnimatorSet {
	return &AnimatorSet{Children: children, Duration: -1}
}
