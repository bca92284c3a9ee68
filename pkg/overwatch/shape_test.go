package overwatch

import (
	"testing"

	"github.com/bambi/overwatch/pkg/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooksLikeBackgroundAnimation(t *testing.T) {
	owner := widget.NewLinearLayout(1)
	other := widget.NewLinearLayout(2)
	va := func() *widget.ValueAnimator { return widget.NewValueAnimator(0, 1, 10) }
	scrim := func(target any, prop string) *widget.ObjectAnimator {
		return widget.NewObjectAnimator(target, prop, 0, 1, 10)
	}

	tests := []struct {
		name      string
		candidate any
		want      bool
	}{
		{"matching", widget.NewAnimatorSet(va(), scrim(owner, "backgroundColor"), va()), true},
		{"not a set", va(), false},
		{"nil set", (*widget.AnimatorSet)(nil), false},
		{"two children", widget.NewAnimatorSet(va(), scrim(owner, "backgroundColor")), false},
		{"four children", widget.NewAnimatorSet(va(), scrim(owner, "backgroundColor"), va(), va()), false},
		{"wrong property", widget.NewAnimatorSet(va(), scrim(owner, "alpha"), va()), false},
		{"other target", widget.NewAnimatorSet(va(), scrim(other, "backgroundColor"), va()), false},
		{"object animator first", widget.NewAnimatorSet(scrim(owner, "backgroundColor"), scrim(owner, "backgroundColor"), va()), false},
		{"set as last child", widget.NewAnimatorSet(va(), scrim(owner, "backgroundColor"), widget.NewAnimatorSet()), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikeBackgroundAnimation(tt.candidate, owner))
		})
	}

	assert.False(t, LooksLikeBackgroundAnimation(widget.NewAnimatorSet(va(), scrim(nil, "backgroundColor"), va()), nil))
}

func TestBounds(t *testing.T) {
	from, to := Bounds(DefaultTargetColor, true)
	assert.Equal(t, 0, from)
	assert.Equal(t, DefaultTargetColor, to)

	from, to = Bounds(DefaultTargetColor, false)
	assert.Equal(t, DefaultTargetColor, from)
	assert.Equal(t, 0, to)
}

func TestDecodeOptions(t *testing.T) {
	opts, err := DecodeOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), opts)

	opts, err = DecodeOptions(map[string]any{
		"target_color":      "0xCC000000",
		"searchbar_margin":  "120",
		"suppress_keyboard": "false",
	})
	require.NoError(t, err)
	assert.Equal(t, 0xCC000000, opts.TargetColor)
	assert.Equal(t, 120, opts.SearchbarMargin)
	assert.Equal(t, 70, opts.ContentMargin)
	assert.False(t, opts.SuppressKeyboard)
	assert.True(t, opts.RetargetScrim)

	_, err = DecodeOptions(map[string]any{"colour": 1})
	assert.Error(t, err)
}
