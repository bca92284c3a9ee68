package hooks

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMethod = MethodInfo{Type: "widget.Counter", Name: "add"}

func sum(p *Param) (any, error) {
	total := 0
	for _, a := range p.Args {
		total += a.(int)
	}
	return total, nil
}

func newParam(args ...any) *Param {
	return NewParam(context.Background(), testMethod, nil, args)
}

func TestRun_NoCallbacks(t *testing.T) {
	p := newParam(1, 2)
	result, err := Run(p, Spec{}, sum)
	require.NoError(t, err)
	assert.Equal(t, 3, result)
	assert.Equal(t, PhaseDone, p.Phase())
}

func TestRun_BeforeRewritesArgs(t *testing.T) {
	p := newParam(1, 2)
	spec := Spec{
		Before: func(p *Param) error {
			p.SetArg(1, 40)
			return nil
		},
	}

	result, err := Run(p, spec, sum)
	require.NoError(t, err)
	assert.Equal(t, 41, result)
}

func TestRun_AfterOverwritesResult(t *testing.T) {
	p := newParam(1, 2)
	var seenPhase Phase
	spec := Spec{
		After: func(p *Param) error {
			seenPhase = p.Phase()
			p.SetResult(p.Result().(int) * 10)
			return nil
		},
	}

	result, err := Run(p, spec, sum)
	require.NoError(t, err)
	assert.Equal(t, 30, result)
	assert.Equal(t, PhaseOriginalRan, seenPhase)
}

func TestRun_PhaseSequence(t *testing.T) {
	tests := []struct {
		name     string
		replace  bool
		expected []Phase
	}{
		{"original", false, []Phase{PhasePending, PhasePreRan, PhaseOriginalRan, PhaseDone}},
		{"replaced", true, []Phase{PhasePending, PhaseReplaced, PhaseDone}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen []Phase
			p := newParam(1, 2)
			spec := Spec{
				Before:      func(p *Param) error { seen = append(seen, p.Phase()); return nil },
				After:       func(p *Param) error { seen = append(seen, p.Phase()); return errors.New("after failed") },
				Replace:     tt.replace,
				Replacement: 0,
			}
			original := func(p *Param) (any, error) {
				seen = append(seen, p.Phase())
				return sum(p)
			}

			_, err := Run(p, spec, original)
			require.Error(t, err)
			seen = append(seen, p.Phase())
			assert.Equal(t, tt.expected, seen)
			assert.NotContains(t, seen, PhasePostRan)
		})
	}
}

func TestRun_BeforeErrorStillRunsAfterOnce(t *testing.T) {
	boom := errors.New("boom")
	originalCalls, afterCalls := 0, 0
	var seenErr error

	spec := Spec{
		Before: func(p *Param) error { return boom },
		After: func(p *Param) error {
			afterCalls++
			seenErr = p.Err()
			return nil
		},
	}

	p := newParam(1)
	result, err := Run(p, spec, func(p *Param) (any, error) {
		originalCalls++
		return nil, nil
	})

	assert.Nil(t, result)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrHookBodyFailure)
	assert.Equal(t, 1, afterCalls)
	assert.Equal(t, 0, originalCalls)
	assert.Equal(t, err, seenErr)
}

func TestRun_BeforePanicIsCaptured(t *testing.T) {
	afterRan := false
	spec := Spec{
		Before: func(p *Param) error { panic("bad shape") },
		After: func(p *Param) error {
			afterRan = true
			return nil
		},
	}

	_, err := Run(newParam(), spec, sum)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad shape")
	assert.Equal(t, KindHookBodyFailure, KindOf(err))
	assert.True(t, afterRan)
}

func TestRun_AfterCanSuppressError(t *testing.T) {
	spec := Spec{
		After: func(p *Param) error {
			if p.Err() != nil {
				p.SetResult(-1)
			}
			return nil
		},
	}

	result, err := Run(newParam(), spec, func(p *Param) (any, error) {
		return nil, errors.New("original failed")
	})
	require.NoError(t, err)
	assert.Equal(t, -1, result)
}

func TestRun_OriginalErrorPassesThrough(t *testing.T) {
	target := errors.New("target error")
	var afterSaw error
	spec := Spec{After: func(p *Param) error {
		afterSaw = p.Err()
		return nil
	}}

	result, err := Run(newParam(), spec, func(p *Param) (any, error) {
		return "ignored", target
	})
	assert.Nil(t, result)
	assert.Equal(t, target, err)
	assert.Equal(t, target, afterSaw)
}

func TestRun_AfterErrorPropagates(t *testing.T) {
	spec := Spec{After: func(p *Param) error { return errors.New("after failed") }}

	result, err := Run(newParam(2, 2), spec, sum)
	assert.Nil(t, result)
	require.Error(t, err)
	assert.Equal(t, KindHookBodyFailure, KindOf(err))
}

func TestRun_ReplaceSkipsOriginal(t *testing.T) {
	called := false
	p := newParam(1, 2)
	result, err := Run(p, Replacement("fixed"), func(p *Param) (any, error) {
		called = true
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fixed", result)
	assert.False(t, called)

	var phase Phase
	spec := DoNothing
	spec.After = func(p *Param) error {
		phase = p.Phase()
		return nil
	}
	result, err = Run(newParam(), spec, sum)
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, PhaseReplaced, phase)
}

func TestRun_BeforeSetResultShortCircuits(t *testing.T) {
	called := false
	spec := Spec{Before: func(p *Param) error {
		p.SetResult(99)
		return nil
	}}

	result, err := Run(newParam(1), spec, func(p *Param) (any, error) {
		called = true
		return 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 99, result)
	assert.False(t, called)
}

func TestRun_ExtrasArePerInvocation(t *testing.T) {
	spec := Spec{
		Before: func(p *Param) error {
			_, exists := p.Extra("slot")
			assert.False(t, exists)
			p.SetExtra("slot", p.Arg(0))
			return nil
		},
		After: func(p *Param) error {
			v, ok := p.Extra("slot")
			require.True(t, ok)
			assert.Equal(t, p.Arg(0), v)
			p.DeleteExtra("slot")
			return nil
		},
	}

	for i := 0; i < 3; i++ {
		_, err := Run(newParam(i), spec, sum)
		require.NoError(t, err)
	}
}

func TestChain_Ordering(t *testing.T) {
	var trace []string
	layer := func(name string) Spec {
		return Spec{
			Name: name,
			Before: func(p *Param) error {
				trace = append(trace, "before:"+name)
				return nil
			},
			After: func(p *Param) error {
				trace = append(trace, "after:"+name)
				return nil
			},
		}
	}

	p := newParam(1, 1)
	result, err := Chain(p, []Spec{layer("outer"), layer("inner")}, func(p *Param) (any, error) {
		trace = append(trace, "original")
		return sum(p)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result)
	assert.Equal(t, []string{"before:outer", "before:inner", "original", "after:inner", "after:outer"}, trace)
	assert.Equal(t, PhaseDone, p.Phase())
}

func TestChain_InnerReplaceSeenByOuterAfter(t *testing.T) {
	var seen any
	outer := Spec{After: func(p *Param) error {
		seen = p.Result()
		return nil
	}}

	result, err := Chain(newParam(1), []Spec{outer, Replacement(7)}, sum)
	require.NoError(t, err)
	assert.Equal(t, 7, result)
	assert.Equal(t, 7, seen)
}

func TestChain_Empty(t *testing.T) {
	result, err := Chain(newParam(4, 5), nil, sum)
	require.NoError(t, err)
	assert.Equal(t, 9, result)
}

func TestError_IsByKind(t *testing.T) {
	err := errors.Wrap(&Error{Kind: KindNotFound, Type: "a.B", Method: "c"}, "resolve")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrAmbiguous)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Contains(t, err.Error(), "not_found a.B.c")
}

func TestSpec_IsZero(t *testing.T) {
	assert.True(t, Spec{Name: "x"}.IsZero())
	assert.False(t, DoNothing.IsZero())
	assert.False(t, Spec{After: func(*Param) error { return nil }}.IsZero())
}

func TestParam_ArgBounds(t *testing.T) {
	p := newParam(1)
	assert.Nil(t, p.Arg(3))
	assert.False(t, p.SetArg(-1, 2))
	assert.True(t, p.SetArg(0, 2))
	assert.Equal(t, 2, p.Arg(0))
}
