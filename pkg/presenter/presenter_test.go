package presenter

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTest() (*Terminal, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return NewWithOptions(&out, &errOut, ColorNever), &out, &errOut
}

func TestParseColorMode(t *testing.T) {
	tests := []struct {
		in   string
		want ColorMode
	}{
		{"always", ColorAlways},
		{"FORCE", ColorAlways},
		{"never", ColorNever},
		{"off", ColorNever},
		{"auto", ColorAuto},
		{"", ColorAuto},
		{"bogus", ColorAuto},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseColorMode(tt.in), tt.in)
	}
}

func TestDetectColorMode(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	t.Setenv("OVERWATCH_COLOR", "always")
	assert.Equal(t, ColorNever, detectColorMode())

	t.Setenv("NO_COLOR", "")
	assert.Equal(t, ColorAlways, detectColorMode())
}

func TestMessages(t *testing.T) {
	p, out, errOut := newTest()

	p.Success("installed 4 hooks")
	p.Warning("1 hook failed")
	p.Info("plain")
	p.Section("Hooks")
	p.Error(errors.New("boom"), "run")
	p.Error(errors.New("bare"), "")
	p.Error(nil, "ignored")

	assert.Equal(t, "✓ installed 4 hooks\n⚠ 1 hook failed\nplain\nHooks\n-----\n", out.String())
	assert.Equal(t, "[ERROR] run: boom\n[ERROR] bare\n", errOut.String())
}

func TestQuiet(t *testing.T) {
	p, out, errOut := newTest()
	p.SetQuiet(true)
	assert.True(t, p.IsQuiet())

	p.Success("x")
	p.Info("x")
	p.Table([]string{"a"}, [][]string{{"b"}})
	p.Error(errors.New("still shown"), "")

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "still shown")
}

func TestTable(t *testing.T) {
	p, out, _ := newTest()
	p.Table([]string{"METHOD", "HOOKS"}, [][]string{
		{"AppSearchView.eN(int)", "1"},
		{"Launcher.eN(android.view.View,boolean,int,int)", "0"},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "METHOD"))
	assert.Equal(t, strings.Index(lines[0], "HOOKS"), strings.LastIndex(lines[1], "1"))
}
