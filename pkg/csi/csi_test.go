package csi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePairReadsSecondAndThirdFields(t *testing.T) {
	first, second, ok := parsePair("\x1b[6;40;20t")
	assert.True(t, ok)
	assert.Equal(t, 40, first)
	assert.Equal(t, 20, second)
}

func TestParsePairRejectsShortReply(t *testing.T) {
	_, _, ok := parsePair("\x1b[6;40")
	assert.False(t, ok)
}

func TestParsePairToleratesTrailingLetter(t *testing.T) {
	first, second, ok := parsePair("\x1b[?2;0;800S")
	assert.True(t, ok)
	assert.Equal(t, 0, first)
	assert.Equal(t, 800, second)
}

func TestWrapMultiplexerPassthroughNoopOutsideMultiplexer(t *testing.T) {
	t.Setenv("TMUX", "")
	t.Setenv("TERM_PROGRAM", "")
	seq := "\x1b[16t"
	assert.Equal(t, seq, WrapMultiplexerPassthrough(seq))
}

func TestWrapMultiplexerPassthroughEscapesInsideTmux(t *testing.T) {
	t.Setenv("TMUX", "/tmp/tmux-1000/default,1234,0")
	seq := "\x1b[16t"
	wrapped := WrapMultiplexerPassthrough(seq)
	assert.Equal(t, "\x1bPtmux;\x1b\x1b[16t\x1b\\", wrapped)
}

func TestWrapMultiplexerPassthroughLeavesNonEscapeSequenceAlone(t *testing.T) {
	t.Setenv("TMUX", "/tmp/tmux-1000/default,1234,0")
	assert.Equal(t, "not-an-escape", WrapMultiplexerPassthrough("not-an-escape"))
}

func TestInMultiplexerDetectsTmuxEnv(t *testing.T) {
	t.Setenv("TMUX", "/tmp/tmux-1000/default,1234,0")
	t.Setenv("TERM_PROGRAM", "")
	assert.True(t, inMultiplexer())
}

func TestInMultiplexerFalseWhenUnset(t *testing.T) {
	t.Setenv("TMUX", "")
	t.Setenv("TERM_PROGRAM", "iTerm.app")
	assert.False(t, inMultiplexer())
}
