package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildConversionPrompt(t *testing.T) {
	prompt, truncated := BuildConversionPrompt("Scene 1: Welcome", DefaultMaxInputChars)

	assert.False(t, truncated)
	assert.True(t, strings.HasPrefix(prompt, ConversionPrompt))
	assert.True(t, strings.HasSuffix(prompt, "Scene 1: Welcome"))
}

func TestBuildConversionPrompt_Truncates(t *testing.T) {
	text := strings.Repeat("ab", 20) + "TAIL"

	prompt, truncated := BuildConversionPrompt(text, 40)
	assert.True(t, truncated)
	assert.NotContains(t, prompt, "TAIL")
	assert.True(t, strings.HasSuffix(prompt, strings.Repeat("ab", 20)))
}

func TestBuildConversionPrompt_TruncatesByRune(t *testing.T) {
	prompt, truncated := BuildConversionPrompt("ééééé", 3)
	assert.True(t, truncated)
	assert.True(t, strings.HasSuffix(prompt, "\nééé"))
}

func TestBuildConversionPrompt_ZeroMeansUnbounded(t *testing.T) {
	text := strings.Repeat("x", DefaultMaxInputChars+10)
	prompt, truncated := BuildConversionPrompt(text, 0)
	assert.False(t, truncated)
	assert.True(t, strings.HasSuffix(prompt, text))
}
