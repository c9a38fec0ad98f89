package ai

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStoryboard(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		stage ParseStage
		want  string
	}{
		{
			name:  "plain object",
			reply: `{"moduleName":"Fire Safety"}`,
			stage: StageStrict,
			want:  `{"moduleName":"Fire Safety"}`,
		},
		{
			name:  "object with surrounding whitespace",
			reply: "\n  {\"moduleName\":\"Fire Safety\"}  \n",
			stage: StageStrict,
			want:  `{"moduleName":"Fire Safety"}`,
		},
		{
			name:  "json fence",
			reply: "```json\n{\"moduleName\":\"Fire Safety\"}\n```",
			stage: StageNormalized,
			want:  `{"moduleName":"Fire Safety"}`,
		},
		{
			name:  "bare fence",
			reply: "```\n{\"moduleName\":\"Fire Safety\"}\n```",
			stage: StageNormalized,
			want:  `{"moduleName":"Fire Safety"}`,
		},
		{
			name:  "json tag without newline",
			reply: "```json{\"moduleName\":\"Fire Safety\"}```",
			stage: StageNormalized,
			want:  `{"moduleName":"Fire Safety"}`,
		},
		{
			name:  "stray backticks",
			reply: "`{\"moduleName\":\"Fire Safety\"}`",
			stage: StageNormalized,
			want:  `{"moduleName":"Fire Safety"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseStoryboard(tt.reply)
			require.True(t, result.OK(), "unexpected error: %v", result.Err)
			assert.Equal(t, tt.stage, result.Stage)
			assert.JSONEq(t, tt.want, string(result.Content))
		})
	}
}

func TestParseStoryboard_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"prose", "Sure! Here is your storyboard: the module covers fire safety."},
		{"empty", ""},
		{"array", `[{"moduleName":"x"}]`},
		{"fenced array", "```json\n[1,2]\n```"},
		{"truncated object", `{"moduleName":"Fire`},
		{"prose around object", `Here you go: {"moduleName":"x"} enjoy`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseStoryboard(tt.reply)
			assert.False(t, result.OK())
			assert.Equal(t, StageFailed, result.Stage)
			assert.Nil(t, result.Content)
			assert.ErrorIs(t, result.Err, ErrMalformedModelOutput)
		})
	}
}

func TestParseStoryboard_ExcerptBounded(t *testing.T) {
	reply := "Unfortunately " + strings.Repeat("é", 500)
	result := ParseStoryboard(reply)

	var malformed *MalformedOutputError
	require.ErrorAs(t, result.Err, &malformed)
	assert.Len(t, []rune(malformed.Excerpt), excerptRunes)
	assert.True(t, strings.HasPrefix(malformed.Excerpt, "Unfortunately"))
}

func TestParseStoryboard_PreservesContent(t *testing.T) {
	reply := "```json\n{\"moduleName\":\"A\",\"scenes\":[{\"sceneNumber\":1,\"voiceover\":\"Use ```code``` wisely\"}]}\n```"
	result := ParseStoryboard(reply)
	require.True(t, result.OK())

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(result.Content, &decoded))
	scenes := decoded["scenes"].([]any)
	assert.Equal(t, "Use ```code``` wisely", scenes[0].(map[string]any)["voiceover"])
}

func TestParseStage_String(t *testing.T) {
	assert.Equal(t, "strict", StageStrict.String())
	assert.Equal(t, "normalized", StageNormalized.String())
	assert.Equal(t, "failed", StageFailed.String())
}
