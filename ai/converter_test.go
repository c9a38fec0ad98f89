package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/fake"
)

// recordingModel captures the prompt of every call.
type recordingModel struct {
	reply   string
	err     error
	choices bool
	prompts []string
}

func (m *recordingModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompts = append(m.prompts, text.Text)
			}
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	if !m.choices {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *recordingModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestLLMConverter_FencedReply(t *testing.T) {
	model := fake.NewFakeLLM([]string{"```json\n{\"moduleName\":\"Fire Safety Basics\",\"scenes\":[]}\n```"})
	conv := NewLLMConverter(model)

	content, err := conv.Convert(context.Background(), "Fire Safety Basics\nScene 1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"moduleName":"Fire Safety Basics","scenes":[]}`, string(content))
}

func TestLLMConverter_ProseReply(t *testing.T) {
	model := &recordingModel{reply: "Sure! Here is a summary of the storyboard.", choices: true}
	conv := NewLLMConverter(model)

	_, err := conv.Convert(context.Background(), "Some deck text")
	assert.ErrorIs(t, err, ErrMalformedModelOutput)
	// no retry on malformed output
	assert.Len(t, model.prompts, 1)
}

func TestLLMConverter_EmptyInput(t *testing.T) {
	model := &recordingModel{choices: true}
	conv := NewLLMConverter(model)

	_, err := conv.Convert(context.Background(), "  \n\t")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Empty(t, model.prompts)
}

func TestLLMConverter_TruncatesInput(t *testing.T) {
	model := &recordingModel{reply: `{"moduleName":"x"}`, choices: true}
	conv := NewLLMConverter(model, WithMaxInputChars(10))

	_, err := conv.Convert(context.Background(), "0123456789SHOULD-NOT-APPEAR")
	require.NoError(t, err)
	require.Len(t, model.prompts, 1)
	assert.True(t, strings.HasPrefix(model.prompts[0], ConversionPrompt))
	assert.True(t, strings.HasSuffix(model.prompts[0], "0123456789"))
	assert.NotContains(t, model.prompts[0], "SHOULD-NOT-APPEAR")
}

func TestLLMConverter_ServiceError(t *testing.T) {
	boom := errors.New("quota exceeded")
	conv := NewLLMConverter(&recordingModel{err: boom})

	_, err := conv.Convert(context.Background(), "text")
	assert.ErrorIs(t, err, boom)
}

func TestLLMConverter_NoChoices(t *testing.T) {
	conv := NewLLMConverter(&recordingModel{})

	_, err := conv.Convert(context.Background(), "text")
	assert.ErrorIs(t, err, ErrNoChoices)
}
