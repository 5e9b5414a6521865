package document

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"doc-assistant/internal/assistant"
	"doc-assistant/internal/history"
	"doc-assistant/internal/llm"
	"doc-assistant/internal/prompts"
)

func newSummarizer(backend llm.Backend, maxWords int) *Summarizer {
	return NewSummarizer(assistant.New(backend, history.NewMemoryStore()), nil, maxWords)
}

func TestSummarizeSendsSummaryPrompt(t *testing.T) {
	backend := new(llm.MockBackend)
	want := prompts.Summary("Go is a language.", prompts.Medium, prompts.Narrative)
	backend.On("Complete", mock.Anything, []history.Turn{history.User(want)}).Return("A story about Go.", nil).Once()

	res := newSummarizer(backend, 0).Summarize(context.Background(), "Go is a language.", prompts.Medium, prompts.Narrative)
	assert.False(t, res.Failed())
	assert.Equal(t, "A story about Go.", res.Text)
	backend.AssertExpectations(t)
}

func TestSummarizeEmptyDocument(t *testing.T) {
	backend := new(llm.MockBackend)
	res := newSummarizer(backend, 0).Summarize(context.Background(), "  \n", prompts.Short, prompts.Narrative)

	require.True(t, res.Failed())
	assert.Equal(t, SummaryErrorText, res.Text)
	assert.Equal(t, assistant.KindInvalidInput, res.Err.Kind)
	assert.ErrorIs(t, res.Err, ErrEmptyDocument)
	backend.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestSummarizeBackendFailureReturnsFallback(t *testing.T) {
	backend := new(llm.MockBackend)
	backend.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("refused")).Once()

	res := newSummarizer(backend, 0).Summarize(context.Background(), "text", prompts.Short, prompts.Narrative)
	require.True(t, res.Failed())
	assert.Equal(t, assistant.DefaultFallback, res.Text)
}

func TestSummarizeLongDocumentInParts(t *testing.T) {
	backend := new(llm.MockBackend)
	isPartial := func(m []history.Turn) bool {
		return strings.Contains(m[0].Content, "bullet points") && !strings.Contains(m[0].Content, "part-")
	}
	backend.On("Complete", mock.Anything, mock.MatchedBy(isPartial)).Return("part-summary", nil).Times(3)
	backend.On("Complete", mock.Anything, mock.MatchedBy(func(m []history.Turn) bool {
		return strings.Contains(m[0].Content, "part-summary\n\npart-summary\n\npart-summary")
	})).Return("final", nil).Once()

	doc := strings.Repeat("lorem ", 50)
	res := newSummarizer(backend, 20).Summarize(context.Background(), doc, prompts.Medium, prompts.Narrative)

	require.False(t, res.Failed())
	assert.Equal(t, "final", res.Text)
	backend.AssertExpectations(t)
}

func TestSummarizeLongDocumentPartialFailure(t *testing.T) {
	backend := new(llm.MockBackend)
	backend.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("boom")).Once()

	res := newSummarizer(backend, 5).Summarize(context.Background(), strings.Repeat("x ", 30), prompts.Long, prompts.Narrative)
	require.True(t, res.Failed())
	assert.Equal(t, assistant.DefaultFallback, res.Text)
	backend.AssertNumberOfCalls(t, "Complete", 1)
}

func TestAnswer(t *testing.T) {
	backend := new(llm.MockBackend)
	want := prompts.Question("Go was released in 2009.", "When?")
	backend.On("Complete", mock.Anything, []history.Turn{history.User(want)}).Return("2009", nil).Once()

	res := newSummarizer(backend, 0).Answer(context.Background(), "Go was released in 2009.", "When?")
	assert.Equal(t, "2009", res.Text)
	backend.AssertExpectations(t)
}

func TestAnswerInvalidInput(t *testing.T) {
	s := newSummarizer(new(llm.MockBackend), 0)

	res := s.Answer(context.Background(), "", "When?")
	assert.Equal(t, AnswerErrorText, res.Text)
	assert.ErrorIs(t, res.Err, ErrEmptyDocument)

	res = s.Answer(context.Background(), "doc", " ")
	assert.Equal(t, AnswerErrorText, res.Text)
	assert.ErrorIs(t, res.Err, ErrEmptyQuestion)
}

func TestPreviewCutsOnRuneBoundary(t *testing.T) {
	assert.Equal(t, "short", preview("short", 200))
	got := preview(strings.Repeat("é", 10), 5)
	assert.Equal(t, "éé...", got)
	assert.True(t, utf8.ValidString(got))
}
