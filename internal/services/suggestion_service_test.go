package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/kanban-board-api/internal/constants"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/testutil"
)

type fakeCompleter struct {
	content string
	err     error
	got     openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.got = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.content}},
		},
	}, nil
}

func TestParseSuggestions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
		wantErr bool
	}{
		{"plain", `[{"title":"Ship it","priority":"high"}]`, []string{"Ship it"}, false},
		{"fenced", "```json\n[{\"title\":\"Fix login\"}]\n```", []string{"Fix login"}, false},
		{"bare fence", "```\n[{\"title\":\"Fix login\"}]\n```", []string{"Fix login"}, false},
		{"empty titles dropped", `[{"title":"  "},{"title":"Keep"}]`, []string{"Keep"}, false},
		{"none", `[]`, []string{}, false},
		{"prose", `Sure! Here are your tasks.`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSuggestions(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			titles := make([]string, 0, len(got))
			for _, s := range got {
				titles = append(titles, s.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestParseSuggestions_NormalisesPriorityAndCaps(t *testing.T) {
	var items []string
	for i := 0; i < constants.MaxSuggestedTasks+5; i++ {
		items = append(items, fmt.Sprintf(`{"title":"task %d","priority":"whenever"}`, i))
	}

	got, err := parseSuggestions("[" + strings.Join(items, ",") + "]")
	require.NoError(t, err)
	require.Len(t, got, constants.MaxSuggestedTasks)
	assert.Equal(t, models.PriorityMedium, got[0].Priority)
}

func TestSuggestionService_SuggestTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := testutil.TestContext(t)

	fake := &fakeCompleter{content: `[{"title":"Book venue","description":"for the offsite","priority":"urgent","due_date":"2025-07-01T23:59:59Z"}]`}
	svc := NewSuggestionServiceWithClient(env.store, fake)
	svc.now = func() time.Time { return time.Date(2025, 6, 20, 9, 0, 0, 0, time.UTC) }

	got, err := svc.SuggestTasks(ctx, env.member.ID, env.project.ID, "  we need a venue by July 1st ")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.PriorityUrgent, got[0].Priority)
	require.NotNil(t, got[0].DueDate)
	assert.Equal(t, 2025, got[0].DueDate.Year())

	require.Len(t, fake.got.Messages, 1)
	assert.Contains(t, fake.got.Messages[0].Content, "2025-06-20T09:00:00Z")
	assert.Contains(t, fake.got.Messages[0].Content, "we need a venue by July 1st")

	_, err = svc.SuggestTasks(ctx, env.member.ID, env.project.ID, " ")
	assert.ErrorIs(t, err, ErrSuggestionTextRequired)

	outsider := testutil.CreateTestUser(t, env.db, "outsider")
	_, err = svc.SuggestTasks(ctx, outsider.ID, env.project.ID, "anything")
	assert.ErrorIs(t, err, ErrProjectNotFound)

	fake.err = errors.New("rate limited")
	_, err = svc.SuggestTasks(ctx, env.member.ID, env.project.ID, "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestSuggestionService_Disabled(t *testing.T) {
	env := newTestEnv(t)
	svc := NewSuggestionService(env.store, "")
	assert.False(t, svc.Enabled())

	_, err := svc.SuggestTasks(testutil.TestContext(t), env.member.ID, env.project.ID, "do things")
	assert.ErrorIs(t, err, ErrSuggestionsUnavailable)
}
