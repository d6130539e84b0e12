package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/yukikurage/kanban-board-api/internal/constants"
	"github.com/yukikurage/kanban-board-api/internal/models"
	"github.com/yukikurage/kanban-board-api/internal/repository"
)

var (
	ErrSuggestionsUnavailable = errors.New("task suggestions are not configured")
	ErrSuggestionTextRequired = errors.New("text is required")
)

// ChatCompleter is the part of the OpenAI client the suggestion service uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// SuggestedTask is a task draft extracted from free text. Nothing is stored.
type SuggestedTask struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
}

type SuggestionService struct {
	store  *repository.Store
	client ChatCompleter
	model  string
	now    func() time.Time
}

// NewSuggestionService returns a service backed by OpenAI, or one that
// reports ErrSuggestionsUnavailable when apiKey is empty.
func NewSuggestionService(store *repository.Store, apiKey string) *SuggestionService {
	var client ChatCompleter
	if apiKey != "" {
		client = openai.NewClient(apiKey)
	}
	return NewSuggestionServiceWithClient(store, client)
}

func NewSuggestionServiceWithClient(store *repository.Store, client ChatCompleter) *SuggestionService {
	return &SuggestionService{
		store:  store,
		client: client,
		model:  openai.GPT4o,
		now:    time.Now,
	}
}

func (s *SuggestionService) Enabled() bool {
	return s.client != nil
}

// SuggestTasks extracts task drafts from text for a project the actor belongs to.
func (s *SuggestionService) SuggestTasks(ctx context.Context, actorID, projectID uint64, text string) ([]SuggestedTask, error) {
	if _, err := authorize(s.store.WithContext(ctx), actorID, projectID, models.RoleMember); err != nil {
		return nil, err
	}
	if !s.Enabled() {
		return nil, ErrSuggestionsUnavailable
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrSuggestionTextRequired
	}

	prompt := fmt.Sprintf(`You extract actionable tasks from text for a Kanban board.

Current time: %s

Text:
%s

Return a JSON array of tasks in this shape:
[
  {
    "title": "short task title",
    "description": "task details",
    "priority": "one of low, medium, high, urgent",
    "due_date": "ISO8601 timestamp such as 2025-10-28T23:59:59Z, or null when no deadline is stated"
  }
]

Rules:
- Return [] when the text contains no tasks
- Resolve relative deadlines ("tomorrow", "next week") to concrete timestamps
- Return JSON only, without any explanation`, s.now().Format(time.RFC3339), text)

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parseSuggestions(resp.Choices[0].Message.Content)
}

// parseSuggestions decodes the model output, tolerating a markdown code
// fence, and normalises priorities.
func parseSuggestions(content string) ([]SuggestedTask, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var tasks []SuggestedTask
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	result := make([]SuggestedTask, 0, len(tasks))
	for _, t := range tasks {
		t.Title = strings.TrimSpace(t.Title)
		if t.Title == "" {
			continue
		}
		if !t.Priority.IsValid() {
			t.Priority = models.PriorityMedium
		}
		result = append(result, t)
		if len(result) == constants.MaxSuggestedTasks {
			break
		}
	}
	return result, nil
}
