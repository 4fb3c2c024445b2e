package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"piggybank/internal/ai"
	"piggybank/internal/models"
)

func newTestChatService(f *fixture, llm ai.Client) *ChatService {
	return NewChatService(f.db, f.chats, f.kids, llm, zerolog.Nop())
}

func TestChatKidPrompt(t *testing.T) {
	f := newFixture(t)
	llm := &fakeLLM{reply: "Saving means keeping money for later."}
	chat := newTestChatService(f, llm)
	parent := f.parent(t, "p1")
	kid := f.kid(t, parent.ID, CreateKidInput{Name: "Ada", Age: intPtr(7)})

	result, err := chat.Chat(context.Background(), parent.ID, ChatInput{Message: "What is saving?", KidID: kid.ID})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if result.Response != llm.reply || !strings.HasPrefix(result.SessionID, "session-") {
		t.Errorf("Chat() = %+v", result)
	}

	req := llm.last()
	if req.SystemPrompt != ai.KidSystemPrompt(7) {
		t.Errorf("SystemPrompt = %q, want kid prompt", req.SystemPrompt)
	}
	if len(req.Messages) != 1 || !strings.Contains(req.Messages[0].Text, "What is saving?") {
		t.Errorf("Messages = %+v", req.Messages)
	}

	stored, err := f.chats.ListSessionHistory(context.Background(), parent.ID, result.SessionID, ChatHistoryLimit)
	if err != nil {
		t.Fatalf("ListSessionHistory() error = %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("stored %d messages, want 2", len(stored))
	}
	if stored[0].Role != models.RoleUser || stored[1].Role != models.RoleAssistant {
		t.Errorf("roles = %s, %s", stored[0].Role, stored[1].Role)
	}
	for _, msg := range stored {
		if msg.Metadata["kidId"] != kid.ID || msg.Metadata["kidName"] != "Ada" {
			t.Errorf("metadata = %v", msg.Metadata)
		}
	}
}

func TestChatParentHistory(t *testing.T) {
	f := newFixture(t)
	llm := &fakeLLM{reply: "ok"}
	chat := newTestChatService(f, llm)
	parent := f.parent(t, "p1")
	noAge := f.kid(t, parent.ID, CreateKidInput{Name: "Bo"})
	ctx := context.Background()

	first, err := chat.Chat(ctx, parent.ID, ChatInput{Message: "How much allowance?", SessionID: "session-a"})
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if first.SessionID != "session-a" {
		t.Errorf("SessionID = %q, want session-a", first.SessionID)
	}

	// A kid without an age uses the parent conversation.
	if _, err := chat.Chat(ctx, parent.ID, ChatInput{Message: "And chores?", SessionID: "session-a", KidID: noAge.ID}); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}

	req := llm.last()
	if req.SystemPrompt != ai.ParentSystemPrompt {
		t.Errorf("SystemPrompt = %q, want parent prompt", req.SystemPrompt)
	}
	if len(req.Messages) != 3 {
		t.Fatalf("len(Messages) = %d, want 3", len(req.Messages))
	}
	if req.Messages[0].Text != "How much allowance?" || req.Messages[1].Role != ai.RoleAssistant || req.Messages[2].Text != "And chores?" {
		t.Errorf("Messages = %+v", req.Messages)
	}

	// Another parent's session with the same ID is not shared.
	other := f.parent(t, "p2")
	if _, err := chat.Chat(ctx, other.ID, ChatInput{Message: "Hi", SessionID: "session-a"}); err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if n := len(llm.last().Messages); n != 1 {
		t.Errorf("other parent saw %d messages, want 1", n)
	}
}

func TestChatUnavailable(t *testing.T) {
	f := newFixture(t)
	chat := newTestChatService(f, nil)
	parent := f.parent(t, "p1")
	kid := f.kid(t, parent.ID, CreateKidInput{Name: "Ada", Age: intPtr(9)})
	ctx := context.Background()

	if chat.Enabled() {
		t.Error("Enabled() = true with no model")
	}
	if _, err := chat.Chat(ctx, parent.ID, ChatInput{Message: "hi"}); !errors.Is(err, ErrAIUnavailable) {
		t.Errorf("Chat() error = %v, want ErrAIUnavailable", err)
	}
	if _, err := chat.SuggestChoreAmount(ctx, parent.ID, ChoreInput{ChoreName: "Dishes", KidID: kid.ID}); !errors.Is(err, ErrAIUnavailable) {
		t.Errorf("SuggestChoreAmount() error = %v, want ErrAIUnavailable", err)
	}
	if _, err := chat.SavingsMessage(ctx, kid, "Bike", decimal.NewFromInt(50)); !errors.Is(err, ErrAIUnavailable) {
		t.Errorf("SavingsMessage() error = %v, want ErrAIUnavailable", err)
	}
}

func TestChatModelErrorStoresNothing(t *testing.T) {
	f := newFixture(t)
	chat := newTestChatService(f, &fakeLLM{err: errors.New("quota exceeded")})
	parent := f.parent(t, "p1")

	if _, err := chat.Chat(context.Background(), parent.ID, ChatInput{Message: "hi", SessionID: "s1"}); err == nil {
		t.Fatal("Chat() error = nil, want model error")
	}
	stored, _ := f.chats.ListSessionHistory(context.Background(), parent.ID, "s1", ChatHistoryLimit)
	if len(stored) != 0 {
		t.Errorf("stored %d messages after failure, want 0", len(stored))
	}
}

func TestSuggestChoreAmount(t *testing.T) {
	f := newFixture(t)
	parent := f.parent(t, "p1")
	kid := f.kid(t, parent.ID, CreateKidInput{Name: "Ada"})

	tests := []struct {
		name       string
		reply      string
		wantAmount string
	}{
		{name: "json reply", reply: `{"suggestedAmount": 3.5, "reasoning": "Short task"}`, wantAmount: "3.5"},
		{name: "fenced json", reply: "```json\n{\"suggestedAmount\": 2, \"reasoning\": \"Easy\"}\n```", wantAmount: "2"},
		{name: "unusable reply", reply: "I think about five dollars", wantAmount: "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &fakeLLM{reply: tt.reply}
			chat := newTestChatService(f, llm)

			got, err := chat.SuggestChoreAmount(context.Background(), parent.ID, ChoreInput{ChoreName: "Dishes", KidID: kid.ID})
			if err != nil {
				t.Fatalf("SuggestChoreAmount() error = %v", err)
			}
			if !got.SuggestedAmount.Equal(decimal.RequireFromString(tt.wantAmount)) {
				t.Errorf("SuggestedAmount = %s, want %s", got.SuggestedAmount, tt.wantAmount)
			}
			if !strings.Contains(llm.last().Messages[0].Text, "10") {
				t.Errorf("prompt should use default age 10: %q", llm.last().Messages[0].Text)
			}
		})
	}

	chat := newTestChatService(f, &fakeLLM{reply: "{}"})
	other := f.parent(t, "p2")
	if _, err := chat.SuggestChoreAmount(context.Background(), other.ID, ChoreInput{ChoreName: "Dishes", KidID: kid.ID}); !errors.Is(err, ErrKidNotFound) {
		t.Errorf("SuggestChoreAmount(other parent) error = %v, want ErrKidNotFound", err)
	}
}
