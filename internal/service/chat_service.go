package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"piggybank/internal/ai"
	"piggybank/internal/credentials"
	"piggybank/internal/database"
	"piggybank/internal/models"
	"piggybank/internal/repository"
	"piggybank/internal/validation"
)

// ChatHistoryLimit is how many earlier messages of a session are sent to the model
const ChatHistoryLimit = 20

// ChatInput is one message from a parent
type ChatInput struct {
	Message   string
	SessionID string
	KidID     string
}

// ChatResult is the assistant's reply
type ChatResult struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
}

// ChoreInput describes a chore to price
type ChoreInput struct {
	ChoreName   string
	Description string
	KidID       string
}

// ChatService proxies conversations to the language model and keeps their history
type ChatService struct {
	db       *database.DB
	chatRepo *repository.ChatRepository
	kidRepo  *repository.KidRepository
	llm      ai.Client
	log      zerolog.Logger
}

// NewChatService creates a new chat service. llm may be nil when no model is configured.
func NewChatService(db *database.DB, chatRepo *repository.ChatRepository, kidRepo *repository.KidRepository, llm ai.Client, log zerolog.Logger) *ChatService {
	return &ChatService{
		db:       db,
		chatRepo: chatRepo,
		kidRepo:  kidRepo,
		llm:      llm,
		log:      log,
	}
}

// Enabled reports whether a model is configured
func (s *ChatService) Enabled() bool {
	return s.llm != nil
}

// Chat answers a parent's message. When KidID names one of the parent's kids
// with a known age, the answer is pitched at that kid instead.
func (s *ChatService) Chat(ctx context.Context, userID string, in ChatInput) (*ChatResult, error) {
	v := validation.New()
	v.StringLength("message", in.Message, 1, 1000)
	if err := v.Err(); err != nil {
		return nil, err
	}
	if s.llm == nil {
		return nil, ErrAIUnavailable
	}

	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = credentials.GenerateChatSessionID()
	}

	var kid *models.Kid
	if in.KidID != "" {
		var err error
		kid, err = s.kidRepo.GetKidForUser(ctx, in.KidID, userID)
		if err != nil {
			return nil, err
		}
	}

	var (
		req      ai.Request
		metadata models.Metadata
	)
	if kid != nil && kid.Age != nil {
		req = ai.Request{
			SystemPrompt: ai.KidSystemPrompt(*kid.Age),
			Messages:     []ai.Message{{Role: ai.RoleUser, Text: ai.KidConceptMessage(in.Message)}},
			MaxTokens:    500,
		}
		metadata = models.Metadata{"kidId": kid.ID, "kidName": kid.Name}
	} else {
		history, err := s.chatRepo.ListSessionHistory(ctx, userID, sessionID, ChatHistoryLimit)
		if err != nil {
			return nil, err
		}
		messages := make([]ai.Message, 0, len(history)+1)
		for _, msg := range history {
			messages = append(messages, ai.Message{Role: ai.Role(msg.Role), Text: msg.Content})
		}
		messages = append(messages, ai.Message{Role: ai.RoleUser, Text: in.Message})
		req = ai.Request{
			SystemPrompt: ai.ParentSystemPrompt,
			Messages:     messages,
			MaxTokens:    1024,
		}
	}

	response, err := s.llm.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate chat response: %w", err)
	}

	now := time.Now().UTC()
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		chats := s.chatRepo.WithTx(tx)
		for _, msg := range []*models.ChatMessage{
			{UserID: userID, SessionID: sessionID, Role: models.RoleUser, Content: in.Message, Metadata: metadata, CreatedAt: now},
			{UserID: userID, SessionID: sessionID, Role: models.RoleAssistant, Content: response, Metadata: metadata, CreatedAt: now},
		} {
			if err := chats.CreateMessage(ctx, msg); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ChatResult{Response: response, SessionID: sessionID}, nil
}

// SuggestChoreAmount asks the model for a fair payment. Unusable replies fall back to a default.
func (s *ChatService) SuggestChoreAmount(ctx context.Context, userID string, in ChoreInput) (*ai.ChoreSuggestion, error) {
	v := validation.New()
	v.StringLength("choreName", in.ChoreName, 1, 100)
	v.MaxLength("description", in.Description, 500)
	v.Check(strings.TrimSpace(in.KidID) != "", "kidId", "kidId is required")
	if err := v.Err(); err != nil {
		return nil, err
	}
	if s.llm == nil {
		return nil, ErrAIUnavailable
	}

	kid, err := s.kidRepo.GetKidForUser(ctx, in.KidID, userID)
	if err != nil {
		return nil, err
	}
	if kid == nil {
		return nil, ErrKidNotFound
	}
	age := 10
	if kid.Age != nil {
		age = *kid.Age
	}

	raw, err := s.llm.Generate(ctx, ai.Request{
		SystemPrompt: ai.ChoreSystemPrompt,
		Messages:     []ai.Message{{Role: ai.RoleUser, Text: ai.ChoreMessage(strings.TrimSpace(in.ChoreName), in.Description, age)}},
		MaxTokens:    300,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to suggest chore amount: %w", err)
	}

	suggestion := ai.ParseChoreSuggestion(raw)
	return &suggestion, nil
}

// SavingsMessage writes an encouraging note about the kid's progress towards a goal
func (s *ChatService) SavingsMessage(ctx context.Context, kid *models.Kid, goalName string, target decimal.Decimal) (string, error) {
	v := validation.New()
	v.StringLength("goalName", goalName, 1, 100)
	v.PositiveAmount("targetAmount", target)
	if err := v.Err(); err != nil {
		return "", err
	}
	if s.llm == nil {
		return "", ErrAIUnavailable
	}

	message, err := s.llm.Generate(ctx, ai.Request{
		SystemPrompt: ai.SavingsSystemPrompt,
		Messages:     []ai.Message{{Role: ai.RoleUser, Text: ai.SavingsMessage(kid.Name, strings.TrimSpace(goalName), kid.Balance, target)}},
		MaxTokens:    150,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate savings message: %w", err)
	}
	return message, nil
}
