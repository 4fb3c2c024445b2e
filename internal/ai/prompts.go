package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParentSystemPrompt is used for conversations with parents
const ParentSystemPrompt = "You are a helpful financial education assistant for families."

// KidSystemPrompt returns the instructions for explaining a concept to a child of the given age
func KidSystemPrompt(age int) string {
	return fmt.Sprintf(`You are a friendly financial educator for children.
Explain financial concepts in a way that a %d-year-old can understand.
Use simple language, examples, and encouragement. Keep responses under 200 words.`, age)
}

// KidConceptMessage wraps a child's question for KidSystemPrompt
func KidConceptMessage(concept string) string {
	return "Explain this financial concept to me: " + concept
}

// ChoreSystemPrompt asks the model for a JSON compensation suggestion
const ChoreSystemPrompt = `You are a helpful assistant that suggests fair allowance amounts for children's chores.
Consider the complexity, time required, and age-appropriateness of the task.
Respond in JSON format with: { "suggestedAmount": number, "reasoning": string }
Return ONLY valid raw JSON. Do NOT wrap the response in code fences.`

// ChoreMessage describes a chore for ChoreSystemPrompt
func ChoreMessage(choreName, description string, kidAge int) string {
	return fmt.Sprintf(`Chore: %s
Description: %s
Child's age: %d

What would be a fair payment for this chore?`, choreName, description, kidAge)
}

// SavingsSystemPrompt is used for savings goal encouragement
const SavingsSystemPrompt = "You are an encouraging financial coach for kids."

// SavingsMessage asks for an encouraging note about progress towards a goal
func SavingsMessage(kidName, goalName string, balance, target decimal.Decimal) string {
	progress := decimal.Zero
	if target.IsPositive() {
		progress = balance.Div(target).Mul(decimal.NewFromInt(100))
	}
	remaining := target.Sub(balance)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return fmt.Sprintf(`Write an encouraging message for %s about their savings goal "%s".
They have saved $%s out of $%s (%s%% complete).
They need $%s more. Keep it short, positive, and motivating.`,
		kidName, goalName, balance.StringFixed(2), target.StringFixed(2), progress.StringFixed(1), remaining.StringFixed(2))
}

// ChoreSuggestion is the model's proposed payment for a chore
type ChoreSuggestion struct {
	SuggestedAmount decimal.Decimal `json:"suggestedAmount"`
	Reasoning       string          `json:"reasoning"`
}

// DefaultChoreSuggestion is returned whenever the model's reply cannot be used
func DefaultChoreSuggestion() ChoreSuggestion {
	return ChoreSuggestion{
		SuggestedAmount: decimal.NewFromInt(5),
		Reasoning:       "Unable to analyze - defaulting to $5",
	}
}

// ParseChoreSuggestion extracts a suggestion from the model's reply,
// falling back to DefaultChoreSuggestion when it is not the expected JSON object.
func ParseChoreSuggestion(raw string) ChoreSuggestion {
	var parsed struct {
		SuggestedAmount *decimal.Decimal `json:"suggestedAmount"`
		Reasoning       string           `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &parsed); err != nil {
		return DefaultChoreSuggestion()
	}
	if parsed.SuggestedAmount == nil || parsed.SuggestedAmount.IsNegative() || parsed.Reasoning == "" {
		return DefaultChoreSuggestion()
	}
	return ChoreSuggestion{
		SuggestedAmount: parsed.SuggestedAmount.Round(2),
		Reasoning:       parsed.Reasoning,
	}
}

// cleanModelJSON strips Markdown fences and text around the outermost JSON object
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return s
		}
		s = strings.TrimSpace(s[idx+1:])
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return s
}
