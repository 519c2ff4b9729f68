// Package ai generates spending advice from a monthly report through an
// OpenAI-compatible chat completion endpoint.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/singleflight"

	"fintrack/internal/config"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// ErrNoAPIKey means advice is disabled: no credential was configured.
var ErrNoAPIKey = errors.New("advice requires an API key")

// FallbackAdvice is shown when the provider cannot be reached. The
// failure is logged; the user sees this text instead of an error page.
const FallbackAdvice = "Failed to connect to AI server. Check your internet."

const emptyAdvice = "I couldn't generate advice right now."

// ChatCompleter is the slice of the OpenAI client the advisor needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Advisor struct {
	client  ChatCompleter
	model   string
	timeout time.Duration
	logger  *applog.Logger
	group   singleflight.Group
}

// New builds an advisor from the app config. A missing API key yields an
// advisor whose Advise always returns ErrNoAPIKey.
func New(cfg *config.Config, logger *applog.Logger) *Advisor {
	a := &Advisor{
		model:   cfg.OpenAIModel,
		timeout: cfg.AdviceTimeout,
		logger:  logger.WithComponent(applog.ComponentAdvisor),
	}
	if cfg.AdviceEnabled() {
		clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.OpenAIBaseURL != "" {
			clientCfg.BaseURL = cfg.OpenAIBaseURL
		}
		a.client = openai.NewClientWithConfig(clientCfg)
	}
	return a
}

// NewWithClient injects a client directly, for tests.
func NewWithClient(client ChatCompleter, model string, timeout time.Duration, logger *applog.Logger) *Advisor {
	return &Advisor{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger.WithComponent(applog.ComponentAdvisor),
	}
}

// Enabled reports whether a credential was configured.
func (a *Advisor) Enabled() bool {
	return a.client != nil
}

// Advise produces advice for the report's month. Concurrent requests for
// the same month collapse into a single upstream call. Provider errors
// are logged and degrade to FallbackAdvice rather than failing the page.
func (a *Advisor) Advise(ctx context.Context, report core.Report) (string, error) {
	if a.client == nil {
		return "", ErrNoAPIKey
	}

	key := fmt.Sprintf("%04d-%02d", report.Year, report.Month)
	text, err, shared := a.group.Do(key, func() (any, error) {
		return a.complete(ctx, BuildPrompt(report))
	})
	if err != nil {
		return "", err
	}
	if shared {
		a.logger.DebugContext(ctx, "Joined in-flight advice request",
			applog.FieldOperation, applog.OpAdvice,
			applog.FieldYear, report.Year,
			applog.FieldMonth, int(report.Month))
	}
	return text.(string), nil
}

func (a *Advisor) complete(ctx context.Context, prompt string) (string, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		a.logger.WarnContext(ctx, "Advice provider unreachable",
			applog.FieldOperation, applog.OpAdvice,
			applog.FieldError, err)
		return FallbackAdvice, nil
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return emptyAdvice, nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// BuildPrompt renders the coaching prompt from one month's report.
// Amounts are taka; the audience framing and the word limit shape the
// tone of the generated advice.
func BuildPrompt(r core.Report) string {
	var budgetLines []string
	for _, row := range r.Budgets {
		budgetLines = append(budgetLines, fmt.Sprintf("%s: Spent ৳%s of ৳%s budget.",
			row.Budget.Category, row.Status.Spent, row.Budget.Limit))
	}

	var goalParts []string
	for _, row := range r.Goals {
		goalParts = append(goalParts, fmt.Sprintf("%s: %.0f%% complete.", row.Goal.Name, row.Percent))
	}
	goalsSummary := strings.Join(goalParts, ", ")
	if goalsSummary == "" {
		goalsSummary = "No goals set yet."
	}

	return fmt.Sprintf(`You are an expert Personal Finance Coach for a student in Bangladesh.
Analyze the user's "Income and Uses" for %s:
- Total Monthly Income: ৳%s
- Total Monthly Expenses (Uses): ৳%s
- Current Savings Rate: %.1f%%

Category Breakdown & Budgets:
%s

Savings Goals:
%s

Based strictly on this data, provide 3 punchy, actionable advice points in bullet format.
Help the user optimize their "Uses" (spending) based on their "Income".
Be encouraging but firm about overspending. Use BDT (৳) currency.
Keep it under 100 words total.`,
		r.Month.String(),
		r.Income, r.Expense, r.SavingsRate,
		strings.Join(budgetLines, "\n"),
		goalsSummary)
}
