// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package narrative

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/pdiddy/foodsafety-engine/internal/logging"
	"github.com/pdiddy/foodsafety-engine/pkg/types"
)

const (
	maxTokens = 1024

	// maxPromptRecommendations bounds the recommendations sent to the model.
	maxPromptRecommendations = 5
)

// backoffBase controls the base duration for exponential backoff on rate
// limits. Tests override this to avoid real sleeps.
var backoffBase = time.Second

const systemPrompt = `You are a food safety scientist writing the narrative section of a laboratory report.
Write three short paragraphs in plain prose for a food safety manager: the overall assessment,
the molecular findings that drive it, and the actions to take. Use only the facts in the JSON
you are given. Do not invent measurements, regulations, or citations.`

// OpenAINarrator asks an OpenAI-compatible chat completion endpoint for the
// narrative.
type OpenAINarrator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxRetries  int
}

// NewOpenAINarrator returns a narrator for cfg. A BaseURL points the client
// at another compatible server; an empty APIKey is sent as is, which local
// servers accept.
func NewOpenAINarrator(cfg types.NarrativeConfig) *OpenAINarrator {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &OpenAINarrator{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxRetries:  cfg.MaxRetries,
	}
}

// Name returns the narrator identifier.
func (n *OpenAINarrator) Name() string { return string(types.NarratorOpenAI) }

// Narrate implements Narrator. Errors wrap types.ErrToolUnavailable.
func (n *OpenAINarrator) Narrate(ctx context.Context, r *types.SafetyReport) (string, error) {
	facts, err := json.Marshal(promptFacts(r))
	if err != nil {
		return "", errors.Wrap(err, "encoding report facts")
	}

	req := openai.ChatCompletionRequest{
		Model:       n.model,
		Temperature: n.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(facts)},
		},
	}
	if isReasoningModel(n.model) {
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
	}

	resp, err := n.complete(ctx, req)
	if err != nil {
		return "", errors.Mark(errors.Wrap(err, "creating chat completion"), types.ErrToolUnavailable)
	}
	if len(resp.Choices) == 0 {
		return "", errors.Wrap(types.ErrToolUnavailable, "chat completion returned no choices")
	}
	text := stripThinking(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.Wrap(types.ErrToolUnavailable, "chat completion returned empty content")
	}
	return text, nil
}

// complete retries only rate-limit and overload responses, with
// exponential backoff starting at backoffBase.
func (n *OpenAINarrator) complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			logging.Logger.Debugw("narrator rate limited, backing off",
				"attempt", attempt,
				logging.FieldDurationMS, backoff.Milliseconds(),
			)
			select {
			case <-ctx.Done():
				return openai.ChatCompletionResponse{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := n.client.CreateChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return openai.ChatCompletionResponse{}, lastErr
}

func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests ||
			apiErr.HTTPStatusCode == http.StatusServiceUnavailable
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests ||
			reqErr.HTTPStatusCode == http.StatusServiceUnavailable
	}
	return false
}

// isReasoningModel reports whether model takes max_completion_tokens
// instead of max_tokens.
func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

// stripThinking removes a leading <think>...</think> block that reasoning
// models served through Ollama emit before the answer.
func stripThinking(s string) string {
	if i := strings.Index(s, "</think>"); i >= 0 && strings.HasPrefix(strings.TrimSpace(s), "<think>") {
		s = s[i+len("</think>"):]
	}
	return strings.TrimSpace(s)
}

type facts struct {
	Sample          types.SampleInfo       `json:"sample"`
	Summary         types.ExecutiveSummary `json:"executive_summary"`
	Components      types.ComponentRisks   `json:"component_risks"`
	Compliance      string                 `json:"regulatory_compliance"`
	Interactions    []pairFact             `json:"interactions,omitempty"`
	Recommendations []string               `json:"recommendations,omitempty"`
}

type pairFact struct {
	Pair     string  `json:"pair"`
	Affinity float64 `json:"binding_affinity_kcal_mol"`
	Class    string  `json:"interaction_class"`
	Risk     string  `json:"risk_level"`
}

func promptFacts(r *types.SafetyReport) facts {
	f := facts{
		Sample:     r.SampleInfo,
		Summary:    r.ExecutiveSummary,
		Components: r.Details.Safety.Components,
		Compliance: r.Compliance.OverallStatus,
	}
	for _, p := range r.Details.Interactions.Pairs {
		f.Interactions = append(f.Interactions, pairFact{
			Pair:     p.Protein + "/" + p.Toxin,
			Affinity: p.BindingAffinity,
			Class:    p.InteractionClass,
			Risk:     p.RiskLevel,
		})
	}
	for i, rec := range r.Recommendations {
		if i == maxPromptRecommendations {
			break
		}
		f.Recommendations = append(f.Recommendations, string(rec.Priority)+": "+rec.Action)
	}
	return f
}
