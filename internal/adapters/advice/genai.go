package advice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/genai"

	"github.com/example/clarence/internal/ports/secondary"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// contentGenerator is the subset of *genai.Models the generator calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAIGenerator asks a Gemini model for clause advice.
type GenAIGenerator struct {
	models contentGenerator
	model  string
}

// NewGenAIGenerator creates a Gemini-backed advice generator.
func NewGenAIGenerator(ctx context.Context, apiKey, model string) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIGenerator{models: client.Models, model: model}, nil
}

// Name returns the generator name.
func (g *GenAIGenerator) Name() string {
	return "genai:" + g.model
}

// Advise implements secondary.AdviceGenerator.
func (g *GenAIGenerator) Advise(ctx context.Context, req secondary.AdviceRequest) (*secondary.Advice, error) {
	temperature := float32(0.2)
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(BuildPrompt(req)), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       &temperature,
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("GenAI generate failed: %w", err)
	}

	return ParseAdvice(resp.Text())
}

const systemInstruction = `You advise a mediator in a B2B contract negotiation.
Positions are on a 1-10 scale. Reply with JSON only:
{"recommendation": "<two sentences at most>", "suggested_compromise": <integer 1-10>}`

// BuildPrompt renders the clause and the negotiation context for the model.
func BuildPrompt(req secondary.AdviceRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Clause: %s\n", req.ClauseTitle)
	if req.ClauseDescription != "" {
		fmt.Fprintf(&b, "Description: %s\n", req.ClauseDescription)
	}
	if req.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", req.Notes)
	}
	fmt.Fprintf(&b, "Priority: %d/10\n", req.Priority)
	fmt.Fprintf(&b, "Alignment: %s\n\n", req.Category)

	fmt.Fprintf(&b, "Requesting party %s: position %d, leverage %d%%\n",
		req.RequestingCompany, req.RequestingPosition, req.RequestingLeverage)
	writeWeights(&b, req.RequestingWeights)
	fmt.Fprintf(&b, "Fulfilling party %s: position %d, leverage %d%%\n",
		req.FulfillingCompany, req.FulfillingPosition, req.FulfillingLeverage)
	writeWeights(&b, req.FulfillingWeights)

	return b.String()
}

func writeWeights(b *strings.Builder, weights map[string]int) {
	if len(weights) == 0 {
		return
	}
	dims := make([]string, 0, len(weights))
	for d := range weights {
		dims = append(dims, d)
	}
	sort.Strings(dims)
	parts := make([]string, 0, len(dims))
	for _, d := range dims {
		parts = append(parts, fmt.Sprintf("%s=%d", d, weights[d]))
	}
	fmt.Fprintf(b, "  priorities: %s\n", strings.Join(parts, ", "))
}

type adviceReply struct {
	Recommendation      string `json:"recommendation"`
	SuggestedCompromise *int   `json:"suggested_compromise"`
}

// ParseAdvice decodes a model reply. Markdown code fences are tolerated and a
// compromise outside 1-10 is dropped.
func ParseAdvice(text string) (*secondary.Advice, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("empty advice reply")
	}

	var reply adviceReply
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return nil, fmt.Errorf("failed to decode advice reply: %w", err)
	}
	reply.Recommendation = strings.TrimSpace(reply.Recommendation)
	if reply.Recommendation == "" {
		return nil, errors.New("advice reply has no recommendation")
	}

	advice := &secondary.Advice{Recommendation: reply.Recommendation}
	if c := reply.SuggestedCompromise; c != nil && *c >= 1 && *c <= 10 {
		v := *c
		advice.SuggestedCompromise = &v
	}
	return advice, nil
}
