package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"haneye/internal/analysis"
)

// Config holds OpenAI configuration parameters.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client implements the Analyzer interface against the OpenAI vision API.
type Client struct {
	client      *openai.Client
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

// NewClient constructs a Client if the supplied configuration is valid.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrDisabled
	}
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.2
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1500
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	clientConfig := openai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientConfig.BaseURL = base
	}

	return &Client{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
	}, nil
}

// Enabled reports whether the client can make outbound calls.
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

const systemPrompt = "You are an art authentication analyst examining a photograph of an artwork. " +
	"Reply with a strict JSON object containing keys verdict, confidence_score, data_completeness, " +
	"suspicious_elements, texture_analysis, pigment_analysis, signature_analysis, and provenance_notes. " +
	"verdict must be one of AUTHENTIC, FAKE, or UNCERTAIN. confidence_score must be a decimal between 0 and 1. " +
	"data_completeness must be an object with completeness_score (decimal 0-1) and missing_fields (array of strings " +
	"naming context you lacked, such as provenance documents or artist attribution). " +
	"suspicious_elements must be an array of short strings naming concrete visual red flags, empty when none are visible. " +
	"The four analysis fields must each be one or two factual sentences about what the image shows. " +
	"Emit nothing outside the JSON object."

// Analyze sends the image to the vision API and decodes the structured verdict.
func (c *Client) Analyze(ctx context.Context, input Input) (analysis.Result, error) {
	if !c.Enabled() {
		return analysis.Result{}, ErrDisabled
	}
	if len(input.ImageData) == 0 {
		return analysis.Result{}, errors.New("image data is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	mime := strings.TrimSpace(input.MIMEType)
	if mime == "" {
		mime = "image/jpeg"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(input.ImageData))

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: buildUserPrompt(input.Context),
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
		Temperature: float32(c.temperature),
		MaxTokens:   c.maxTokens,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return analysis.Result{}, fmt.Errorf("openai request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return analysis.Result{}, errors.New("openai empty response")
	}

	content := normalizeJSONBlock(resp.Choices[0].Message.Content)
	if content == "" {
		return analysis.Result{}, errors.New("openai empty verdict")
	}

	var result analysis.Result
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return analysis.Result{}, fmt.Errorf("parse ai response: %w", err)
	}

	sanitizeResult(&result)
	result.Context = input.Context
	return result, nil
}

func buildUserPrompt(ctx analysis.Context) string {
	builder := &strings.Builder{}
	builder.WriteString("Assess the authenticity of the artwork in the attached image.\n")
	if artist := strings.TrimSpace(ctx.Artist); artist != "" {
		fmt.Fprintf(builder, "Claimed artist: %s\n", artist)
	}
	if period := strings.TrimSpace(ctx.Period); period != "" {
		fmt.Fprintf(builder, "Claimed period: %s\n", period)
	}
	if medium := strings.TrimSpace(ctx.Medium); medium != "" {
		fmt.Fprintf(builder, "Claimed medium: %s\n", medium)
	}
	builder.WriteString("Ground every observation in visible evidence; choose UNCERTAIN over speculation.\n")
	builder.WriteString("Populate the JSON fields with your final judgement.")
	return builder.String()
}

func normalizeJSONBlock(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.IndexRune(trimmed, '\n'); idx >= 0 {
			trimmed = trimmed[idx+1:]
		}
		if strings.HasSuffix(trimmed, "```") {
			trimmed = trimmed[:len(trimmed)-3]
		}
	}
	trimmed = strings.TrimSpace(trimmed)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end >= start {
		return strings.TrimSpace(trimmed[start : end+1])
	}
	return trimmed
}

func sanitizeResult(result *analysis.Result) {
	if result == nil {
		return
	}
	result.Verdict = analysis.NormalizeVerdict(result.Verdict)
	result.ConfidenceScore = clampFloat(result.ConfidenceScore, 0, 1)
	result.DataCompleteness.CompletenessScore = clampFloat(result.DataCompleteness.CompletenessScore, 0, 1)
	if result.SuspiciousElements == nil {
		result.SuspiciousElements = []string{}
	}
	result.TextureAnalysis = strings.TrimSpace(result.TextureAnalysis)
	result.PigmentAnalysis = strings.TrimSpace(result.PigmentAnalysis)
	result.SignatureAnalysis = strings.TrimSpace(result.SignatureAnalysis)
	result.ProvenanceNotes = strings.TrimSpace(result.ProvenanceNotes)
}

func clampFloat(value, min, max float64) float64 {
	if math.IsNaN(value) {
		return min
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
