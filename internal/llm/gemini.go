package llm

import (
	"context"
	"errors"
	"time"

	"google.golang.org/genai"

	"github.com/schedulr-ai/calendar-assistant/internal/model"
	"github.com/schedulr-ai/calendar-assistant/internal/tool"
	"github.com/schedulr-ai/calendar-assistant/pkg/metrics"
)

const defaultGeminiModel = "gemini-2.0-flash-001"

// GeminiClient speaks the function-calling protocol natively: the history's
// part shapes map one to one onto genai content parts.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is required")
	}
	if modelName == "" {
		modelName = defaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	return &GeminiClient{
		client: client,
		model:  modelName,
	}, nil
}

// Name returns the provider name.
func (c *GeminiClient) Name() string {
	return "gemini"
}

// Models returns available models.
func (c *GeminiClient) Models() []string {
	return []string{
		"gemini-2.0-flash-001",
		"gemini-2.0-flash-lite-001",
		"gemini-1.5-pro-002",
		"gemini-1.5-flash-002",
	}
}

// Generate sends the history with the tool catalog in automatic
// function-calling mode.
func (c *GeminiClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	start := time.Now()

	contents := make([]*genai.Content, len(req.Messages))
	for i, msg := range req.Messages {
		contents[i] = geminiContent(msg)
	}

	config := &genai.GenerateContentConfig{}
	if len(req.Tools) > 0 {
		config.Tools = []*genai.Tool{{
			FunctionDeclarations: geminiDeclarations(req.Tools),
		}}
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAuto,
			},
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		metrics.RecordLLMRequest(c.Name(), "error", time.Since(start).Seconds(), 0, 0)
		return nil, err
	}

	out := &GenerateResponse{
		Text:      resp.Text(),
		Model:     c.model,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	for _, fc := range resp.FunctionCalls() {
		out.FunctionCalls = append(out.FunctionCalls, model.FunctionCall{
			Name: fc.Name,
			Args: fc.Args,
		})
	}
	if resp.UsageMetadata != nil {
		out.TokensIn = int(resp.UsageMetadata.PromptTokenCount)
		out.TokensOut = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	metrics.RecordLLMRequest(c.Name(), "ok", time.Since(start).Seconds(), out.TokensIn, out.TokensOut)
	return out, nil
}

func geminiContent(msg model.ConversationMessage) *genai.Content {
	parts := make([]*genai.Part, 0, len(msg.Parts))
	for _, p := range msg.Parts {
		switch {
		case p.FunctionCall != nil:
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					Name: p.FunctionCall.Name,
					Args: p.FunctionCall.Args,
				},
			})
		case p.FunctionResponse != nil:
			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     p.FunctionResponse.Name,
					Response: p.FunctionResponse.Response,
				},
			})
		default:
			parts = append(parts, &genai.Part{Text: p.Text})
		}
	}
	return &genai.Content{
		Role:  string(msg.Role),
		Parts: parts,
	}
}

func geminiDeclarations(tools []tool.Descriptor) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		properties := make(map[string]*genai.Schema, len(t.Parameters))
		for name, p := range t.Parameters {
			properties[name] = &genai.Schema{
				Type:        genai.TypeString,
				Description: p.Description,
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: properties,
				Required:   t.Required,
			},
		})
	}
	return decls
}
