package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/schedulr-ai/calendar-assistant/internal/model"
	"github.com/schedulr-ai/calendar-assistant/internal/tool"
	"github.com/schedulr-ai/calendar-assistant/pkg/metrics"
)

const defaultOpenAIModel = "gpt-4o"

// OpenAIClient maps the history onto the chat-completion tool protocol:
// model functionCall parts become assistant tool_calls and function parts
// become role=tool messages keyed by synthesized call IDs.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(apiKey, modelName string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if modelName == "" {
		modelName = defaultOpenAIModel
	}

	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  modelName,
	}, nil
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string {
	return "openai"
}

// Models returns available models.
func (c *OpenAIClient) Models() []string {
	return []string{
		"gpt-4o",
		"gpt-4o-mini",
		"gpt-4-turbo",
		"gpt-4",
	}
}

// Generate sends the converted history with the tool catalog attached.
func (c *OpenAIClient) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	start := time.Now()

	messages, err := openaiMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:      c.model,
		Messages:   messages,
		Tools:      openaiTools(req.Tools),
		ToolChoice: "auto",
	})
	if err != nil {
		metrics.RecordLLMRequest(c.Name(), "error", time.Since(start).Seconds(), 0, 0)
		return nil, err
	}

	out := &GenerateResponse{
		Model:     resp.Model,
		TokensIn:  resp.Usage.PromptTokens,
		TokensOut: resp.Usage.CompletionTokens,
		LatencyMs: time.Since(start).Milliseconds(),
	}

	if len(resp.Choices) > 0 {
		choice := resp.Choices[0].Message
		out.Text = choice.Content
		for _, tc := range choice.ToolCalls {
			args := map[string]any{}
			if tc.Function.Arguments != "" {
				if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
					return nil, fmt.Errorf("malformed tool call arguments for %s: %w", tc.Function.Name, err)
				}
			}
			out.FunctionCalls = append(out.FunctionCalls, model.FunctionCall{
				Name: tc.Function.Name,
				Args: args,
			})
		}
	}

	metrics.RecordLLMRequest(c.Name(), "ok", time.Since(start).Seconds(), out.TokensIn, out.TokensOut)
	return out, nil
}

// openaiMessages converts the part-based history. Call/response pairs are
// adjacent by invariant, so a deterministic per-message call ID is enough to
// key tool responses to their calls.
func openaiMessages(history []model.ConversationMessage) ([]openai.ChatCompletionMessage, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history))
	lastCallID := ""

	for i, msg := range history {
		switch msg.Role {
		case model.RoleUser:
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: textOf(msg),
			})

		case model.RoleModel:
			m := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: textOf(msg),
			}
			for _, p := range msg.Parts {
				if p.FunctionCall == nil {
					continue
				}
				args, err := json.Marshal(p.FunctionCall.Args)
				if err != nil {
					return nil, fmt.Errorf("marshal function call args: %w", err)
				}
				lastCallID = fmt.Sprintf("call_%d", i)
				m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
					ID:   lastCallID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      p.FunctionCall.Name,
						Arguments: string(args),
					},
				})
			}
			messages = append(messages, m)

		case model.RoleFunction:
			for _, p := range msg.Parts {
				if p.FunctionResponse == nil {
					continue
				}
				content, err := json.Marshal(p.FunctionResponse.Response)
				if err != nil {
					return nil, fmt.Errorf("marshal function response: %w", err)
				}
				messages = append(messages, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					ToolCallID: lastCallID,
					Name:       p.FunctionResponse.Name,
					Content:    string(content),
				})
			}

		default:
			return nil, fmt.Errorf("unsupported history role %q", msg.Role)
		}
	}

	return messages, nil
}

func openaiTools(tools []tool.Descriptor) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		properties := make(map[string]jsonschema.Definition, len(t.Parameters))
		for name, p := range t.Parameters {
			properties[name] = jsonschema.Definition{
				Type:        jsonschema.String,
				Description: p.Description,
			}
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters: jsonschema.Definition{
					Type:       jsonschema.Object,
					Properties: properties,
					Required:   t.Required,
				},
			},
		})
	}
	return out
}

func textOf(msg model.ConversationMessage) string {
	var b strings.Builder
	for _, p := range msg.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}
