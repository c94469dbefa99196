package llm

import (
	"encoding/json"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schedulr-ai/calendar-assistant/internal/model"
	"github.com/schedulr-ai/calendar-assistant/internal/tool"
)

func TestOpenAIMessagesPairsToolCalls(t *testing.T) {
	history := []model.ConversationMessage{
		model.NewTextMessage(model.RoleUser, "What do I have tomorrow?"),
		model.NewFunctionCallMessage(model.FunctionCall{
			Name: tool.GetCalendarEvents,
			Args: map[string]any{"date": "2025-06-28"},
		}),
		model.NewFunctionResponseMessage(tool.GetCalendarEvents, map[string]any{
			"events": []any{},
		}),
		model.NewTextMessage(model.RoleModel, "Nothing scheduled tomorrow."),
	}

	messages, err := openaiMessages(history)
	require.NoError(t, err)
	require.Len(t, messages, 4)

	assert.Equal(t, openai.ChatMessageRoleUser, messages[0].Role)

	require.Len(t, messages[1].ToolCalls, 1)
	call := messages[1].ToolCalls[0]
	assert.Equal(t, tool.GetCalendarEvents, call.Function.Name)

	var args map[string]any
	require.NoError(t, json.Unmarshal([]byte(call.Function.Arguments), &args))
	assert.Equal(t, "2025-06-28", args["date"])

	assert.Equal(t, openai.ChatMessageRoleTool, messages[2].Role)
	assert.Equal(t, call.ID, messages[2].ToolCallID)
	assert.Equal(t, tool.GetCalendarEvents, messages[2].Name)

	assert.Equal(t, openai.ChatMessageRoleAssistant, messages[3].Role)
	assert.Equal(t, "Nothing scheduled tomorrow.", messages[3].Content)
}

func TestOpenAIToolsCarryRequiredFields(t *testing.T) {
	tools := openaiTools(tool.Descriptors())
	require.Len(t, tools, 2)

	byName := map[string]openai.Tool{}
	for _, tl := range tools {
		byName[tl.Function.Name] = tl
	}

	create, ok := byName[tool.CreateCalendarEvent]
	require.True(t, ok)
	data, err := json.Marshal(create.Function.Parameters)
	require.NoError(t, err)

	var schema struct {
		Type       string         `json:"type"`
		Required   []string       `json:"required"`
		Properties map[string]any `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(data, &schema))
	assert.Equal(t, "object", schema.Type)
	assert.ElementsMatch(t, []string{"summary", "startDateTime", "endDateTime"}, schema.Required)
	assert.Contains(t, schema.Properties, "description")
}
