// Package model defines data structures for the calendar assistant.
package model

// Role represents the author of a conversation message.
type Role string

const (
	RoleUser     Role = "user"
	RoleModel    Role = "model"
	RoleFunction Role = "function"
)

// FunctionCall is the model's request to invoke a tool.
type FunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// FunctionResponse carries a tool result back to the model.
type FunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response,omitempty"`
}

// MessagePart is a tagged variant: exactly one of Text, FunctionCall or
// FunctionResponse is populated.
type MessagePart struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *FunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
}

// ConversationMessage is one turn contribution in the session history.
// A function-role message must immediately follow the model message whose
// functionCall it answers.
type ConversationMessage struct {
	Role  Role          `json:"role"`
	Parts []MessagePart `json:"parts"`
}

// NewTextMessage builds a single-part text message.
func NewTextMessage(role Role, text string) ConversationMessage {
	return ConversationMessage{
		Role:  role,
		Parts: []MessagePart{{Text: text}},
	}
}

// NewFunctionCallMessage builds the model message carrying a tool invocation.
func NewFunctionCallMessage(call FunctionCall) ConversationMessage {
	return ConversationMessage{
		Role:  RoleModel,
		Parts: []MessagePart{{FunctionCall: &call}},
	}
}

// NewFunctionResponseMessage builds the function message answering a tool invocation.
func NewFunctionResponseMessage(name string, response map[string]any) ConversationMessage {
	return ConversationMessage{
		Role: RoleFunction,
		Parts: []MessagePart{{
			FunctionResponse: &FunctionResponse{Name: name, Response: response},
		}},
	}
}
