package ai

import (
	"context"

	"agendabot/models"
)

// ModelReply is one model response: prose, tool calls, or both.
type ModelReply struct {
	Text      string
	ToolCalls []models.ToolCall
}

// ChatSession is a live dialogue with the model. It keeps its own history;
// callers only send the new user text or the results of the last tool calls.
type ChatSession interface {
	GenerateTurn(ctx context.Context, text string) (ModelReply, error)
	ContinueWithToolResults(ctx context.Context, results []models.ToolResult) (ModelReply, error)
}

// ModelProvider opens chat sessions. history must already be sanitized.
type ModelProvider interface {
	StartChat(systemPrompt string, history []models.Turn, tools []ToolSpec) ChatSession
}

// ParamType is the JSON type of a tool parameter.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
)

// ParamSpec declares one tool parameter.
type ParamSpec struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Enum        []string
}

// ToolSpec is the provider-neutral declaration of a tool.
type ToolSpec struct {
	Name        string
	Description string
	Params      []ParamSpec
}

// Required lists the names of required parameters in declaration order.
func (t ToolSpec) Required() []string {
	var out []string
	for _, p := range t.Params {
		if p.Required {
			out = append(out, p.Name)
		}
	}
	return out
}
