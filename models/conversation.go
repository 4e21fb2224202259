package models

import "time"

// Role tags a Turn. It is decided once, when the turn is built or decoded from
// storage, and never re-inferred from content.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
	RoleTool  Role = "tool"
)

// ToolCall is a model request to run one registered operation.
type ToolCall struct {
	ID   string         `bson:"id,omitempty" json:"id,omitempty"`
	Name string         `bson:"name" json:"name"`
	Args map[string]any `bson:"args,omitempty" json:"args,omitempty"`
}

// ToolResult answers one ToolCall. Name is always the originating tool.
type ToolResult struct {
	CallID   string         `bson:"call_id,omitempty" json:"call_id,omitempty"`
	Name     string         `bson:"name" json:"name"`
	Response map[string]any `bson:"response" json:"response"`
}

// Turn is one transcript entry. Text is set for user turns and for model turns
// that answered in prose; ToolCalls only on model turns; Results only on tool
// turns.
type Turn struct {
	Role      Role         `json:"role"`
	Text      string       `json:"text,omitempty"`
	ToolCalls []ToolCall   `json:"tool_calls,omitempty"`
	Results   []ToolResult `json:"results,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

func UserTurn(text string, at time.Time) Turn {
	return Turn{Role: RoleUser, Text: text, CreatedAt: at}
}

func ModelTurn(text string, calls []ToolCall, at time.Time) Turn {
	return Turn{Role: RoleModel, Text: text, ToolCalls: calls, CreatedAt: at}
}

func ToolTurn(results []ToolResult, at time.Time) Turn {
	return Turn{Role: RoleTool, Results: results, CreatedAt: at}
}

// IsToolCall reports whether the turn is a model turn that requested tools.
func (t Turn) IsToolCall() bool {
	return t.Role == RoleModel && len(t.ToolCalls) > 0
}

// ConversationKey identifies a conversation.
type ConversationKey struct {
	CompanyID string
	ClientID  string
}
