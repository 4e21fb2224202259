package conversationRepo

import (
	"fmt"
	"strings"
	"time"

	"agendabot/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// conversationDoc is the stored shape of a transcript.
type conversationDoc struct {
	CompanyID string       `bson:"company_id"`
	ClientID  string       `bson:"client_id"`
	Turns     []storedTurn `bson:"turns"`
	UpdatedAt time.Time    `bson:"updated_at"`
}

// storedTurn keeps the role as a raw string because older writers used
// "assistant" and "function". It is converted to models.Role on the way in.
type storedTurn struct {
	Role      string              `bson:"role"`
	Text      string              `bson:"text,omitempty"`
	ToolCalls []models.ToolCall   `bson:"tool_calls,omitempty"`
	Results   []models.ToolResult `bson:"results,omitempty"`
	CreatedAt time.Time           `bson:"created_at"`
}

func decodeRole(raw string) (models.Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user":
		return models.RoleUser, nil
	case "model", "assistant":
		return models.RoleModel, nil
	case "tool", "function":
		return models.RoleTool, nil
	default:
		return "", fmt.Errorf("unknown transcript role %q", raw)
	}
}

func fromStored(st storedTurn) (models.Turn, error) {
	role, err := decodeRole(st.Role)
	if err != nil {
		return models.Turn{}, err
	}
	turn := models.Turn{
		Role:      role,
		Text:      st.Text,
		CreatedAt: st.CreatedAt,
	}
	for _, c := range st.ToolCalls {
		c.Args = plainDoc(c.Args)
		turn.ToolCalls = append(turn.ToolCalls, c)
	}
	for _, r := range st.Results {
		r.Response = plainDoc(r.Response)
		turn.Results = append(turn.Results, r)
	}
	return turn, nil
}

// plainDoc rewrites a decoded document so it holds only the JSON shapes the
// model client accepts. The driver decodes nested arrays as primitive.A and
// nested documents as primitive.D or primitive.M.
func plainDoc(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v any) any {
	switch x := v.(type) {
	case primitive.A:
		return plainList(x)
	case []any:
		return plainList(x)
	case primitive.D:
		m := make(map[string]any, len(x))
		for _, e := range x {
			m[e.Key] = plainValue(e.Value)
		}
		return m
	case primitive.M:
		return plainDoc(x)
	case map[string]any:
		return plainDoc(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case primitive.DateTime:
		return x.Time().UTC().Format(time.RFC3339)
	case primitive.ObjectID:
		return x.Hex()
	case primitive.Null, primitive.Undefined:
		return nil
	default:
		return v
	}
}

func plainList(in []any) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = plainValue(v)
	}
	return out
}

func toStored(t models.Turn) storedTurn {
	return storedTurn{
		Role:      string(t.Role),
		Text:      t.Text,
		ToolCalls: t.ToolCalls,
		Results:   t.Results,
		CreatedAt: t.CreatedAt,
	}
}

// decodeTurns converts stored turns, dropping any whose role is unknown.
// The returned count is the number of dropped turns.
func decodeTurns(stored []storedTurn) ([]models.Turn, int) {
	out := make([]models.Turn, 0, len(stored))
	dropped := 0
	for _, st := range stored {
		t, err := fromStored(st)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, t)
	}
	return out, dropped
}
