package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"agendabot/models"
	"agendabot/utils/apperr"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassifyGeminiError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"http 429", &googleapi.Error{Code: 429}, apperr.ErrRateLimited},
		{"wrapped http 429", fmt.Errorf("send: %w", &googleapi.Error{Code: 429}), apperr.ErrRateLimited},
		{"grpc resource exhausted", status.Error(codes.ResourceExhausted, "quota"), apperr.ErrRateLimited},
		{"deadline", context.DeadlineExceeded, apperr.ErrTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classifyGeminiError(tt.err), tt.want)
		})
	}

	other := classifyGeminiError(&googleapi.Error{Code: 400})
	assert.False(t, errors.Is(other, apperr.ErrRateLimited))
	assert.Equal(t, apperr.Kind(""), apperr.KindOf(other))
}

func TestToContents(t *testing.T) {
	turns := []models.Turn{
		models.UserTurn("oi", at),
		models.ModelTurn("", []models.ToolCall{{Name: "get_business_info", Args: map[string]any{}}}, at),
		models.ToolTurn([]models.ToolResult{{Name: "get_business_info", Response: map[string]any{"success": true}}}, at),
		models.ModelTurn("Olá!", nil, at),
	}

	contents := toContents(turns)
	require.Len(t, contents, 4)

	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, genai.Text("oi"), contents[0].Parts[0])

	assert.Equal(t, "model", contents[1].Role)
	call, ok := contents[1].Parts[0].(genai.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "get_business_info", call.Name)

	assert.Equal(t, "user", contents[2].Role)
	resp, ok := contents[2].Parts[0].(genai.FunctionResponse)
	require.True(t, ok)
	assert.Equal(t, "get_business_info", resp.Name)

	assert.Equal(t, genai.Text("Olá!"), contents[3].Parts[0])
}

func TestFromContent(t *testing.T) {
	reply := fromContent(&genai.Content{Parts: []genai.Part{
		genai.Text("Vou verificar. "),
		genai.FunctionCall{Name: "check_availability", Args: map[string]any{"date": "2024-03-04"}},
	}})

	assert.Equal(t, "Vou verificar.", reply.Text)
	require.Len(t, reply.ToolCalls, 1)
	assert.Equal(t, "check_availability", reply.ToolCalls[0].Name)
	assert.NotEmpty(t, reply.ToolCalls[0].ID)
}

func TestFunctionDeclarations(t *testing.T) {
	decls := functionDeclarations(Tools())
	require.Len(t, decls, 6)

	byName := map[string]*genai.FunctionDeclaration{}
	for _, d := range decls {
		byName[d.Name] = d
	}

	create := byName[ToolCreateAppointment]
	require.NotNil(t, create)
	require.NotNil(t, create.Parameters)
	assert.Equal(t, genai.TypeObject, create.Parameters.Type)
	assert.Equal(t, []string{"service", "professional", "date", "time"}, create.Parameters.Required)
	assert.Contains(t, create.Parameters.Properties, "client_name")

	assert.Nil(t, byName[ToolListAppointments].Parameters)
	assert.Equal(t, []string{"all", "morning", "afternoon", "evening"},
		byName[ToolCheckAvailability].Parameters.Properties["period"].Enum)
}
