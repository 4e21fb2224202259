package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"agendabot/models"
	"agendabot/utils/apperr"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GeminiClient implements ModelProvider with Gemini function calling.
type GeminiClient struct {
	client      *genai.Client
	modelName   string
	temperature float32
}

// NewGenAIClient builds the SDK client. The caller owns it and must Close it.
func NewGenAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

func NewGeminiClient(client *genai.Client, modelName string) *GeminiClient {
	return &GeminiClient{client: client, modelName: modelName, temperature: 0.3}
}

func (g *GeminiClient) StartChat(systemPrompt string, history []models.Turn, tools []ToolSpec) ChatSession {
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(g.temperature)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	if len(tools) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: functionDeclarations(tools)}}
	}

	cs := model.StartChat()
	cs.History = toContents(history)
	return &geminiChat{cs: cs}
}

type geminiChat struct {
	cs *genai.ChatSession
}

func (c *geminiChat) GenerateTurn(ctx context.Context, text string) (ModelReply, error) {
	return c.send(ctx, genai.Text(text))
}

func (c *geminiChat) ContinueWithToolResults(ctx context.Context, results []models.ToolResult) (ModelReply, error) {
	parts := make([]genai.Part, 0, len(results))
	for _, r := range results {
		parts = append(parts, genai.FunctionResponse{Name: r.Name, Response: r.Response})
	}
	return c.send(ctx, parts...)
}

// send restores the chat history when the call fails, so a retry does not
// send the same message twice.
func (c *geminiChat) send(ctx context.Context, parts ...genai.Part) (ModelReply, error) {
	prev := c.cs.History
	resp, err := c.cs.SendMessage(ctx, parts...)
	if err != nil {
		c.cs.History = prev
		return ModelReply{}, classifyGeminiError(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		c.cs.History = prev
		return ModelReply{}, fmt.Errorf("gemini returned no candidates")
	}
	return fromContent(resp.Candidates[0].Content), nil
}

func fromContent(content *genai.Content) ModelReply {
	var (
		sb    strings.Builder
		calls []models.ToolCall
	)
	for _, part := range content.Parts {
		switch p := part.(type) {
		case genai.Text:
			sb.WriteString(string(p))
		case genai.FunctionCall:
			calls = append(calls, models.ToolCall{ID: uuid.New().String(), Name: p.Name, Args: p.Args})
		}
	}
	return ModelReply{Text: strings.TrimSpace(sb.String()), ToolCalls: calls}
}

// toContents maps typed turns to Gemini history. Tool results go back as
// user-role function responses, which is how the SDK sends them.
func toContents(turns []models.Turn) []*genai.Content {
	out := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		var content *genai.Content
		switch t.Role {
		case models.RoleUser:
			content = &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(t.Text)}}
		case models.RoleModel:
			content = &genai.Content{Role: "model"}
			if t.Text != "" {
				content.Parts = append(content.Parts, genai.Text(t.Text))
			}
			for _, call := range t.ToolCalls {
				content.Parts = append(content.Parts, genai.FunctionCall{Name: call.Name, Args: call.Args})
			}
		case models.RoleTool:
			content = &genai.Content{Role: "user"}
			for _, r := range t.Results {
				content.Parts = append(content.Parts, genai.FunctionResponse{Name: r.Name, Response: r.Response})
			}
		}
		if content != nil && len(content.Parts) > 0 {
			out = append(out, content)
		}
	}
	return out
}

func functionDeclarations(tools []ToolSpec) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decl := &genai.FunctionDeclaration{Name: t.Name, Description: t.Description}
		if len(t.Params) > 0 {
			props := make(map[string]*genai.Schema, len(t.Params))
			for _, p := range t.Params {
				props[p.Name] = &genai.Schema{
					Type:        schemaType(p.Type),
					Description: p.Description,
					Enum:        p.Enum,
				}
			}
			decl.Parameters = &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   t.Required(),
			}
		}
		decls = append(decls, decl)
	}
	return decls
}

func schemaType(t ParamType) genai.Type {
	if t == ParamInteger {
		return genai.TypeInteger
	}
	return genai.TypeString
}

// classifyGeminiError maps throttling to the rate-limit kind so the retry
// layer backs off, and deadlines to the timeout kind.
func classifyGeminiError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
		return apperr.Wrap(apperr.KindRateLimited, err, "model provider is rate limiting")
	}
	if s, ok := status.FromError(err); ok && s.Code() == codes.ResourceExhausted {
		return apperr.Wrap(apperr.KindRateLimited, err, "model provider is rate limiting")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindTimeout, err, "model did not answer in time")
	}
	return fmt.Errorf("gemini generate error: %w", err)
}
