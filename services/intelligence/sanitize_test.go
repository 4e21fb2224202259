package ai

import (
	"testing"
	"time"

	"agendabot/models"

	"github.com/stretchr/testify/assert"
)

var at = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func call(name string) models.Turn {
	return models.ModelTurn("", []models.ToolCall{{ID: name + "-1", Name: name}}, at)
}

func result(name string) models.Turn {
	return models.ToolTurn([]models.ToolResult{{CallID: name + "-1", Name: name, Response: map[string]any{"success": true}}}, at)
}

func TestSanitize(t *testing.T) {
	hi := models.UserTurn("hi", at)
	hello := models.ModelTurn("hello", nil, at)
	again := models.UserTurn("again", at)

	tests := []struct {
		name string
		in   []models.Turn
		want []models.Turn
	}{
		{
			name: "trailing unfinished call stripped",
			in:   []models.Turn{hi, call("get_slots")},
			want: []models.Turn{hi},
		},
		{
			name: "leading non-user turns dropped",
			in:   []models.Turn{hello, result("x"), hi, hello},
			want: []models.Turn{hi, hello},
		},
		{
			name: "no user turn at all",
			in:   []models.Turn{hello, call("x")},
			want: []models.Turn{},
		},
		{
			name: "complete exchange kept",
			in:   []models.Turn{hi, call("check_availability"), result("check_availability"), hello},
			want: []models.Turn{hi, call("check_availability"), result("check_availability"), hello},
		},
		{
			name: "orphan tool turn dropped",
			in:   []models.Turn{hi, hello, result("x"), again},
			want: []models.Turn{hi, hello, again},
		},
		{
			name: "unanswered call in the middle dropped",
			in:   []models.Turn{hi, call("x"), again, hello},
			want: []models.Turn{hi, again, hello},
		},
		{
			name: "empty",
			in:   nil,
			want: []models.Turn{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitize_DoesNotModifyInput(t *testing.T) {
	in := []models.Turn{models.UserTurn("hi", at), call("x")}
	_ = Sanitize(in)
	assert.Len(t, in, 2)
}

func TestWindow(t *testing.T) {
	turns := []models.Turn{
		models.UserTurn("1", at),
		call("x"),
		result("x"),
		models.ModelTurn("ok", nil, at),
		models.UserTurn("2", at),
		models.ModelTurn("done", nil, at),
	}

	// The cut lands on the tool result; everything before the next user turn goes.
	got := Window(turns, 4)
	assert.Equal(t, []models.Turn{models.UserTurn("2", at), models.ModelTurn("done", nil, at)}, got)

	assert.Equal(t, turns, Window(turns, 0))
}
