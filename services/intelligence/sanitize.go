package ai

import "agendabot/models"

// Sanitize makes a stored transcript safe to send to the model:
//   - it starts with a user turn (leading turns are dropped);
//   - every tool-call turn is directly followed by its tool turn;
//   - every tool turn directly follows a tool-call turn.
//
// A trailing tool call with no results, left by an interrupted request, is
// therefore removed. The input is not modified.
func Sanitize(turns []models.Turn) []models.Turn {
	start := 0
	for start < len(turns) && turns[start].Role != models.RoleUser {
		start++
	}
	turns = turns[start:]

	out := make([]models.Turn, 0, len(turns))
	for i, t := range turns {
		switch {
		case t.IsToolCall():
			if i+1 < len(turns) && turns[i+1].Role == models.RoleTool {
				out = append(out, t)
			}
		case t.Role == models.RoleTool:
			if len(out) > 0 && out[len(out)-1].IsToolCall() {
				out = append(out, t)
			}
		default:
			out = append(out, t)
		}
	}
	return out
}

// Window keeps the last n turns and re-sanitizes, since the cut may land in
// the middle of an exchange.
func Window(turns []models.Turn, n int) []models.Turn {
	if n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return Sanitize(turns)
}
