package conversationRepo

import (
	"context"
	"testing"
	"time"

	"agendabot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"
)

const conversationsNS = "agendabot.conversations"

func TestMongoTranscriptRepo_SaveUpsertsWindow(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("replace with upsert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		repo := NewMongoTranscriptRepo(mt.DB, zap.NewNop())
		at := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

		err := repo.Save(context.Background(), "c1", "+5511999990000", []models.Turn{
			models.UserTurn("oi", at),
			models.ModelTurn("Olá!", nil, at),
		})
		require.NoError(mt, err)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "update", evt.CommandName)
		assert.Equal(mt, "conversations", evt.Command.Lookup("update").StringValue())
		assert.True(mt, evt.Command.Lookup("updates", "0", "upsert").Boolean())
		assert.Equal(mt, "c1", evt.Command.Lookup("updates", "0", "q", "company_id").StringValue())
		assert.Equal(mt, "model", evt.Command.Lookup("updates", "0", "u", "turns", "1", "role").StringValue())
	})
}

func TestMongoTranscriptRepo_LoadRoundTrip(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	at := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	mt.Run("windowed load yields plain values", func(mt *mtest.T) {
		stored := conversationDoc{
			CompanyID: "c1",
			ClientID:  "+5511999990000",
			Turns: []storedTurn{
				{Role: "user", Text: "tem horário segunda?", CreatedAt: at},
				{Role: "assistant", ToolCalls: []models.ToolCall{{Name: "check_availability", Args: map[string]any{"date": "2024-03-04"}}}, CreatedAt: at},
				{Role: "function", Results: []models.ToolResult{{
					Name:     "check_availability",
					Response: map[string]any{"success": true, "times": []any{"09:00", "09:30"}},
				}}, CreatedAt: at},
			},
			UpdatedAt: at,
		}
		raw, err := bson.Marshal(stored)
		require.NoError(mt, err)
		var doc bson.D
		require.NoError(mt, bson.Unmarshal(raw, &doc))
		mt.AddMockResponses(mtest.CreateCursorResponse(0, conversationsNS, mtest.FirstBatch, doc))
		repo := NewMongoTranscriptRepo(mt.DB, zap.NewNop())

		turns, err := repo.Load(context.Background(), "c1", "+5511999990000", 50)
		require.NoError(mt, err)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "find", evt.CommandName)
		assert.Equal(mt, int64(-50), evt.Command.Lookup("projection", "turns", "$slice").AsInt64())

		require.Len(mt, turns, 3)
		assert.Equal(mt, models.RoleModel, turns[1].Role)
		assert.Equal(mt, models.RoleTool, turns[2].Role)
		assert.Equal(mt, []any{"09:00", "09:30"}, turns[2].Results[0].Response["times"])
	})

	mt.Run("missing conversation is empty", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, conversationsNS, mtest.FirstBatch))
		repo := NewMongoTranscriptRepo(mt.DB, zap.NewNop())

		turns, err := repo.Load(context.Background(), "c1", "nobody", 50)

		require.NoError(mt, err)
		assert.Empty(mt, turns)
	})
}
