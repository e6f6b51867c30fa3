package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	"jomkira/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "jomkira.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jomkira.db")
	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestArchiveRoundTrip(t *testing.T) {
	db := openTestDB(t)

	id, conversationID, err := CreateConversation(db, 100)
	require.NoError(t, err)
	_, err = uuid.Parse(conversationID)
	require.NoError(t, err)

	user := models.ChatMessage{
		ID:      "1",
		Role:    models.RoleUser,
		Content: "Pay my TNB bill",
		Image:   &models.Image{Format: "png", Bytes: "iVBORw0KGgo="},
	}
	reply := models.ChatMessage{
		ID:      "2",
		Role:    models.RoleAssistant,
		Content: "Please confirm.",
		ToolCalls: []models.ToolCall{{
			ToolName: "prepare_bill_payment",
			Args:     map[string]any{"amount": 45.5, "biller_name": "TNB"},
			Status:   models.ToolStatusComplete,
		}},
		BankingState: &models.BankingState{
			Balance:            50.43,
			PendingBill:        &models.BillDetails{BillerName: "TNB", Amount: 45.5},
			TransactionHistory: []string{},
			Status:             models.StatusConfirmingBill,
		},
	}

	require.NoError(t, InsertMessage(db, id, user, 101))
	require.NoError(t, UpdateConversationOnUser(db, id, 101, user.Content))
	require.NoError(t, InsertMessage(db, id, reply, 102))
	require.NoError(t, TouchConversation(db, id, 102, "sess-9"))

	got, err := GetConversationMessages(db, id)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Pay my TNB bill", got[0].Content)
	require.NotNil(t, got[0].Image)
	assert.Equal(t, "png", got[0].Image.Format)
	assert.Empty(t, got[0].Image.Bytes)
	assert.Nil(t, got[0].BankingState)
	assert.Empty(t, got[0].ToolCalls)

	assert.Equal(t, models.RoleAssistant, got[1].Role)
	require.Len(t, got[1].ToolCalls, 1)
	assert.Equal(t, "prepare_bill_payment", got[1].ToolCalls[0].ToolName)
	assert.Equal(t, 45.5, got[1].ToolCalls[0].Args["amount"])
	require.NotNil(t, got[1].BankingState)
	assert.Equal(t, models.StatusConfirmingBill, got[1].BankingState.Status)
	require.NotNil(t, got[1].BankingState.PendingBill)
	assert.Equal(t, "TNB", got[1].BankingState.PendingBill.BillerName)

	count, items, err := GetRecentConversations(db, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, items, 1)
	assert.Equal(t, conversationID, items[0].ConversationID)
	assert.Equal(t, "sess-9", items[0].SessionID)
	assert.Equal(t, int64(102), items[0].UpdatedAtUnix)
	assert.Equal(t, "Pay my TNB bill", items[0].LastUserPrompt)
}

func TestTouchKeepsSessionWhenEmpty(t *testing.T) {
	db := openTestDB(t)
	id, _, err := CreateConversation(db, 1)
	require.NoError(t, err)

	require.NoError(t, TouchConversation(db, id, 2, "sess-1"))
	require.NoError(t, TouchConversation(db, id, 3, ""))

	_, items, err := GetRecentConversations(db, 1, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "sess-1", items[0].SessionID)
	assert.Equal(t, int64(3), items[0].UpdatedAtUnix)
}

func TestGetRecentConversationsOrderAndLimit(t *testing.T) {
	db := openTestDB(t)
	for i := int64(1); i <= 3; i++ {
		_, _, err := CreateConversation(db, i*10)
		require.NoError(t, err)
	}

	count, items, err := GetRecentConversations(db, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.Len(t, items, 2)
	assert.Equal(t, int64(30), items[0].UpdatedAtUnix)
	assert.Equal(t, int64(20), items[1].UpdatedAtUnix)

	_, page, err := GetRecentConversations(db, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(10), page[0].UpdatedAtUnix)
}

func TestGetConversationMessagesEmpty(t *testing.T) {
	db := openTestDB(t)
	msgs, err := GetConversationMessages(db, 42)
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}
