package main

import (
	"bytes"
	"testing"
	"time"

	"jomkira/internal/config"
	"jomkira/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyConfig(t *testing.T, enabled bool) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.App.DataDirectory = t.TempDir()
	cfg.Features.EnableHistory = enabled
	return cfg
}

func TestListHistoryDisabled(t *testing.T) {
	cfg := historyConfig(t, false)
	var out bytes.Buffer

	require.NoError(t, listHistory(&out, cfg, 10))
	assert.Equal(t, "History is disabled\n", out.String())
	assert.False(t, config.FileExists(cfg.HistoryDBPath()))
}

func TestListHistoryWithoutDatabase(t *testing.T) {
	cfg := historyConfig(t, true)
	var out bytes.Buffer

	require.NoError(t, listHistory(&out, cfg, 10))
	assert.Equal(t, "No conversations yet\n", out.String())
	assert.False(t, config.FileExists(cfg.HistoryDBPath()), "listing must not create the database")
}

func TestListHistoryPrintsConversations(t *testing.T) {
	cfg := historyConfig(t, true)
	conn, err := db.Open(cfg.HistoryDBPath())
	require.NoError(t, err)
	now := time.Now().Unix()
	for _, prompt := range []string{"pay my TNB bill", "send 25 to Ali"} {
		id, _, err := db.CreateConversation(conn, now)
		require.NoError(t, err)
		require.NoError(t, db.UpdateConversationOnUser(conn, id, now, prompt))
	}
	require.NoError(t, conn.Close())

	var out bytes.Buffer
	require.NoError(t, listHistory(&out, cfg, 1))
	assert.Contains(t, out.String(), "send 25 to Ali")
	assert.NotContains(t, out.String(), "pay my TNB bill")
	assert.Contains(t, out.String(), "... 1 more")
}
