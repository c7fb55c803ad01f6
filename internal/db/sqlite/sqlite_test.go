package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jonathan/career-compass/internal/db/storetest"
	"github.com/jonathan/career-compass/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, openTestStore(t))
}

func TestMigrateIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "career.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Migrate(context.Background()))
	u := &types.User{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, s1.CreateUser(context.Background(), u, ""))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	require.NoError(t, s2.Migrate(context.Background()))

	got, err := s2.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.PasswordSet)
	assert.Equal(t, []string{}, got.Interests)
}

func TestDeleteUserRemovesOwnedRecords(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u := &types.User{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, s.CreateUser(ctx, u, "h"))
	require.NoError(t, s.CreateApplication(ctx, &types.JobApplication{UserID: u.ID, JobTitle: "Analyst", CompanyName: "Acme", Status: types.StatusApplied}))
	require.NoError(t, s.SaveChatMessage(ctx, &types.ChatMessage{UserID: u.ID, Message: "hi", Response: "hello"}))

	require.NoError(t, s.DeleteUser(ctx, u.ID))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM job_applications`).Scan(&count))
	assert.Zero(t, count)
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM chat_messages`).Scan(&count))
	assert.Zero(t, count)
}
