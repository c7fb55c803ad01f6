// Package storetest holds the behavior every db.Store implementation must share.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/career-compass/internal/db"
	"github.com/jonathan/career-compass/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises store against the shared contract. Each subtest registers fresh
// users with unique emails, so the same database may be reused across runs.
func Run(t *testing.T, store db.Store) {
	t.Run("Users", func(t *testing.T) { testUsers(t, store) })
	t.Run("Applications", func(t *testing.T) { testApplications(t, store) })
	t.Run("ResumeReviews", func(t *testing.T) { testResumeReviews(t, store) })
	t.Run("ChatMessages", func(t *testing.T) { testChatMessages(t, store) })
}

func newUser(t *testing.T, store db.Store) *types.User {
	t.Helper()
	u := &types.User{
		Name:      "Priya",
		Email:     fmt.Sprintf("Priya.%s@Example.com", uuid.NewString()[:8]),
		Stream:    "Science",
		Interests: []string{"robotics", "ai"},
	}
	require.NoError(t, store.CreateUser(context.Background(), u, "hash-1"))
	t.Cleanup(func() { _ = store.DeleteUser(context.Background(), u.ID) })
	return u
}

func testUsers(t *testing.T, store db.Store) {
	ctx := context.Background()
	u := newUser(t, store)

	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.Equal(t, db.NormalizeEmail(u.Email), u.Email)
	assert.True(t, u.PasswordSet)

	got, err := store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, []string{"robotics", "ai"}, got.Interests)
	assert.Empty(t, got.SavedRoadmaps)
	assert.True(t, u.CreatedAt.Equal(got.CreatedAt))

	dup := &types.User{Name: "Other", Email: " " + u.Email + " "}
	assert.ErrorIs(t, store.CreateUser(ctx, dup, "x"), db.ErrEmailTaken)

	creds, err := store.GetCredentials(ctx, u.Email)
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, u.ID, creds.UserID)
	assert.Equal(t, "hash-1", creds.PasswordHash)

	require.NoError(t, store.UpdatePassword(ctx, u.ID, "hash-2"))
	creds, err = store.GetCredentials(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, "hash-2", creds.PasswordHash)

	missing, err := store.GetCredentials(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	name := "Priya S"
	updated, err := store.UpdateProfile(ctx, u.ID, &types.UpdateProfileRequest{Name: &name, Interests: []string{"design"}})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Priya S", updated.Name)
	assert.Equal(t, "Science", updated.Stream)
	assert.Equal(t, []string{"design"}, updated.Interests)

	saved, err := store.SaveRoadmap(ctx, u.ID, "data-scientist")
	require.NoError(t, err)
	saved, err = store.SaveRoadmap(ctx, u.ID, "data-scientist")
	require.NoError(t, err)
	saved, err = store.SaveRoadmap(ctx, u.ID, "ux-designer")
	require.NoError(t, err)
	assert.Equal(t, []string{"data-scientist", "ux-designer"}, saved.SavedRoadmaps)

	none, err := store.SaveRoadmap(ctx, uuid.New(), "x")
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, store.DeleteUser(ctx, u.ID))
	gone, err := store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func testApplications(t *testing.T, store db.Store) {
	ctx := context.Background()
	owner := newUser(t, store)
	other := newUser(t, store)

	applied := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	first := &types.JobApplication{UserID: owner.ID, JobTitle: "Data Analyst", CompanyName: "DataWeave", Status: types.StatusApplied, DateApplied: &applied}
	require.NoError(t, store.CreateApplication(ctx, first))
	second := &types.JobApplication{UserID: owner.ID, JobTitle: "ML Engineer", CompanyName: "Innovatech", Status: types.StatusWishlist}
	require.NoError(t, store.CreateApplication(ctx, second))

	list, err := store.ListApplications(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.False(t, list[0].CreatedAt.Before(list[1].CreatedAt))

	got, err := store.GetApplication(ctx, owner.ID, first.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.DateApplied)
	assert.True(t, applied.Equal(*got.DateApplied))

	foreign, err := store.GetApplication(ctx, other.ID, first.ID)
	require.NoError(t, err)
	assert.Nil(t, foreign)

	otherList, err := store.ListApplications(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, otherList)

	status := types.StatusInterviewing
	notes := "phone screen friday"
	updated, err := store.UpdateApplication(ctx, owner.ID, first.ID, &types.UpdateApplicationRequest{Status: &status, Notes: &notes})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, types.StatusInterviewing, updated.Status)
	assert.Equal(t, "Data Analyst", updated.JobTitle)
	assert.Equal(t, notes, updated.Notes)

	hijack, err := store.UpdateApplication(ctx, other.ID, first.ID, &types.UpdateApplicationRequest{Status: &status})
	require.NoError(t, err)
	assert.Nil(t, hijack)

	deleted, err := store.DeleteApplication(ctx, other.ID, first.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = store.DeleteApplication(ctx, owner.ID, first.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	list, err = store.ListApplications(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)
}

func testResumeReviews(t *testing.T, store db.Store) {
	ctx := context.Background()
	owner := newUser(t, store)
	other := newUser(t, store)

	review := &types.ResumeReview{
		UserID:    owner.ID,
		FileURL:   "resumes/" + owner.ID.String() + "/cv.pdf",
		FileName:  "cv.pdf",
		MIMEType:  "application/pdf",
		Feedback:  "Quantify your impact.",
		IsFixable: true,
	}
	require.NoError(t, store.CreateResumeReview(ctx, review))
	assert.NotEqual(t, uuid.Nil, review.ID)
	assert.False(t, review.UploadedAt.IsZero())

	got, err := store.GetResumeReview(ctx, owner.ID, review.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, review.Feedback, got.Feedback)
	assert.True(t, got.IsFixable)

	foreign, err := store.GetResumeReview(ctx, other.ID, review.ID)
	require.NoError(t, err)
	assert.Nil(t, foreign)

	list, err := store.ListResumeReviews(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func testChatMessages(t *testing.T, store db.Store) {
	ctx := context.Background()
	u := newUser(t, store)

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		msg := &types.ChatMessage{
			UserID:    u.ID,
			Message:   fmt.Sprintf("question %d", i),
			Response:  fmt.Sprintf("answer %d", i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.SaveChatMessage(ctx, msg))
	}

	all, err := store.ListChatMessages(ctx, u.ID, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "question 0", all[0].Message)

	recent, err := store.ListChatMessages(ctx, u.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "question 3", recent[0].Message)
	assert.Equal(t, "answer 4", recent[1].Response)
}
