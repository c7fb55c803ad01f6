package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResumeKey(t *testing.T) {
	id := uuid.MustParse("7f1c2f9e-6a43-4c1e-9a55-0f3c0c5d7e21")

	key := ResumeKey(id, "My CV.pdf")
	assert.True(t, strings.HasPrefix(key, "resumes/"+id.String()+"/"))
	assert.True(t, strings.HasSuffix(key, "-My CV.pdf"))

	assert.NotContains(t, ResumeKey(id, "../../etc/passwd"), "..")
	assert.NotContains(t, ResumeKey(id, `C:\Users\me\cv.docx`), `\`)
	assert.True(t, strings.HasSuffix(ResumeKey(id, ""), "-resume"))
}

func TestLocal_PutGet(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key := ResumeKey(uuid.New(), "cv.txt")
	require.NoError(t, store.Put(ctx, key, "text/plain", []byte("resume body")))

	data, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "resume body", string(data))

	_, err = store.Get(ctx, "resumes/missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocal_RejectsEscapingKeys(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Put(context.Background(), "../outside", "text/plain", []byte("x")))
	_, err = store.Get(context.Background(), "../../etc/passwd")
	assert.Error(t, err)
}

func TestLocal_SizeLimit(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	err = store.Put(context.Background(), "big", "application/pdf", make([]byte, MaxResumeBytes+1))
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.NoError(t, store.Put(context.Background(), "ok", "application/pdf", make([]byte, MaxResumeBytes)))
}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{})
	assert.Error(t, err)
}
