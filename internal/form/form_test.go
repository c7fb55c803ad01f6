package form

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echo(_ context.Context, in string) (string, error) {
	return "ok:" + in, nil
}

func TestForm_Success(t *testing.T) {
	f := New(echo)
	assert.Equal(t, StatusIdle, f.State().Status)

	out, err := f.Submit(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "ok:a", out)

	state := f.State()
	assert.Equal(t, StatusSucceeded, state.Status)
	assert.Equal(t, "ok:a", state.Output)
	assert.NoError(t, state.Err)
}

func TestForm_FailureThenRecovers(t *testing.T) {
	fail := true
	f := New(func(_ context.Context, in string) (string, error) {
		if fail {
			return "", errors.New("malformed")
		}
		return in, nil
	})

	_, err := f.Submit(context.Background(), "a")
	require.Error(t, err)
	state := f.State()
	assert.Equal(t, StatusFailed, state.Status)
	assert.EqualError(t, state.Err, "malformed")
	assert.Empty(t, state.Output)

	fail = false
	out, err := f.Submit(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "b", out)
	assert.Equal(t, StatusSucceeded, f.State().Status)
	assert.NoError(t, f.State().Err)
}

func TestForm_PanicMarksFailed(t *testing.T) {
	boom := true
	f := New(func(_ context.Context, in string) (string, error) {
		if boom {
			panic("nil map write")
		}
		return in, nil
	})
	updates, cancel := f.Subscribe(4)
	defer cancel()

	assert.PanicsWithValue(t, "nil map write", func() {
		_, _ = f.Submit(context.Background(), "a")
	})
	state := f.State()
	assert.Equal(t, StatusFailed, state.Status)
	assert.ErrorIs(t, state.Err, ErrAborted)
	assert.Equal(t, StatusSubmitting, (<-updates).State.Status)
	assert.Equal(t, StatusFailed, (<-updates).State.Status)

	boom = false
	out, err := f.Submit(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "b", out)
}

func TestForm_SubmitWhileSubmittingIsBusy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int
	f := New(func(_ context.Context, in string) (string, error) {
		calls++
		close(started)
		<-release
		return in, nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background(), "first")
		done <- err
	}()
	<-started

	before := f.State()
	_, err := f.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, before, f.State())
	assert.True(t, f.Busy())
	assert.ErrorIs(t, f.Reset(), ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "first", f.State().Output)
}

func TestForm_ContextCancellationFails(t *testing.T) {
	f := New(func(ctx context.Context, in string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Submit(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusFailed, f.State().Status)
}

func TestForm_Reset(t *testing.T) {
	f := New(echo)
	require.NoError(t, f.Reset())

	_, _ = f.Submit(context.Background(), "a")
	require.NoError(t, f.Reset())
	assert.Equal(t, StatusIdle, f.State().Status)
	assert.Empty(t, f.State().Output)
}

func TestForm_Subscribe(t *testing.T) {
	f := New(func(_ context.Context, in string) (string, error) {
		if in == "bad" {
			return "", errors.New("boom")
		}
		return in, nil
	})
	events, unsubscribe := f.Subscribe(8)

	_, _ = f.Submit(context.Background(), "good")
	_, _ = f.Submit(context.Background(), "bad")

	var got []Transition[string]
	for i := 0; i < 4; i++ {
		select {
		case tr := <-events:
			got = append(got, tr)
		case <-time.After(time.Second):
			t.Fatal("missing transition")
		}
	}
	assert.Equal(t, StatusIdle, got[0].From)
	assert.Equal(t, StatusSubmitting, got[0].State.Status)
	assert.Equal(t, StatusSucceeded, got[1].State.Status)
	assert.Equal(t, "good", got[1].State.Output)
	assert.Equal(t, StatusSucceeded, got[2].From)
	assert.Equal(t, StatusFailed, got[3].State.Status)

	unsubscribe()
	unsubscribe()
	_, ok := <-events
	assert.False(t, ok)

	_, err := f.Submit(context.Background(), "after")
	assert.NoError(t, err)
}

func TestForm_SlowObserverDoesNotBlock(t *testing.T) {
	f := New(echo)
	_, unsubscribe := f.Subscribe(1)
	defer unsubscribe()

	for i := 0; i < 5; i++ {
		_, err := f.Submit(context.Background(), "x")
		require.NoError(t, err)
	}
}

func TestSet(t *testing.T) {
	created := 0
	s := NewSet(func(string) *Form[string, string] {
		created++
		return New(echo)
	})

	a := s.Get("user-1/goal-setting")
	assert.Same(t, a, s.Get("user-1/goal-setting"))
	_ = s.Get("user-2/goal-setting")
	assert.Equal(t, 2, created)
	assert.Equal(t, 2, s.Len())

	_, ok := s.Lookup("user-3/goal-setting")
	assert.False(t, ok)
}
