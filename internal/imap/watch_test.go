package imap

import (
	"context"
	"testing"
	"time"

	"github.com/movecrm/mailengine/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestWatchStopsOnCancel(t *testing.T) {
	server := testutil.NewTestIMAPServer(t)
	defer server.Close()

	engine := newTestEngine(t, server)

	ctx, cancel := context.WithCancel(context.Background())
	returned := make(chan struct{})
	go func() {
		engine.Watch(ctx, "INBOX", func(string, uint32) {})
		close(returned)
	}()

	// Let the watcher connect and enter its idle loop before canceling.
	time.Sleep(300 * time.Millisecond)
	cancel()

	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchReturnsImmediatelyWhenCanceled(t *testing.T) {
	server := testutil.NewTestIMAPServer(t)
	defer server.Close()

	engine := newTestEngine(t, server)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		engine.Watch(ctx, "INBOX", func(string, uint32) {})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch must not start with a canceled context")
	}
	assert.Equal(t, StateDisconnected, engine.State(), "the watcher never touches the worker session")
}
