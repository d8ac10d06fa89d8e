package session

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestRegistry(t *testing.T) (*Registry, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	connector := &fakeConnector{conn: conn}
	rec := &fakeRecommender{}

	r := NewRegistry(Settings{
		MaxQueueSize:  100,
		HistorySize:   50,
		DefaultVolume: 50,
		GuardBurst:    5,
		GuardWindow:   30 * time.Second,
	}, connector, rec, zerolog.Nop())
	t.Cleanup(r.StopAll)
	return r, conn
}

func TestRegistryOneSessionPerGuild(t *testing.T) {
	r, _ := newTestRegistry(t)

	a := r.GetOrCreate("guild-a", "voice-1", "text-1")
	b := r.GetOrCreate("guild-b", "voice-2", "text-2")
	if a == b {
		t.Fatal("different guilds share a session")
	}

	// Later refs don't rebind the channels of a live session.
	again := r.GetOrCreate("guild-a", "voice-other", "text-other")
	if again != a {
		t.Fatal("same guild produced a second session")
	}
	if again.VoiceChannelID() != "voice-1" {
		t.Fatalf("voice channel rebound to %s", again.VoiceChannelID())
	}

	if n := r.Len(); n != 2 {
		t.Fatalf("len = %d, want 2", n)
	}
}

func TestRegistryTeardownRemovesEntry(t *testing.T) {
	r, _ := newTestRegistry(t)

	s := r.GetOrCreate("guild-a", "voice-1", "text-1")
	if err := s.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not tear down")
	}

	if _, ok := r.Get("guild-a"); ok {
		t.Fatal("torn-down session still registered")
	}
}

func TestRegistryReplacementSurvivesOldTeardown(t *testing.T) {
	r, _ := newTestRegistry(t)

	old := r.GetOrCreate("guild-a", "voice-1", "text-1")
	_ = old.Stop()
	<-old.Done()

	replacement := r.GetOrCreate("guild-a", "voice-1", "text-1")
	if replacement == old {
		t.Fatal("got the dead session back")
	}

	// A straggling removal for the old identity must not evict the
	// replacement.
	r.removeExact("guild-a", old)
	if got, ok := r.Get("guild-a"); !ok || got != replacement {
		t.Fatal("replacement session was evicted")
	}
}

// A slow voice disconnect must not keep the dying session registered. The
// stop-then-recreate sequence used by station switching depends on the
// entry being gone the moment Stop releases the caller.
func TestStopUnregistersBeforeDisconnectFinishes(t *testing.T) {
	r, conn := newTestRegistry(t)

	gate := make(chan struct{})
	var release sync.Once
	t.Cleanup(func() { release.Do(func() { close(gate) }) })
	conn.mu.Lock()
	conn.closeGate = gate
	conn.mu.Unlock()

	old := r.GetOrCreate("guild-a", "voice-1", "text-1")
	if _, err := old.Enqueue(testSong("A")); err != nil {
		t.Fatal(err)
	}
	_, _ = old.Snapshot()

	stopped := make(chan error, 1)
	go func() { stopped <- old.Stop() }()

	deadline := time.After(2 * time.Second)
	for {
		if _, ok := r.Get("guild-a"); !ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("entry still registered while the disconnect is in flight")
		case <-time.After(5 * time.Millisecond):
		}
	}

	replacement := r.GetOrCreate("guild-a", "voice-1", "text-1")
	if replacement == old {
		t.Fatal("got the dying session back")
	}
	if _, err := replacement.Enqueue(testSong("B")); err != nil {
		t.Fatalf("enqueue on replacement: %v", err)
	}

	release.Do(func() { close(gate) })
	select {
	case err := <-stopped:
		if err != nil {
			t.Fatalf("stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return after the disconnect completed")
	}
	<-old.Done()
}

func TestRegistryGuildControls(t *testing.T) {
	r, conn := newTestRegistry(t)

	if r.StopGuild("nope") || r.PauseGuild("nope") || r.ResumeGuild("nope") {
		t.Fatal("controls reported success for a missing guild")
	}

	s := r.GetOrCreate("guild-a", "voice-1", "text-1")
	if _, err := s.Enqueue(testSong("A")); err != nil {
		t.Fatal(err)
	}
	_, _ = s.Snapshot()

	if !r.PauseGuild("guild-a") {
		t.Fatal("pause failed for a playing guild")
	}
	if !r.ResumeGuild("guild-a") {
		t.Fatal("resume failed for a paused guild")
	}
	if !r.StopGuild("guild-a") {
		t.Fatal("stop failed for a live guild")
	}

	<-s.Done()
	conn.mu.Lock()
	closed := conn.closed
	conn.mu.Unlock()
	if closed != 1 {
		t.Fatalf("conn closed %d times, want 1", closed)
	}
}
