package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"caffonia/internal/song"
)

func testSong(title string) song.Song {
	return song.Song{
		Title:       title,
		Artist:      title + " artist",
		SourceURL:   "https://example.com/" + title,
		SourceKind:  song.KindVideo,
		RequestedBy: "user-1",
	}
}

type playAttempt struct {
	song    song.Song
	volume  int
	quality Quality
	done    func(error)
	cancel  <-chan struct{}
}

// fakeConn records play attempts and lets the test finish them by hand.
type fakeConn struct {
	mu        sync.Mutex
	attempts  []playAttempt
	playErrs  int // how many upcoming Play calls fail
	volumes   []int
	paused    int
	resumed   int
	closed    int
	closeGate chan struct{} // when set, Close blocks until it is closed
}

func (c *fakeConn) Play(ctx context.Context, s song.Song, volume int, quality Quality, done func(error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playErrs > 0 {
		c.playErrs--
		return errors.New("stream refused")
	}
	c.attempts = append(c.attempts, playAttempt{
		song: s, volume: volume, quality: quality, done: done, cancel: ctx.Done(),
	})
	return nil
}

func (c *fakeConn) Pause() error  { c.mu.Lock(); defer c.mu.Unlock(); c.paused++; return nil }
func (c *fakeConn) Resume() error { c.mu.Lock(); defer c.mu.Unlock(); c.resumed++; return nil }

func (c *fakeConn) SetVolume(percent int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.volumes = append(c.volumes, percent)
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	gate := c.closeGate
	c.mu.Unlock()
	if gate != nil {
		<-gate
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *fakeConn) playCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.attempts)
}

func (c *fakeConn) playedTitles() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	titles := make([]string, len(c.attempts))
	for i, a := range c.attempts {
		titles[i] = a.song.Title
	}
	return titles
}

func (c *fakeConn) lastAttempt() playAttempt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts[len(c.attempts)-1]
}

// finishCurrent signals end of the newest stream the way the voice layer
// reports it. The session processes the signal asynchronously.
func (c *fakeConn) finishCurrent(err error) {
	c.lastAttempt().done(err)
}

type fakeConnector struct {
	mu      sync.Mutex
	conn    *fakeConn
	joinErr error
	joins   int
}

func (f *fakeConnector) Join(ctx context.Context, guildID, channelID string) (Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joins++
	if f.joinErr != nil {
		return nil, f.joinErr
	}
	return f.conn, nil
}

type fakeRecommender struct {
	mu    sync.Mutex
	next  song.Song
	err   error
	seeds []string
}

func (f *fakeRecommender) Recommend(ctx context.Context, seedArtist string) (song.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeds = append(f.seeds, seedArtist)
	return f.next, f.err
}

type harness struct {
	sess       *Session
	conn       *fakeConn
	connector  *fakeConnector
	rec        *fakeRecommender
	teardowns  *int
	teardownMu *sync.Mutex
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	conn := &fakeConn{}
	connector := &fakeConnector{conn: conn}
	rec := &fakeRecommender{err: errors.New("no recommendation")}

	var mu sync.Mutex
	teardowns := 0

	cfg.GuildID = "guild-1"
	cfg.VoiceChannelID = "voice-1"
	cfg.TextChannelID = "text-1"

	sess := New(cfg, connector, rec, zerolog.Nop(), func(*Session) {
		mu.Lock()
		teardowns++
		mu.Unlock()
	})
	t.Cleanup(func() { _ = sess.Stop() })

	return &harness{
		sess: sess, conn: conn, connector: connector, rec: rec,
		teardowns: &teardowns, teardownMu: &mu,
	}
}

// sync waits until every event posted so far has been processed. The
// event channel is FIFO, so a snapshot round trip flushes it.
func (h *harness) sync() {
	_, _ = h.sess.Snapshot()
}

// finish ends the newest stream and waits for the session to react.
func (h *harness) finish(err error) {
	h.conn.finishCurrent(err)
	h.sync()
}

func (h *harness) snapshot(t *testing.T) Status {
	t.Helper()
	st, err := h.sess.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return st
}

func (h *harness) waitDone(t *testing.T) {
	t.Helper()
	select {
	case <-h.sess.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not tear down")
	}
}

func (h *harness) teardownCount() int {
	h.teardownMu.Lock()
	defer h.teardownMu.Unlock()
	return *h.teardowns
}

func TestEnqueuePlaysInOrder(t *testing.T) {
	h := newHarness(t, Config{})

	if _, err := h.sess.Enqueue(testSong("A")); err != nil {
		t.Fatalf("enqueue A: %v", err)
	}
	if _, err := h.sess.Enqueue(testSong("B"), testSong("C")); err != nil {
		t.Fatalf("enqueue B,C: %v", err)
	}

	st := h.snapshot(t)
	if st.State != StatePlaying {
		t.Fatalf("state = %v, want playing", st.State)
	}
	if st.Current == nil || st.Current.Title != "A" {
		t.Fatalf("current = %+v, want A", st.Current)
	}
	if len(st.Pending) != 2 || st.Pending[0].Title != "B" || st.Pending[1].Title != "C" {
		t.Fatalf("pending = %+v, want [B C]", st.Pending)
	}

	h.finish(nil)
	st = h.snapshot(t)
	if st.Current.Title != "B" {
		t.Fatalf("current after A = %s, want B", st.Current.Title)
	}
	if len(st.History) != 1 || st.History[0].Title != "A" {
		t.Fatalf("history = %+v, want [A]", st.History)
	}

	h.finish(nil)
	h.finish(nil)
	h.waitDone(t)

	got := h.conn.playedTitles()
	want := []string{"A", "B", "C"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("played = %v, want %v", got, want)
		}
	}
}

func TestEnqueueQueueFullRejectsWithoutMutation(t *testing.T) {
	h := newHarness(t, Config{MaxQueueSize: 2})

	added, err := h.sess.Enqueue(testSong("A"), testSong("B"), testSong("C"))
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("err = %v, want ErrQueueFull", err)
	}
	if added != 2 {
		t.Fatalf("added = %d, want 2", added)
	}

	// A moved on to playing, B stays pending, C was rejected.
	st := h.snapshot(t)
	if st.Current.Title != "A" || len(st.Pending) != 1 || st.Pending[0].Title != "B" {
		t.Fatalf("current=%v pending=%v, want A / [B]", st.Current, st.Pending)
	}

	before := h.snapshot(t)
	added, err = h.sess.Enqueue(testSong("D"), testSong("E"))
	if !errors.Is(err, ErrQueueFull) || added != 1 {
		t.Fatalf("added=%d err=%v, want 1/ErrQueueFull", added, err)
	}
	after := h.snapshot(t)
	if len(after.Pending) != len(before.Pending)+1 {
		t.Fatalf("pending grew by %d, want 1", len(after.Pending)-len(before.Pending))
	}
}

func TestLoopSongReplaysCurrent(t *testing.T) {
	h := newHarness(t, Config{})

	if _, err := h.sess.Enqueue(testSong("A")); err != nil {
		t.Fatal(err)
	}
	if err := h.sess.SetLoop(LoopSong); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		h.finish(nil)
	}

	st := h.snapshot(t)
	if st.Current.Title != "A" {
		t.Fatalf("current = %s, want A", st.Current.Title)
	}
	if len(st.History) != 0 {
		t.Fatalf("history = %+v, want empty under loop=song", st.History)
	}
	if n := h.conn.playCount(); n != 4 {
		t.Fatalf("play count = %d, want 4", n)
	}
}

func TestLoopQueueRoundTrip(t *testing.T) {
	h := newHarness(t, Config{})

	if _, err := h.sess.Enqueue(testSong("A"), testSong("B"), testSong("C")); err != nil {
		t.Fatal(err)
	}
	if err := h.sess.SetLoop(LoopQueue); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 6; i++ {
		h.finish(nil)
	}

	got := h.conn.playedTitles()
	want := []string{"A", "B", "C", "A", "B", "C", "A"}
	if len(got) != len(want) {
		t.Fatalf("played %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("played %v, want %v", got, want)
		}
	}
}

func TestSkipIgnoresStaleTerminal(t *testing.T) {
	h := newHarness(t, Config{})

	if _, err := h.sess.Enqueue(testSong("A"), testSong("B")); err != nil {
		t.Fatal(err)
	}
	h.sync()
	first := h.conn.lastAttempt()

	if err := h.sess.Skip(); err != nil {
		t.Fatalf("skip: %v", err)
	}

	st := h.snapshot(t)
	if st.Current.Title != "B" {
		t.Fatalf("current = %s, want B", st.Current.Title)
	}

	select {
	case <-first.cancel:
	default:
		t.Fatal("first stream context was not cancelled")
	}

	// The cancelled stream reports in late; the session must not skip B.
	first.done(context.Canceled)
	st = h.snapshot(t)
	if st.Current == nil || st.Current.Title != "B" {
		t.Fatalf("stale terminal advanced the session, current = %v", st.Current)
	}
}

func TestErrorThenIdleAdvancesOnce(t *testing.T) {
	h := newHarness(t, Config{})

	if _, err := h.sess.Enqueue(testSong("A"), testSong("B"), testSong("C")); err != nil {
		t.Fatal(err)
	}
	h.sync()
	first := h.conn.lastAttempt()

	// A dying stream that reports an error and then an idle must advance
	// exactly one song.
	first.done(errors.New("stream broke"))
	first.done(nil)
	h.sync()

	st := h.snapshot(t)
	if st.Current.Title != "B" {
		t.Fatalf("current = %s, want B", st.Current.Title)
	}
	if n := h.conn.playCount(); n != 2 {
		t.Fatalf("play count = %d, want 2", n)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	h := newHarness(t, Config{})

	if _, err := h.sess.Enqueue(testSong("A"), testSong("B")); err != nil {
		t.Fatal(err)
	}

	if err := h.sess.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	h.waitDone(t)

	if err := h.sess.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}
	if n := h.teardownCount(); n != 1 {
		t.Fatalf("teardown ran %d times, want 1", n)
	}

	h.conn.mu.Lock()
	closed := h.conn.closed
	h.conn.mu.Unlock()
	if closed != 1 {
		t.Fatalf("conn closed %d times, want 1", closed)
	}

	if _, err := h.sess.Enqueue(testSong("D")); !errors.Is(err, ErrTornDown) {
		t.Fatalf("enqueue after teardown: %v, want ErrTornDown", err)
	}
	if err := h.sess.Pause(); !errors.Is(err, ErrTornDown) {
		t.Fatalf("pause after teardown: %v, want ErrTornDown", err)
	}
}

func TestPauseResumePreconditions(t *testing.T) {
	h := newHarness(t, Config{})

	if err := h.sess.Pause(); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("pause while idle: %v, want ErrPreconditionFailed", err)
	}

	if _, err := h.sess.Enqueue(testSong("A")); err != nil {
		t.Fatal(err)
	}
	if err := h.sess.Pause(); err != nil {
		t.Fatalf("pause while playing: %v", err)
	}
	if err := h.sess.Pause(); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("double pause: %v, want ErrPreconditionFailed", err)
	}
	if err := h.sess.Resume(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if err := h.sess.Resume(); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("double resume: %v, want ErrPreconditionFailed", err)
	}
}

func TestSetVolumeClampsAndAppliesLive(t *testing.T) {
	h := newHarness(t, Config{DefaultVolume: 50})

	if _, err := h.sess.Enqueue(testSong("A")); err != nil {
		t.Fatal(err)
	}

	applied, err := h.sess.SetVolume(150)
	if err != nil || applied != 100 {
		t.Fatalf("SetVolume(150) = %d, %v, want 100", applied, err)
	}
	applied, err = h.sess.SetVolume(-20)
	if err != nil || applied != 0 {
		t.Fatalf("SetVolume(-20) = %d, %v, want 0", applied, err)
	}

	h.conn.mu.Lock()
	volumes := append([]int(nil), h.conn.volumes...)
	h.conn.mu.Unlock()
	if len(volumes) != 2 || volumes[0] != 100 || volumes[1] != 0 {
		t.Fatalf("live volume updates = %v, want [100 0]", volumes)
	}
}

func TestAdvanceGuardTripsFatal(t *testing.T) {
	h := newHarness(t, Config{GuardBurst: 3, GuardWindow: time.Minute})
	h.conn.playErrs = 10

	songs := []song.Song{
		testSong("A"), testSong("B"), testSong("C"), testSong("D"), testSong("E"),
	}
	if _, err := h.sess.Enqueue(songs...); err != nil {
		t.Fatal(err)
	}

	h.waitDone(t)

	sawFatal := false
	for {
		select {
		case ev := <-h.sess.Status():
			if ev.Kind == StatusFatal {
				sawFatal = true
				if !errors.Is(ev.Err, ErrFatalSession) {
					t.Fatalf("fatal err = %v, want ErrFatalSession", ev.Err)
				}
			}
			continue
		default:
		}
		break
	}
	if !sawFatal {
		t.Fatal("no fatal status event emitted")
	}
}

func TestAutoplayRecommendsBySeedArtist(t *testing.T) {
	h := newHarness(t, Config{})
	h.rec.mu.Lock()
	h.rec.next = testSong("R")
	h.rec.err = nil
	h.rec.mu.Unlock()

	if _, err := h.sess.Enqueue(testSong("A")); err != nil {
		t.Fatal(err)
	}
	if _, err := h.sess.ToggleAutoplay(); err != nil {
		t.Fatal(err)
	}

	h.finish(nil)

	st := h.snapshot(t)
	if st.Current == nil || st.Current.Title != "R" {
		t.Fatalf("current = %v, want recommendation R", st.Current)
	}
	if st.Current.RequestedBy != "user-1" {
		t.Fatalf("requester = %s, want inherited user-1", st.Current.RequestedBy)
	}

	h.rec.mu.Lock()
	seeds := append([]string(nil), h.rec.seeds...)
	h.rec.mu.Unlock()
	if len(seeds) != 1 || seeds[0] != "A artist" {
		t.Fatalf("seeds = %v, want [A artist]", seeds)
	}

	// When the recommender has nothing, the session winds down.
	h.rec.mu.Lock()
	h.rec.err = errors.New("nothing left")
	h.rec.mu.Unlock()
	h.conn.finishCurrent(nil)
	h.waitDone(t)
}

func TestVoiceChannelEmptyTearsDown(t *testing.T) {
	h := newHarness(t, Config{})

	if _, err := h.sess.Enqueue(testSong("A")); err != nil {
		t.Fatal(err)
	}

	h.sess.OnVoiceChannelEmpty()
	h.waitDone(t)

	if n := h.teardownCount(); n != 1 {
		t.Fatalf("teardown ran %d times, want 1", n)
	}
}

func TestShuffleDrawsFromPending(t *testing.T) {
	h := newHarness(t, Config{})

	if _, err := h.sess.Enqueue(testSong("A"), testSong("B"), testSong("C"), testSong("D")); err != nil {
		t.Fatal(err)
	}
	on, err := h.sess.ToggleShuffle()
	if err != nil || !on {
		t.Fatalf("ToggleShuffle = %v, %v, want on", on, err)
	}

	queued := map[string]bool{"A": true, "B": true, "C": true, "D": true}
	for i := 0; i < 3; i++ {
		h.finish(nil)
		st := h.snapshot(t)
		if st.Current == nil || !queued[st.Current.Title] {
			t.Fatalf("current = %v, not from the enqueued set", st.Current)
		}
	}
}

// The shuffle pick only reads rng, mode and pending, so it can be driven
// directly with a seeded generator to check the draw distribution.
func TestShufflePickIsUniform(t *testing.T) {
	s := &Session{
		mode: Mode{Shuffle: true},
		rng:  rand.New(rand.NewSource(42)),
	}
	titles := []string{"A", "B", "C", "D"}

	fill := func() {
		s.pending = s.pending[:0]
		for _, title := range titles {
			s.pending = append(s.pending, testSong(title))
		}
	}

	const trials = 6000
	counts := make(map[string]int)
	for i := 0; i < trials; i++ {
		fill()
		counts[s.takeFromPending().Title]++
	}

	want := trials / len(titles)
	tolerance := want / 10
	for _, title := range titles {
		if got := counts[title]; got < want-tolerance || got > want+tolerance {
			t.Errorf("%s drawn %d times, want %d±%d", title, got, want, tolerance)
		}
	}

	// Draining the queue yields a permutation, every entry exactly once.
	fill()
	seen := make(map[string]bool)
	for len(s.pending) > 0 {
		title := s.takeFromPending().Title
		if seen[title] {
			t.Fatalf("%s drawn twice in one drain", title)
		}
		seen[title] = true
	}
	if len(seen) != len(titles) {
		t.Fatalf("drain produced %d distinct titles, want %d", len(seen), len(titles))
	}
}

func TestQualityAppliesToNextStream(t *testing.T) {
	h := newHarness(t, Config{})

	if _, err := h.sess.Enqueue(testSong("A"), testSong("B")); err != nil {
		t.Fatal(err)
	}
	if err := h.sess.SetQuality(QualityHigh); err != nil {
		t.Fatal(err)
	}

	h.finish(nil)
	if got := h.conn.lastAttempt().quality; got != QualityHigh {
		t.Fatalf("quality = %v, want high", got)
	}
}
