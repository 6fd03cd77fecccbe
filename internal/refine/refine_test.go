package refine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/colsolve/internal/cache"
	"github.com/dshills/colsolve/internal/metrics"
	"github.com/dshills/colsolve/internal/providers"
	"github.com/dshills/colsolve/internal/transposition"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeOracle answers every prompt with reply, or err when set.
type fakeOracle struct {
	reply string
	err   error
	calls atomic.Int32
}

func (f *fakeOracle) Name() string { return "fake" }

func (f *fakeOracle) Complete(ctx context.Context, req providers.CompletionRequest) (providers.CompletionResponse, error) {
	f.calls.Add(1)
	if f.err != nil {
		return providers.CompletionResponse{}, f.err
	}
	return providers.CompletionResponse{Content: f.reply}, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newStore(t *testing.T, opts ...cache.Option) cache.Store {
	t.Helper()
	s, err := cache.NewFile(true, t.TempDir(), cache.DefaultTTL, opts...)
	if err != nil {
		t.Fatalf("NewFile error: %v", err)
	}
	return s
}

func candidates(texts ...string) []transposition.Candidate {
	out := make([]transposition.Candidate, len(texts))
	for i, s := range texts {
		out[i] = transposition.Candidate{
			Dimension:     transposition.Dimension{Rows: 2, Cols: len(s) / 2},
			ColumnOrder:   transposition.Identity(len(s) / 2),
			DecryptedText: s,
			Score:         float64(10 - i),
		}
	}
	return out
}

func TestRefine_AcceptsSimilarSuggestion(t *testing.T) {
	oracle := &fakeOracle{reply: `{"spacedText": "Meet me at the old mill."}`}
	r := New(oracle, newStore(t), DefaultOptions(), nil)

	in := candidates("MEETMEATTHEOLDMILL")
	out, sum := r.RefineDetailed(context.Background(), in)

	if out[0].RefinedText != "Meet me at the old mill." {
		t.Errorf("RefinedText = %q", out[0].RefinedText)
	}
	if in[0].RefinedText != "" {
		t.Error("input candidate was mutated")
	}
	if sum.Attempted != 1 || sum.Accepted != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestRefine_CachesAcrossSubmissions(t *testing.T) {
	oracle := &fakeOracle{reply: `{"spacedText": "WE ARE DISCOVERED"}`}
	r := New(oracle, newStore(t), DefaultOptions(), nil)

	first := r.Refine(context.Background(), candidates("WEAREDISCOVERED"))
	out, sum := r.RefineDetailed(context.Background(), candidates("WEAREDISCOVERED"))

	if got := oracle.calls.Load(); got != 1 {
		t.Errorf("oracle calls = %d, want 1", got)
	}
	if first[0].RefinedText != "WE ARE DISCOVERED" || out[0].RefinedText != "WE ARE DISCOVERED" {
		t.Errorf("RefinedText = %q then %q", first[0].RefinedText, out[0].RefinedText)
	}
	if sum.Cached != 1 {
		t.Errorf("summary = %+v, want one cached", sum)
	}
}

func TestRefine_CacheExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	oracle := &fakeOracle{reply: `{"spacedText": "FLEE AT ONCE"}`}
	r := New(oracle, newStore(t, cache.WithClock(clock.Now)), DefaultOptions(), nil)

	r.Refine(context.Background(), candidates("FLEEATONCE"))
	clock.Advance(23 * time.Hour)
	r.Refine(context.Background(), candidates("FLEEATONCE"))
	if got := oracle.calls.Load(); got != 1 {
		t.Fatalf("oracle calls inside TTL = %d, want 1", got)
	}

	clock.Advance(time.Hour)
	r.Refine(context.Background(), candidates("FLEEATONCE"))
	if got := oracle.calls.Load(); got != 2 {
		t.Errorf("oracle calls after TTL = %d, want 2", got)
	}
}

func TestRefine_SimilarityGateRejects(t *testing.T) {
	// Two of ten letters differ: similarity 0.8.
	oracle := &fakeOracle{reply: `{"spacedText": "ABCDEFGH XY"}`}
	store := newStore(t)
	r := New(oracle, store, DefaultOptions(), nil)

	before := testutil.ToFloat64(metrics.RefineOutcomes.WithLabelValues(metrics.OutcomeRejected))
	out, sum := r.RefineDetailed(context.Background(), candidates("ABCDEFGHIJ"))
	after := testutil.ToFloat64(metrics.RefineOutcomes.WithLabelValues(metrics.OutcomeRejected))

	if out[0].RefinedText != "" {
		t.Errorf("RefinedText = %q, want none", out[0].RefinedText)
	}
	if sum.Rejected != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if after-before != 1 {
		t.Errorf("rejected counter moved by %v, want 1", after-before)
	}

	entry, ok := store.Get(cache.RefinementKey("ABCDEFGHIJ"))
	if !ok {
		t.Fatal("rejected outcome should be cached")
	}
	if entry.Accepted {
		t.Error("cached entry should not be accepted")
	}

	// A cached rejection stays rejected without another call.
	out = r.Refine(context.Background(), candidates("ABCDEFGHIJ"))
	if out[0].RefinedText != "" || oracle.calls.Load() != 1 {
		t.Errorf("second pass RefinedText = %q, calls = %d", out[0].RefinedText, oracle.calls.Load())
	}
}

func TestRefine_GateBoundaryAccepts(t *testing.T) {
	// Exactly one of ten letters differs.
	oracle := &fakeOracle{reply: `{"spacedText": "ABCDE FGHIX"}`}
	r := New(oracle, nil, DefaultOptions(), nil)

	res := r.Evaluate(context.Background(), "ABCDEFGHIJ")
	if !res.Accepted() || res.Text != "ABCDE FGHIX" {
		t.Errorf("Evaluate = %+v", res)
	}
}

func TestRefine_IdenticalSuggestionLeavesNoRefinement(t *testing.T) {
	oracle := &fakeOracle{reply: `{"spacedText": "XQZVKJ"}`}
	r := New(oracle, nil, DefaultOptions(), nil)

	out, sum := r.RefineDetailed(context.Background(), candidates("XQZVKJ"))
	if out[0].RefinedText != "" {
		t.Errorf("RefinedText = %q, want none", out[0].RefinedText)
	}
	if sum.Accepted != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestRefine_UnavailableIsNotCached(t *testing.T) {
	oracle := &fakeOracle{err: errors.New("connection refused")}
	store := newStore(t)
	r := New(oracle, store, DefaultOptions(), nil)

	res := r.Evaluate(context.Background(), "ATTACKATDAWN")
	if !errors.Is(res.Err, ErrUnavailable) {
		t.Errorf("Err = %v, want ErrUnavailable", res.Err)
	}
	if res.Text != "ATTACKATDAWN" {
		t.Errorf("Text = %q", res.Text)
	}
	if _, ok := store.Get(cache.RefinementKey("ATTACKATDAWN")); ok {
		t.Error("transport failure should not be cached")
	}

	r.Evaluate(context.Background(), "ATTACKATDAWN")
	if got := oracle.calls.Load(); got != 2 {
		t.Errorf("oracle calls = %d, want 2", got)
	}
}

func TestRefine_MalformedIsCached(t *testing.T) {
	oracle := &fakeOracle{reply: "I am not able to help with that."}
	store := newStore(t)
	r := New(oracle, store, DefaultOptions(), nil)

	res := r.Evaluate(context.Background(), "HOLDTHELINE")
	if !errors.Is(res.Err, ErrMalformed) {
		t.Errorf("Err = %v, want ErrMalformed", res.Err)
	}
	entry, ok := store.Get(cache.RefinementKey("HOLDTHELINE"))
	if !ok {
		t.Fatal("malformed outcome should be cached")
	}
	if entry.Accepted || entry.RefinedText != "HOLDTHELINE" {
		t.Errorf("entry = %+v", entry)
	}
}

func TestRefine_CachedMalformedKeepsClass(t *testing.T) {
	for _, reply := range []string{"I am not able to help with that.", ""} {
		oracle := &fakeOracle{reply: reply}
		store := newStore(t)
		r := New(oracle, store, DefaultOptions(), nil)

		r.Evaluate(context.Background(), "HOLDTHELINE")
		entry, ok := store.Get(cache.RefinementKey("HOLDTHELINE"))
		if !ok {
			t.Fatalf("reply %q: malformed outcome should be cached", reply)
		}
		if entry.Outcome != metrics.OutcomeMalformed {
			t.Errorf("reply %q: stored outcome = %q, want %q", reply, entry.Outcome, metrics.OutcomeMalformed)
		}

		res := r.Evaluate(context.Background(), "HOLDTHELINE")
		if got := oracle.calls.Load(); got != 1 {
			t.Errorf("reply %q: oracle calls = %d, want 1", reply, got)
		}
		if res.Outcome != metrics.OutcomeCached {
			t.Errorf("reply %q: Outcome = %q, want cached", reply, res.Outcome)
		}
		if !errors.Is(res.Err, ErrMalformed) || errors.Is(res.Err, ErrUntrusted) {
			t.Errorf("reply %q: Err = %v, want ErrMalformed", reply, res.Err)
		}
		if res.Similarity != 0 || res.Text != "HOLDTHELINE" {
			t.Errorf("reply %q: result = %+v", reply, res)
		}
	}
}

func TestRefine_NilOracle(t *testing.T) {
	r := New(nil, nil, DefaultOptions(), nil)
	out, sum := r.RefineDetailed(context.Background(), candidates("AAAA", "BBBB"))
	if out[0].RefinedText != "" || out[1].RefinedText != "" {
		t.Error("nothing should be refined without an oracle")
	}
	if sum.Unavailable != 2 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestRefine_OnlyTopN(t *testing.T) {
	oracle := &fakeOracle{reply: `{"spacedText": "anything"}`}
	r := New(oracle, nil, DefaultOptions(), nil)

	in := candidates("AAAAAA", "BBBBBB", "CCCCCC", "DDDDDD", "EEEEEE")
	out, sum := r.RefineDetailed(context.Background(), in)
	if got := oracle.calls.Load(); got != 3 {
		t.Errorf("oracle calls = %d, want 3", got)
	}
	if sum.Attempted != 3 {
		t.Errorf("Attempted = %d, want 3", sum.Attempted)
	}
	if len(out) != len(in) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(in))
	}
	for i := range out {
		if out[i].DecryptedText != in[i].DecryptedText || out[i].Score != in[i].Score {
			t.Errorf("candidate %d reordered or altered", i)
		}
	}
}

// barrierOracle only answers once n calls are in flight at the same time.
type barrierOracle struct {
	wg sync.WaitGroup
}

func (b *barrierOracle) Name() string { return "barrier" }

func (b *barrierOracle) Complete(ctx context.Context, req providers.CompletionRequest) (providers.CompletionResponse, error) {
	b.wg.Done()
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return providers.CompletionResponse{Content: `{"spacedText": "OK GO"}`}, nil
	case <-time.After(2 * time.Second):
		return providers.CompletionResponse{}, errors.New("calls were not concurrent")
	}
}

func TestRefine_FansOutConcurrently(t *testing.T) {
	oracle := &barrierOracle{}
	oracle.wg.Add(3)
	r := New(oracle, nil, DefaultOptions(), nil)

	out, sum := r.RefineDetailed(context.Background(), candidates("OKGO", "OKGO", "OKGO"))
	if sum.Accepted != 3 {
		t.Fatalf("summary = %+v, want 3 accepted", sum)
	}
	for i := range out {
		if out[i].RefinedText != "OK GO" {
			t.Errorf("candidate %d RefinedText = %q", i, out[i].RefinedText)
		}
	}
}

func TestBuildPrompt(t *testing.T) {
	p := buildPrompt("THEQUICKBROWNFOX")
	for _, want := range []string{`"THEQUICKBROWNFOX"`, "spacedText", "JSON"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
