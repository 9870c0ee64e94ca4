package timeline

import (
	"testing"
	"time"

	"feedsync/feature/remote"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gapDone(anchor string) func(Snapshot) bool {
	return func(s Snapshot) bool {
		for _, g := range s.Gaps {
			if g.Anchor == anchor && g.State != GapLoading {
				return true
			}
		}
		return false
	}
}

func idleFeed(t *testing.T, primary, fallback *scriptedFetcher, obs Observer) *Feed {
	t.Helper()
	f := newTestFeed(t, nil, primary, func(o *FeedOptions) {
		if fallback != nil {
			o.Fallback = fallback
		}
		o.Observer = obs
	})
	require.NoError(t, f.Activate())
	waitFor(t, f, inState(StateIdle))
	return f
}

func TestFillGap_RateLimitedPrimaryFallsBack(t *testing.T) {
	primary := newScriptedFetcher(page("c1", "50", "10"), failure(remote.KindRateLimited))
	fallback := newScriptedFetcher(page("", "40", "30", "10"))
	obs := &recordingObserver{}
	f := idleFeed(t, primary, fallback, obs)

	require.NoError(t, f.FillGap("50"))
	s := waitFor(t, f, gapDone("50"))

	require.Len(t, s.Gaps, 1)
	g := s.Gaps[0]
	assert.Equal(t, GapSuccess, g.State)
	assert.True(t, g.NeedsFallback)
	assert.Equal(t, 1, g.PrimaryCalls)
	assert.Equal(t, 1, g.FallbackCalls)
	assert.Equal(t, 2, g.Inserted)
	assert.Equal(t, []string{"50", "40", "30", "10"}, f.Items())

	assert.Equal(t, remote.Cursor{MaxID: "50"}, primary.calls()[1])
	assert.Equal(t, []remote.Cursor{{MaxID: "50"}}, fallback.calls())

	_, _, gaps := obs.snapshot()
	assert.Equal(t, []string{"success:true"}, gaps)
	assert.Equal(t, StateIdle, f.State())
}

func TestFillGap_PrimarySucceeds(t *testing.T) {
	primary := newScriptedFetcher(page("c1", "50", "10"), page("", "20"))
	fallback := newScriptedFetcher()
	f := idleFeed(t, primary, fallback, nil)

	require.NoError(t, f.FillGap("50"))
	s := waitFor(t, f, gapDone("50"))
	assert.Equal(t, GapSuccess, s.Gaps[0].State)
	assert.False(t, s.Gaps[0].NeedsFallback)
	assert.Empty(t, fallback.calls())
	assert.Equal(t, []string{"50", "20", "10"}, f.Items())
}

func TestFillGap_NoNewItemsFails(t *testing.T) {
	primary := newScriptedFetcher(page("c1", "50", "10"), page("", "10"))
	f := idleFeed(t, primary, nil, nil)

	require.NoError(t, f.FillGap("50"))
	s := waitFor(t, f, gapDone("50"))
	assert.Equal(t, GapFail, s.Gaps[0].State)
	assert.Zero(t, s.Gaps[0].Inserted)
	assert.Equal(t, []string{"50", "10"}, f.Items())
}

func TestFillGap_FallbackIsOneWay(t *testing.T) {
	primary := newScriptedFetcher(page("c1", "50", "10"), failure(remote.KindRateLimited))
	fallback := newScriptedFetcher(failure(remote.KindRateLimited))
	obs := &recordingObserver{}
	f := idleFeed(t, primary, fallback, obs)

	require.NoError(t, f.FillGap("50"))
	s := waitFor(t, f, gapDone("50"))
	g := s.Gaps[0]
	assert.Equal(t, GapFail, g.State)
	assert.Equal(t, 1, g.PrimaryCalls)
	assert.Equal(t, 1, g.FallbackCalls)
	assert.NotEmpty(t, g.LastError)

	_, _, gaps := obs.snapshot()
	assert.Equal(t, []string{"fail:true"}, gaps)
}

func TestFillGap_RateLimitedWithoutFallbackFails(t *testing.T) {
	primary := newScriptedFetcher(page("c1", "50", "10"), failure(remote.KindRateLimited))
	f := idleFeed(t, primary, nil, nil)

	require.NoError(t, f.FillGap("50"))
	s := waitFor(t, f, gapDone("50"))
	assert.Equal(t, GapFail, s.Gaps[0].State)
	assert.False(t, s.Gaps[0].NeedsFallback)
}

func TestFillGap_Guards(t *testing.T) {
	release := make(chan struct{})
	primary := newScriptedFetcher(
		page("c1", "50", "10"),
		step{page: remote.Page{Entities: posts("30")}, release: release},
		page("", "20"),
	)
	f := idleFeed(t, primary, nil, nil)

	assert.ErrorIs(t, f.FillGap("missing"), ErrUnknownAnchor)

	require.NoError(t, f.FillGap("50"))
	assert.ErrorIs(t, f.FillGap("50"), ErrGapInProgress)
	g, ok := f.Gap("50")
	require.True(t, ok)
	assert.Equal(t, GapLoading, g.State)

	close(release)
	waitFor(t, f, gapDone("50"))

	require.NoError(t, f.FillGap("50"), "terminal gap fills are replaceable")
	s := waitFor(t, f, func(s Snapshot) bool {
		return len(s.Gaps) == 1 && s.Gaps[0].State != GapLoading && s.Gaps[0].Inserted == 1 && f.acc.Contains("20")
	})
	assert.Equal(t, GapSuccess, s.Gaps[0].State)
	assert.Equal(t, []string{"50", "20", "30", "10"}, f.Items())

	_, ok = f.Gap("nope")
	assert.False(t, ok)
}

func TestFillGap_ResetDiscardsGap(t *testing.T) {
	release := make(chan struct{})
	gap, started := held(remote.Page{Entities: posts("30")}, release)
	primary := newScriptedFetcher(page("c1", "50", "10"), gap, page("c2", "70"))
	f := idleFeed(t, primary, nil, nil)

	require.NoError(t, f.FillGap("50"))
	awaitStarted(t, started)
	require.NoError(t, f.Reset())
	waitFor(t, f, inState(StateIdle))

	close(release)
	time.Sleep(30 * time.Millisecond)
	s, _ := f.Snapshot().Load()
	assert.Empty(t, s.Gaps)
	assert.Equal(t, []string{"70"}, f.Items())
}

func TestFillGap_OverlappingPageClosesAtHeldItem(t *testing.T) {
	primary := newScriptedFetcher(page("c1", "50", "10"), page("", "30", "20", "10", "5"))
	f := idleFeed(t, primary, nil, nil)

	require.NoError(t, f.FillGap("50"))
	s := waitFor(t, f, gapDone("50"))
	assert.Equal(t, GapSuccess, s.Gaps[0].State)
	assert.Equal(t, 2, s.Gaps[0].Inserted)
	assert.Equal(t, []string{"50", "30", "20", "10", "5"}, f.Items())
}

func TestFillGap_PageBelowNextItemFails(t *testing.T) {
	primary := newScriptedFetcher(page("c1", "50", "10"), page("", "10", "5"))
	f := idleFeed(t, primary, nil, nil)

	require.NoError(t, f.FillGap("50"))
	s := waitFor(t, f, gapDone("50"))
	assert.Equal(t, GapFail, s.Gaps[0].State)
	assert.Equal(t, 0, s.Gaps[0].Inserted)
	assert.Equal(t, []string{"50", "10"}, f.Items())
}

func TestSpliceRuns(t *testing.T) {
	holding := func(ids ...string) func(string) bool {
		set := map[string]bool{}
		for _, id := range ids {
			set[id] = true
		}
		return func(id string) bool { return set[id] }
	}

	tests := []struct {
		name   string
		ids    []string
		held   []string
		runs   []splice
		filled int
	}{
		{
			name:   "gap only",
			ids:    []string{"40", "30"},
			held:   []string{"50", "10"},
			runs:   []splice{{after: "50", ids: []string{"40", "30"}}},
			filled: 2,
		},
		{
			name: "closes at held item",
			ids:  []string{"50", "30", "10", "5", "3", "1"},
			held: []string{"50", "10", "3"},
			runs: []splice{
				{after: "50", ids: []string{"30"}},
				{after: "10", ids: []string{"5"}},
				{after: "3", ids: []string{"1"}},
			},
			filled: 1,
		},
		{
			name:   "nothing new",
			ids:    []string{"10", "10"},
			held:   []string{"50", "10"},
			filled: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, filled := spliceRuns("50", tt.ids, holding(tt.held...))
			assert.Equal(t, tt.runs, runs)
			assert.Equal(t, tt.filled, filled)
		})
	}
}
