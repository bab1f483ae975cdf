package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/auctionwatcher/internal/model"
	apperrors "sjsage522/auctionwatcher/pkg/errors"
)

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()
	clock := &testClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	s, err := Open(context.Background(), Options{
		Driver: DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "auction.db"),
		Now:    clock.Now,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, clock
}

func ptrTime(t time.Time) *time.Time { return &t }

func addItem(t *testing.T, s *Store, externalID, title string, bid float64, end *time.Time) int64 {
	t.Helper()
	id, err := s.UpsertItem(context.Background(), model.ItemRecord{
		ExternalID: externalID,
		Title:      title,
		CurrentBid: bid,
		AuctionEnd: end,
		URL:        "https://auctions.example.com/item/" + externalID,
	})
	require.NoError(t, err)
	return id
}

func addAnalysis(t *testing.T, s *Store, itemID int64, margin float64) {
	t.Helper()
	_, err := s.SaveAnalysis(context.Background(), model.ProfitAnalysis{
		ItemID:          itemID,
		EstimatedValue:  100,
		CurrentBid:      100 - margin,
		PotentialProfit: margin,
		ProfitMargin:    margin,
		ConfidenceScore: 0.3,
		Recommendation:  model.RecommendWatch,
	})
	require.NoError(t, err)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "oracle"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestOpenIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auction.db")
	ctx := context.Background()

	s, err := Open(ctx, Options{Path: path})
	require.NoError(t, err)
	addItem(t, s, "1", "Lot #1 - Lamp", 5, nil)
	require.NoError(t, s.Close())

	s, err = Open(ctx, Options{Path: path})
	require.NoError(t, err)
	defer s.Close()
	items, err := s.ActiveItems(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestUpsertItemIsIdempotent(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	id := addItem(t, s, "42", "Lot #1 - Brass Lamp", 10, nil)
	again := addItem(t, s, "42", "Lot #1 - Brass Lamp", 10, nil)
	assert.Equal(t, id, again)

	items, err := s.ActiveItems(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)

	history, err := s.BidHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 10.0, history[0].BidAmount)

	created := items[0].CreatedAt
	clock.Advance(time.Minute)
	addItem(t, s, "42", "Lot #1 - Brass Lamp", 15, nil)

	history, err = s.BidHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 15.0, history[0].BidAmount)
	assert.Equal(t, 10.0, history[1].BidAmount)

	item, ok, err := s.ItemByID(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 15.0, item.CurrentBid)
	assert.True(t, item.UpdatedAt.Equal(clock.Now()))
	assert.True(t, item.CreatedAt.Equal(created))
}

func TestUpsertItemKeepsStoredValues(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	end := time.Date(2024, 5, 3, 18, 0, 0, 0, time.UTC)

	id, err := s.UpsertItem(ctx, model.ItemRecord{
		ExternalID:  "7",
		Title:       "Lot #7 - Pearl Necklace",
		Description: "Strand of pearls",
		Category:    "gems",
		Condition:   "good",
		CurrentBid:  30,
		AuctionEnd:  &end,
		URL:         "https://auctions.example.com/item/7",
	})
	require.NoError(t, err)

	_, err = s.UpsertItem(ctx, model.ItemRecord{
		ExternalID: "7",
		Title:      "Lot #7 - Pearl Necklace (Updated)",
		CurrentBid: 0,
	})
	require.NoError(t, err)

	item, ok, err := s.ItemByExternalID(ctx, "7")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, id, item.ID)
	assert.Equal(t, "Lot #7 - Pearl Necklace (Updated)", item.Title)
	assert.Equal(t, "Strand of pearls", item.Description)
	assert.Equal(t, "gems", item.Category)
	assert.Equal(t, "good", item.Condition)
	assert.Equal(t, 30.0, item.CurrentBid)
	require.NotNil(t, item.AuctionEnd)
	assert.True(t, item.AuctionEnd.Equal(end))

	history, err := s.BidHistory(ctx, id)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestUpsertItemValidation(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.UpsertItem(context.Background(), model.ItemRecord{Title: "Lot #1 - Lamp"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = s.UpsertItem(context.Background(), model.ItemRecord{ExternalID: "1", Title: "Lot #1 - Lamp", CurrentBid: -1})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestItemLookupAbsent(t *testing.T) {
	s, _ := newTestStore(t)

	_, ok, err := s.ItemByID(context.Background(), 99)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.ItemByExternalID(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveAnalysisOncePerDay(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	id := addItem(t, s, "1", "Lot #1 - Lamp", 10, nil)

	addAnalysis(t, s, id, 40)
	clock.Advance(3 * time.Hour)
	addAnalysis(t, s, id, 60)

	analyses, err := s.Analyses(ctx, id)
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, 60.0, analyses[0].ProfitMargin)
	assert.True(t, analyses[0].AnalysisDate.Equal(clock.Now()))

	clock.Advance(24 * time.Hour)
	addAnalysis(t, s, id, 70)

	analyses, err = s.Analyses(ctx, id)
	require.NoError(t, err)
	require.Len(t, analyses, 2)
	assert.Equal(t, 70.0, analyses[0].ProfitMargin)
}

func TestMarkExpiredItems(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	now := clock.Now()

	addItem(t, s, "past", "Lot #1 - Ended", 10, ptrTime(now.Add(-time.Hour)))
	addItem(t, s, "future", "Lot #2 - Running", 10, ptrTime(now.Add(time.Hour)))
	addItem(t, s, "unknown", "Lot #3 - No End", 10, nil)

	items, err := s.ActiveItems(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, items, 3, "expired items stay active until the sweep runs")

	n, err := s.MarkExpiredItems(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	items, err = s.ActiveItems(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	for _, it := range items {
		assert.NotEqual(t, "past", it.ExternalID)
	}

	n, err = s.MarkExpiredItems(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestActiveItemsNewestFirstWithLimit(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	addItem(t, s, "1", "Lot #1 - First", 1, nil)
	clock.Advance(time.Second)
	addItem(t, s, "2", "Lot #2 - Second", 1, nil)
	clock.Advance(time.Second)
	addItem(t, s, "3", "Lot #3 - Third", 1, nil)

	items, err := s.ActiveItems(ctx, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "3", items[0].ExternalID)
	assert.Equal(t, "2", items[1].ExternalID)
}

func TestUrgentItemsSoonestFirst(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	now := clock.Now()

	later := addItem(t, s, "later", "Lot #1 - Ends Later", 10, ptrTime(now.Add(20*time.Hour)))
	sooner := addItem(t, s, "sooner", "Lot #2 - Ends Sooner", 10, ptrTime(now.Add(5*time.Hour)))
	outside := addItem(t, s, "outside", "Lot #3 - Ends Next Week", 10, ptrTime(now.Add(30*time.Hour)))
	thin := addItem(t, s, "thin", "Lot #4 - Thin Margin", 10, ptrTime(now.Add(2*time.Hour)))
	unknown := addItem(t, s, "unknown", "Lot #5 - No End", 10, nil)

	addAnalysis(t, s, later, 60)
	addAnalysis(t, s, sooner, 60)
	addAnalysis(t, s, outside, 60)
	addAnalysis(t, s, thin, 30)
	addAnalysis(t, s, unknown, 90)

	urgent, err := s.UrgentItems(ctx, 50, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, urgent, 2)
	assert.Equal(t, sooner, urgent[0].Item.ID)
	assert.Equal(t, later, urgent[1].Item.ID)
	assert.InDelta(t, 5.0, urgent[0].HoursRemaining, 0.01)
	assert.InDelta(t, 20.0, urgent[1].HoursRemaining, 0.01)
	assert.Equal(t, 60.0, urgent[0].Analysis.ProfitMargin)
}

func TestUndervaluedItemsMarginBoundary(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	below := addItem(t, s, "below", "Lot #1 - Below", 10, nil)
	exact := addItem(t, s, "exact", "Lot #2 - Exact", 10, nil)
	high := addItem(t, s, "high", "Lot #3 - High", 10, nil)
	stale := addItem(t, s, "stale", "Lot #4 - Stale", 10, nil)

	addAnalysis(t, s, stale, 90)
	clock.Advance(24 * time.Hour)
	addAnalysis(t, s, stale, 10)
	addAnalysis(t, s, below, 49.9)
	addAnalysis(t, s, exact, 50.0)
	addAnalysis(t, s, high, 80)

	got, err := s.UndervaluedItems(ctx, 50)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, high, got[0].Item.ID)
	assert.Equal(t, exact, got[1].Item.ID)
	assert.Equal(t, 50.0, got[1].Analysis.ProfitMargin)
}

func TestUndervaluedItemsUseUnroundedMargin(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	id := addItem(t, s, "near", "Lot #5 - Near Miss", 5000.40, nil)

	_, err := s.SaveAnalysis(ctx, model.ProfitAnalysis{
		ItemID:          id,
		EstimatedValue:  10000,
		CurrentBid:      5000.40,
		PotentialProfit: 4999.60,
		NetProfit:       3624.25,
		ProfitMargin:    49.996,
		Recommendation:  model.RecommendWatch,
	})
	require.NoError(t, err)

	got, err := s.UndervaluedItems(ctx, 50)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.UndervaluedItems(ctx, 49.99)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 49.996, got[0].Analysis.ProfitMargin, 1e-9)
	assert.InDelta(t, 3624.25, got[0].Analysis.NetProfit, 1e-9)
}

func TestItemsByKeywords(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	addItem(t, s, "1", "Lot #1 - Sterling Silver Spoon", 10, nil)
	addItem(t, s, "2", "Lot #2 - Oak Table", 10, nil)
	addItem(t, s, "3", "Lot #3 - 100% Wool Rug", 10, nil)

	got, err := s.ItemsByKeywords(ctx, []string{"SILVER"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ExternalID)

	got, err = s.ItemsByKeywords(ctx, []string{"oak", " spoon "})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.ItemsByKeywords(ctx, []string{"100%"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "3", got[0].ExternalID)

	got, err = s.ItemsByKeywords(ctx, []string{"0%W"})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.ItemsByKeywords(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWatchlist(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	maxBid := 150.0

	first, err := s.AddWatch(ctx, model.Watch{Keyword: " rolex ", MinProfitThreshold: 100, MaxBidAmount: &maxBid})
	require.NoError(t, err)
	second, err := s.AddWatch(ctx, model.Watch{Keyword: "leica", Category: "cameras"})
	require.NoError(t, err)

	ok, err := s.SetWatchActive(ctx, second, false)
	require.NoError(t, err)
	assert.True(t, ok)

	active, err := s.Watchlist(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, first, active[0].ID)
	assert.Equal(t, "rolex", active[0].Keyword)
	require.NotNil(t, active[0].MaxBidAmount)
	assert.Equal(t, 150.0, *active[0].MaxBidAmount)

	all, err := s.Watchlist(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.False(t, all[1].Active)
	assert.Nil(t, all[1].MaxBidAmount)
	assert.Equal(t, "cameras", all[1].Category)

	_, err = s.AddWatch(ctx, model.Watch{Keyword: "  "})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	ok, err = s.SetWatchActive(ctx, 999, true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessions(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	first, err := s.CreateSession(ctx)
	require.NoError(t, err)

	session, ok, err := s.Session(ctx, first)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.SessionRunning, session.Status)
	assert.Nil(t, session.EndedAt)

	clock.Advance(time.Minute)
	ended := clock.Now()
	found, flagged := 12, 3
	status := model.SessionCompleted
	require.NoError(t, s.UpdateSession(ctx, first, model.SessionUpdate{
		EndedAt:      &ended,
		ItemsFound:   &found,
		ItemsFlagged: &flagged,
		Status:       &status,
	}))

	session, _, err = s.Session(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, session.Status)
	assert.Equal(t, 12, session.ItemsFound)
	assert.Equal(t, 3, session.ItemsFlagged)
	require.NotNil(t, session.EndedAt)
	assert.True(t, session.EndedAt.Equal(ended))

	second, err := s.CreateSession(ctx)
	require.NoError(t, err)
	msg := "no auction groups found"
	failed := model.SessionFailed
	require.NoError(t, s.UpdateSession(ctx, second, model.SessionUpdate{Status: &failed, ErrorMessage: &msg}))

	recent, err := s.RecentSessions(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, second, recent[0].ID)
	assert.Equal(t, msg, recent[0].ErrorMessage)

	err = s.UpdateSession(ctx, 999, model.SessionUpdate{Status: &failed})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePersistence))

	_, ok, err = s.Session(ctx, 999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "a = $1 AND b IN ($2, $3)", rebind("a = ? AND b IN (?, ?)"))
	assert.Equal(t, "SELECT 1", rebind("SELECT 1"))
}
