package sqlite_test

import (
	"context"
	"math"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/tokenmeter/tokenmeter/adapters/sqlite"
	"github.com/tokenmeter/tokenmeter/domain/usage"
)

func setupTestDB(t *testing.T) (*sqlite.DB, func()) {
	t.Helper()

	// Create temp file for test database
	f, err := os.CreateTemp("", "tokenmeter-test-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	path := f.Name()
	f.Close()

	db, err := sqlite.Open(path)
	if err != nil {
		os.Remove(path)
		t.Fatalf("open database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		os.Remove(path)
		t.Fatalf("migrate: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(path)
	}

	return db, cleanup
}

func event(id, sessionID string, ts time.Time, in, out int64, cost float64) usage.Event {
	return usage.Event{
		ID:           id,
		Timestamp:    ts,
		SessionID:    sessionID,
		Model:        "claude-sonnet-4-5-20250514",
		InputTokens:  in,
		OutputTokens: out,
		CostUSD:      cost,
		Source:       usage.SourceEstimate,
	}
}

func TestUsageStore_RecordAndAggregate(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUsageStore(db)
	ctx := context.Background()
	day := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	if err := store.Record(ctx, event("ev-1", "s1", day, 1000, 500, 0.01)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.Record(ctx, event("ev-2", "s1", day.Add(time.Hour), 2000, 1000, 0.02)); err != nil {
		t.Fatalf("record: %v", err)
	}

	agg, err := store.Aggregate(ctx, "2026-03-15")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.InputTokens != 3000 || agg.OutputTokens != 1500 {
		t.Errorf("tokens = %d/%d, want 3000/1500", agg.InputTokens, agg.OutputTokens)
	}
	if math.Abs(agg.CostUSD-0.03) > 1e-9 {
		t.Errorf("CostUSD = %v, want 0.03", agg.CostUSD)
	}
	if agg.RequestCount != 2 {
		t.Errorf("RequestCount = %d, want 2", agg.RequestCount)
	}
}

func TestUsageStore_AggregateMatchesEventSum(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUsageStore(db)
	ctx := context.Background()
	day := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	var want usage.DailyAggregate
	for i := 0; i < 20; i++ {
		e := event("ev-"+strconv.Itoa(i), "s1", day.Add(time.Duration(i)*time.Minute), int64(100*i), int64(10*i), float64(i)*0.001)
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		want = want.Add(e)
	}

	got, err := store.Aggregate(ctx, "2026-03-15")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if got.InputTokens != want.InputTokens || got.OutputTokens != want.OutputTokens {
		t.Errorf("tokens = %d/%d, want %d/%d", got.InputTokens, got.OutputTokens, want.InputTokens, want.OutputTokens)
	}
	if got.RequestCount != want.RequestCount {
		t.Errorf("RequestCount = %d, want %d", got.RequestCount, want.RequestCount)
	}
	if math.Abs(got.CostUSD-want.CostUSD) > 1e-9 {
		t.Errorf("CostUSD = %v, want %v", got.CostUSD, want.CostUSD)
	}
}

func TestUsageStore_ConcurrentRecordsNoLostUpdates(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUsageStore(db)
	ctx := context.Background()
	day := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	const writers = 50
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := event("ev-"+strconv.Itoa(i), "s1", day.Add(time.Duration(i)*time.Second), 10, 1, 0.001)
			errs <- store.Record(ctx, e)
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got, err := store.Aggregate(ctx, "2026-03-15")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if got.RequestCount != writers {
		t.Errorf("RequestCount = %d, want %d", got.RequestCount, writers)
	}
	if got.InputTokens != 10*writers || got.OutputTokens != writers {
		t.Errorf("tokens = %d/%d, want %d/%d", got.InputTokens, got.OutputTokens, 10*writers, writers)
	}
	if math.Abs(got.CostUSD-0.001*writers) > 1e-9 {
		t.Errorf("CostUSD = %v, want %v", got.CostUSD, 0.001*writers)
	}
}

func TestUsageStore_AggregateEmptyDay(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUsageStore(db)

	agg, err := store.Aggregate(context.Background(), "2026-01-01")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.Date != "2026-01-01" {
		t.Errorf("Date = %q, want 2026-01-01", agg.Date)
	}
	if agg.RequestCount != 0 || agg.CostUSD != 0 {
		t.Errorf("expected zero aggregate, got %+v", agg)
	}
}

func TestUsageStore_DateBucketsAreUTC(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUsageStore(db)
	ctx := context.Background()

	// 01:00 UTC+3 on the 16th is 22:00 UTC on the 15th.
	loc := time.FixedZone("UTC+3", 3*3600)
	e := event("ev-tz", "s1", time.Date(2026, 3, 16, 1, 0, 0, 0, loc), 100, 50, 0.001)
	if err := store.Record(ctx, e); err != nil {
		t.Fatalf("record: %v", err)
	}

	agg, err := store.Aggregate(ctx, "2026-03-15")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.RequestCount != 1 {
		t.Errorf("event not bucketed into UTC date: %+v", agg)
	}
}

func TestUsageStore_History(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUsageStore(db)
	ctx := context.Background()

	days := []time.Time{
		time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
	}
	for i, d := range days {
		if err := store.Record(ctx, event("ev-"+strconv.Itoa(i), "s1", d, 100, 50, 0.001)); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	history, err := store.History(ctx, "2026-03-14")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d days, want 2", len(history))
	}
	if history[0].Date != "2026-03-15" || history[1].Date != "2026-03-14" {
		t.Errorf("wrong order: %s, %s", history[0].Date, history[1].Date)
	}
}

func TestUsageStore_HistoryEmpty(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUsageStore(db)

	history, err := store.History(context.Background(), "2026-01-01")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if history == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(history) != 0 {
		t.Errorf("got %d days, want 0", len(history))
	}
}

func TestUsageStore_CostSince(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUsageStore(db)
	ctx := context.Background()

	// One event in February, two in March.
	records := []struct {
		ts   time.Time
		cost float64
	}{
		{time.Date(2026, 2, 27, 12, 0, 0, 0, time.UTC), 1.5},
		{time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), 0.25},
		{time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC), 0.5},
	}
	for i, r := range records {
		e := event("ev", "s1", r.ts, 100, 50, r.cost)
		e.ID = e.ID + r.ts.Format("-01-02")
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	total, err := store.CostSince(ctx, "2026-03-01")
	if err != nil {
		t.Fatalf("cost since: %v", err)
	}
	if math.Abs(total-0.75) > 1e-9 {
		t.Errorf("total = %v, want 0.75", total)
	}

	total, err = store.CostSince(ctx, "2027-01-01")
	if err != nil {
		t.Fatalf("cost since: %v", err)
	}
	if total != 0 {
		t.Errorf("total = %v, want 0 for future date", total)
	}
}

func TestUsageStore_RecentEvents(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUsageStore(db)
	ctx := context.Background()
	base := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		e := event("ev", "s1", base.Add(time.Duration(i)*time.Minute), 100, 50, 0.001)
		e.ID = e.ID + "-" + string(rune('a'+i))
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	events, err := store.RecentEvents(ctx, 3)
	if err != nil {
		t.Fatalf("recent events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].ID != "ev-e" {
		t.Errorf("first event = %s, want newest ev-e", events[0].ID)
	}
	if !events[0].Timestamp.After(events[1].Timestamp) {
		t.Error("events not in descending timestamp order")
	}
}

func TestUsageStore_SessionEvents(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUsageStore(db)
	ctx := context.Background()
	base := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	if err := store.Record(ctx, event("ev-1", "session-a", base, 100, 50, 0.001)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.Record(ctx, event("ev-2", "session-b", base.Add(time.Minute), 100, 50, 0.001)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.Record(ctx, event("ev-3", "session-a", base.Add(2*time.Minute), 100, 50, 0.001)); err != nil {
		t.Fatalf("record: %v", err)
	}

	events, err := store.SessionEvents(ctx, "session-a")
	if err != nil {
		t.Fatalf("session events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].ID != "ev-1" || events[1].ID != "ev-3" {
		t.Errorf("wrong events or order: %s, %s", events[0].ID, events[1].ID)
	}
	if events[0].Source != usage.SourceEstimate {
		t.Errorf("Source = %v, want estimate", events[0].Source)
	}
}

func TestUsageStore_DuplicateIDRejected(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := sqlite.NewUsageStore(db)
	ctx := context.Background()
	ts := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	if err := store.Record(ctx, event("dup", "s1", ts, 100, 50, 0.001)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.Record(ctx, event("dup", "s1", ts, 100, 50, 0.001)); err == nil {
		t.Fatal("expected duplicate ID to fail")
	}

	// The failed insert must not have bumped the aggregate.
	agg, err := store.Aggregate(ctx, "2026-03-15")
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.RequestCount != 1 {
		t.Errorf("RequestCount = %d, want 1 after rolled-back duplicate", agg.RequestCount)
	}
}
