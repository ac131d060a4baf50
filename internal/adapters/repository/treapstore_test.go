package repository

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"testing"
)

func TestTreapStore_BasicOperations(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	changed, err := store.Upsert(ctx, "site-1", 85, "A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Error("expected first upsert to change the ranking")
	}

	entry, err := store.Rank(ctx, "site-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Rank != 1 || entry.Score != 85 || entry.Grade != "A" {
		t.Errorf("unexpected entry %+v", entry)
	}

	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].SiteID != "site-1" {
		t.Errorf("unexpected top entries %+v", entries)
	}
}

func TestTreapStore_UpsertOverwritesLowerScores(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	_, _ = store.Upsert(ctx, "site-1", 80, "B")
	_, _ = store.Upsert(ctx, "site-2", 60, "C")

	// A recalculation that lowers the score still replaces it.
	changed, err := store.Upsert(ctx, "site-1", 50, "D")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Error("expected lower score to be stored")
	}

	entries, _ := store.TopN(ctx, 10)
	if entries[0].SiteID != "site-2" || entries[1].SiteID != "site-1" {
		t.Errorf("expected site-2 before site-1, got %+v", entries)
	}
	if entries[1].Score != 50 || entries[1].Grade != "D" {
		t.Errorf("expected overwritten score, got %+v", entries[1])
	}
	if store.Count(ctx) != 2 {
		t.Errorf("expected count 2, got %d", store.Count(ctx))
	}

	changed, _ = store.Upsert(ctx, "site-1", 50, "D")
	if changed {
		t.Error("expected identical upsert to report no change")
	}
}

func TestTreapStore_TieBreakingAndDenseRanks(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	_, _ = store.Upsert(ctx, "charlie", 70, "B")
	_, _ = store.Upsert(ctx, "alpha", 70, "B")
	_, _ = store.Upsert(ctx, "bravo", 90, "A")
	_, _ = store.Upsert(ctx, "delta", 40, "D")

	entries, err := store.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Entry{
		{Rank: 1, SiteID: "bravo", Score: 90, Grade: "A"},
		{Rank: 2, SiteID: "alpha", Score: 70, Grade: "B"},
		{Rank: 2, SiteID: "charlie", Score: 70, Grade: "B"},
		{Rank: 3, SiteID: "delta", Score: 40, Grade: "D"},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d: expected %+v, got %+v", i, want[i], entries[i])
		}
	}

	for _, w := range want {
		got, err := store.Rank(ctx, w.SiteID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Rank != w.Rank {
			t.Errorf("%s: expected rank %d, got %d", w.SiteID, w.Rank, got.Rank)
		}
	}
}

func TestTreapStore_EdgeCases(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	if _, err := store.Rank(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.TopN(ctx, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}

	entries, err := store.TopN(ctx, 5)
	if err != nil || len(entries) != 0 {
		t.Errorf("expected empty ranking, got %v, %v", entries, err)
	}

	_, _ = store.Upsert(ctx, "a", 10, "F")
	_, _ = store.Upsert(ctx, "b", 20, "F")
	entries, _ = store.TopN(ctx, 1)
	if len(entries) != 1 || entries[0].SiteID != "b" {
		t.Errorf("expected only b, got %+v", entries)
	}
}

func TestTreapStore_RankCorrectnessUnderChurn(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()
	rng := rand.New(rand.NewSource(42))

	latest := make(map[string]int)
	for i := 0; i < 5000; i++ {
		id := fmt.Sprintf("site-%03d", rng.Intn(500))
		score := rng.Intn(101)
		latest[id] = score
		_, _ = store.Upsert(ctx, id, score, "X")
	}

	type row struct {
		id    string
		score int
	}
	rows := make([]row, 0, len(latest))
	for id, s := range latest {
		rows = append(rows, row{id, s})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].score != rows[j].score {
			return rows[i].score > rows[j].score
		}
		return rows[i].id < rows[j].id
	})

	entries, err := store.TopN(ctx, len(rows))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != len(rows) {
		t.Fatalf("expected %d entries, got %d", len(rows), len(entries))
	}
	for i, r := range rows {
		if entries[i].SiteID != r.id || entries[i].Score != r.score {
			t.Fatalf("position %d: expected %s/%d, got %s/%d", i, r.id, r.score, entries[i].SiteID, entries[i].Score)
		}
		got, _ := store.Rank(ctx, r.id)
		if got.Rank != entries[i].Rank {
			t.Fatalf("%s: Rank %d disagrees with TopN rank %d", r.id, got.Rank, entries[i].Rank)
		}
	}
}

func TestTreapStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewTreapStore()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := fmt.Sprintf("site-%d-%d", g, i)
				_, _ = store.Upsert(ctx, id, i%101, "C")
				_, _ = store.Rank(ctx, id)
				_, _ = store.TopN(ctx, 10)
			}
		}(g)
	}
	wg.Wait()

	if count := store.Count(ctx); count != 1600 {
		t.Errorf("expected 1600 sites, got %d", count)
	}
}

func BenchmarkTreapStore_Upsert(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore()
	ids := make([]string, 10000)
	for i := range ids {
		ids[i] = fmt.Sprintf("site-%d", i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Upsert(ctx, ids[i%len(ids)], i%101, "C")
	}
}

func BenchmarkTreapStore_TopN(b *testing.B) {
	ctx := context.Background()
	store := NewTreapStore()
	for i := 0; i < 10000; i++ {
		_, _ = store.Upsert(ctx, fmt.Sprintf("site-%d", i), i%101, "C")
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.TopN(ctx, 100)
	}
}
