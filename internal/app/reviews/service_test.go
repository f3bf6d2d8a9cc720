package reviews

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"levelhub/internal/store"
)

// memStore keeps reviews in memory and mirrors the aggregate behaviour of
// the SQL store closely enough to exercise the recomputation rule.
type memStore struct {
	mu      sync.Mutex
	levels  map[int64]*store.Level
	reviews map[int64]map[int64]store.Review // level id -> user id -> review

	ratingWrites int
}

func newMemStore(levelIDs ...int64) *memStore {
	m := &memStore{
		levels:  make(map[int64]*store.Level),
		reviews: make(map[int64]map[int64]store.Review),
	}
	for _, id := range levelIDs {
		m.levels[id] = &store.Level{ID: id}
		m.reviews[id] = make(map[int64]store.Review)
	}
	return m
}

func (m *memStore) LevelByID(ctx context.Context, id int64) (store.Level, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	level, ok := m.levels[id]
	if !ok {
		return store.Level{}, store.ErrLevelNotFound
	}
	return *level, nil
}

func (m *memStore) ReviewByUser(ctx context.Context, levelID, userID int64) (store.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reviews[levelID][userID]
	if !ok {
		return store.Review{}, store.ErrReviewNotFound
	}
	return r, nil
}

func (m *memStore) UpsertReview(ctx context.Context, r store.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = int64(len(m.reviews[r.LevelID]) + 1)
	m.reviews[r.LevelID][r.UserID] = r
	return nil
}

func (m *memStore) DeleteReview(ctx context.Context, levelID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reviews[levelID][userID]; !ok {
		return store.ErrReviewNotFound
	}
	delete(m.reviews[levelID], userID)
	return nil
}

func (m *memStore) LevelReviewStats(ctx context.Context, levelID int64) (store.ReviewStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stats store.ReviewStats
	for _, r := range m.reviews[levelID] {
		stats.Count++
		stats.AvgOverall += float64(r.RatingOverall)
		stats.AvgGameplay += float64(r.RatingGameplay)
		stats.AvgVisuals += float64(r.RatingVisuals)
		stats.AvgDifficulty += float64(r.RatingDifficulty)
	}
	if stats.Count > 0 {
		n := float64(stats.Count)
		stats.AvgOverall /= n
		stats.AvgGameplay /= n
		stats.AvgVisuals /= n
		stats.AvgDifficulty /= n
	}
	return stats, nil
}

func (m *memStore) UpdateLevelRatings(ctx context.Context, levelID int64, stats store.ReviewStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	level, ok := m.levels[levelID]
	if !ok {
		return store.ErrLevelNotFound
	}
	level.RatingOverall = stats.AvgOverall
	level.RatingGameplay = stats.AvgGameplay
	level.RatingVisuals = stats.AvgVisuals
	level.RatingDifficulty = stats.AvgDifficulty
	m.ratingWrites++
	return nil
}

func (m *memStore) ratings(levelID int64) store.Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.levels[levelID]
}

func submission(overall int) Submission {
	return Submission{
		RatingOverall:    overall,
		RatingGameplay:   overall,
		RatingVisuals:    overall,
		RatingDifficulty: overall,
	}
}

func TestSubmitBelowThresholdLeavesRatingsUntouched(t *testing.T) {
	st := newMemStore(1)
	svc := New(st)

	for user := int64(1); user < MinimumSample; user++ {
		if _, err := svc.Submit(context.Background(), user, 1, submission(10)); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	level := st.ratings(1)
	if level.RatingOverall != 0 {
		t.Fatalf("overall = %v after %d reviews, want untouched 0", level.RatingOverall, MinimumSample-1)
	}
	if st.ratingWrites != 0 {
		t.Fatalf("rating writes = %d below threshold, want 0", st.ratingWrites)
	}
}

func TestTwentiethReviewSetsMean(t *testing.T) {
	st := newMemStore(1)
	svc := New(st)

	// 19 reviews with overall ratings summing to S.
	sum := 0
	for user := int64(1); user <= 19; user++ {
		overall := int(user % 11)
		sum += overall
		if _, err := svc.Submit(context.Background(), user, 1, submission(overall)); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	// The 20th review with rating r sets overall to (S + r) / 20.
	const r = 7
	if _, err := svc.Submit(context.Background(), 20, 1, submission(r)); err != nil {
		t.Fatalf("submit: %v", err)
	}

	want := float64(sum+r) / 20
	got := st.ratings(1).RatingOverall
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("overall = %v, want %v", got, want)
	}
}

func TestSubmitReplacesExistingReview(t *testing.T) {
	st := newMemStore(1)
	svc := New(st)

	for user := int64(1); user <= 20; user++ {
		if _, err := svc.Submit(context.Background(), user, 1, submission(5)); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	if got := st.ratings(1).RatingOverall; got != 5 {
		t.Fatalf("overall = %v, want 5", got)
	}

	// User 1 revises the score; count stays 20 and the mean follows.
	if _, err := svc.Submit(context.Background(), 1, 1, submission(10)); err != nil {
		t.Fatalf("resubmit: %v", err)
	}

	want := (5.0*19 + 10) / 20
	if got := st.ratings(1).RatingOverall; math.Abs(got-want) > 1e-9 {
		t.Fatalf("overall = %v, want %v", got, want)
	}
}

func TestDeleteRecomputes(t *testing.T) {
	st := newMemStore(1)
	svc := New(st)

	for user := int64(1); user <= 21; user++ {
		if _, err := svc.Submit(context.Background(), user, 1, submission(6)); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	writes := st.ratingWrites
	if err := svc.Delete(context.Background(), 21, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if st.ratingWrites != writes+1 {
		t.Fatal("delete did not recompute ratings")
	}
}

func TestDeleteMissingReview(t *testing.T) {
	svc := New(newMemStore(1))

	if err := svc.Delete(context.Background(), 9, 1); !errors.Is(err, store.ErrReviewNotFound) {
		t.Fatalf("error = %v, want ErrReviewNotFound", err)
	}
}

func TestSubmitUnknownLevel(t *testing.T) {
	svc := New(newMemStore(1))

	if _, err := svc.Submit(context.Background(), 1, 99, submission(5)); !errors.Is(err, store.ErrLevelNotFound) {
		t.Fatalf("error = %v, want ErrLevelNotFound", err)
	}
}

func TestSubmitValidation(t *testing.T) {
	svc := New(newMemStore(1))

	tests := []Submission{
		{RatingOverall: 11},
		{RatingGameplay: -1},
		{RatingVisuals: 99},
	}
	for _, sub := range tests {
		if _, err := svc.Submit(context.Background(), 1, 1, sub); err == nil {
			t.Fatalf("submission %+v passed validation", sub)
		}
	}
}

func TestSubmitReturnsStoredReview(t *testing.T) {
	svc := New(newMemStore(1))

	review, err := svc.Submit(context.Background(), 3, 1, Submission{
		RatingOverall: 8, RatingGameplay: 7, RatingVisuals: 6, RatingDifficulty: 9,
		Commentary: "tight timings",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if review.UserID != 3 || review.LevelID != 1 || review.RatingOverall != 8 {
		t.Fatalf("returned review = %+v", review)
	}
}

func TestConcurrentSubmitsStayConsistent(t *testing.T) {
	st := newMemStore(1)
	svc := New(st)

	const users = 40
	var wg sync.WaitGroup
	for user := int64(1); user <= users; user++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			if _, err := svc.Submit(context.Background(), user, 1, submission(4)); err != nil {
				t.Errorf("submit: %v", err)
			}
		}(user)
	}
	wg.Wait()

	// After all 40 identical reviews land, the mean must reflect every one
	// of them regardless of interleaving.
	if got := st.ratings(1).RatingOverall; got != 4 {
		t.Fatalf("overall = %v, want 4", got)
	}
	stats, err := st.LevelReviewStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Count != users {
		t.Fatalf("count = %d, want %d", stats.Count, users)
	}
}
