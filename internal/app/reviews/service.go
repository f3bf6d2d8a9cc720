// Package reviews handles review submission and the derived-rating
// recomputation that follows every review mutation.
package reviews

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"levelhub/internal/store"
)

// MinimumSample is the review count below which derived level scores are not
// recomputed; a smaller sample is too noisy to publish.
const MinimumSample = 20

// Store defines the persistence hooks for review workflows.
type Store interface {
	LevelByID(ctx context.Context, id int64) (store.Level, error)
	ReviewByUser(ctx context.Context, levelID, userID int64) (store.Review, error)
	UpsertReview(ctx context.Context, r store.Review) error
	DeleteReview(ctx context.Context, levelID, userID int64) error
	LevelReviewStats(ctx context.Context, levelID int64) (store.ReviewStats, error)
	UpdateLevelRatings(ctx context.Context, levelID int64, stats store.ReviewStats) error
}

// Submission is the caller-provided payload for creating or replacing a
// review.
type Submission struct {
	RatingOverall    int    `json:"ratingOverall" validate:"min=0,max=10"`
	RatingGameplay   int    `json:"ratingGameplay" validate:"min=0,max=10"`
	RatingVisuals    int    `json:"ratingVisuals" validate:"min=0,max=10"`
	RatingDifficulty int    `json:"ratingDifficulty" validate:"min=0,max=10"`
	Commentary       string `json:"commentary" validate:"max=4000"`
}

// Service coordinates review mutations. Every successful mutation leaves the
// level's derived scores consistent with its review set.
type Service interface {
	Submit(ctx context.Context, callerID, levelID int64, sub Submission) (store.Review, error)
	Delete(ctx context.Context, callerID, levelID int64) error
}

type service struct {
	store    Store
	validate *validator.Validate
	locks    *keyedMutex
}

// New constructs a review Service backed by the given Store.
func New(store Store) Service {
	return &service{
		store:    store,
		validate: validator.New(),
		locks:    newKeyedMutex(),
	}
}

// Submit creates the caller's review on a level or replaces an existing one,
// then recomputes the level's derived scores.
func (s *service) Submit(ctx context.Context, callerID, levelID int64, sub Submission) (store.Review, error) {
	if err := s.validate.StructCtx(ctx, sub); err != nil {
		return store.Review{}, fmt.Errorf("validate review: %w", err)
	}

	if _, err := s.store.LevelByID(ctx, levelID); err != nil {
		return store.Review{}, err
	}

	unlock := s.locks.lock(levelID)
	defer unlock()

	err := s.store.UpsertReview(ctx, store.Review{
		LevelID:          levelID,
		UserID:           callerID,
		RatingOverall:    sub.RatingOverall,
		RatingGameplay:   sub.RatingGameplay,
		RatingVisuals:    sub.RatingVisuals,
		RatingDifficulty: sub.RatingDifficulty,
		Commentary:       sub.Commentary,
	})
	if err != nil {
		return store.Review{}, err
	}

	if err := s.recomputeLocked(ctx, levelID); err != nil {
		return store.Review{}, err
	}

	return s.store.ReviewByUser(ctx, levelID, callerID)
}

// Delete removes the caller's review from a level and recomputes the level's
// derived scores.
func (s *service) Delete(ctx context.Context, callerID, levelID int64) error {
	unlock := s.locks.lock(levelID)
	defer unlock()

	if err := s.store.DeleteReview(ctx, levelID, callerID); err != nil {
		return err
	}
	return s.recomputeLocked(ctx, levelID)
}

// recomputeLocked rereads the level's review aggregate and writes the
// derived scores. Callers must hold the level's lock: two interleaved
// recomputations could both read an equally stale review set and silently
// drop one contribution from the visible average.
//
// Below MinimumSample the stored scores are left untouched; each derived
// score is the plain arithmetic mean of its sub-score, and overall is
// averaged from per-review overall ratings rather than from the sub-means.
func (s *service) recomputeLocked(ctx context.Context, levelID int64) error {
	stats, err := s.store.LevelReviewStats(ctx, levelID)
	if err != nil {
		return err
	}
	if stats.Count < MinimumSample {
		return nil
	}
	return s.store.UpdateLevelRatings(ctx, levelID, stats)
}
