// Package catalog resolves untrusted browse parameters and composes level
// listing and detail reads.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"levelhub/internal/store"
)

// pageSize is the fixed listing and review page size.
const pageSize = 10

// recentLimit is the fixed size of the recent-activity feed.
const recentLimit = 10

// Caller identifies the authenticated requester. The zero value means
// anonymous; it is threaded explicitly through every call instead of being
// read from ambient state.
type Caller struct {
	ID   int64
	Name string
}

// Anonymous reports whether no authenticated user is present.
func (c Caller) Anonymous() bool { return c.ID == 0 }

// Store defines the persistence reads the catalog needs.
type Store interface {
	ListLevels(ctx context.Context, q store.LevelQuery) (store.LevelPage, error)
	LevelByID(ctx context.Context, id int64) (store.Level, error)
	RandomLevelID(ctx context.Context) (int64, error)
	ReviewsForLevel(ctx context.Context, levelID int64, page, perPage int) (store.ReviewPage, error)
	ReviewByUser(ctx context.Context, levelID, userID int64) (store.Review, error)
	RecentReviews(ctx context.Context, limit int) ([]store.RecentReview, error)
	ReplaysForLevel(ctx context.Context, levelID int64) ([]store.ReplayWithFiles, error)
}

// TokenEncoder mints opaque download tokens for media ids.
type TokenEncoder interface {
	Encode(assetID, slot int64) (string, error)
}

// BrowseResult is one listing response: a page of levels, the echoed sort
// parameters for link construction, and the recent-activity feed.
type BrowseResult struct {
	Levels  store.LevelPage      `json:"levels"`
	Filters SortDescriptor       `json:"filters"`
	Recent  []store.RecentReview `json:"recentReviews"`
}

// LevelDetail is one level page: the level, a page of its reviews, the
// caller's own review if any, and replays with tokenized download URLs.
type LevelDetail struct {
	Level     store.Level             `json:"level"`
	Reviews   store.ReviewPage        `json:"reviews"`
	OwnReview *store.Review           `json:"ownReview,omitempty"`
	Replays   []store.ReplayWithFiles `json:"replays"`
}

// Service composes catalog reads.
type Service interface {
	Browse(ctx context.Context, caller Caller, sort SortDescriptor, page int) (BrowseResult, error)
	Level(ctx context.Context, caller Caller, id int64, reviewPage int) (LevelDetail, error)
	RandomLevelID(ctx context.Context) (int64, error)
}

type service struct {
	store  Store
	tokens TokenEncoder
}

// New wires a catalog Service backed by the given Store and token encoder.
func New(store Store, tokens TokenEncoder) Service {
	return &service{store: store, tokens: tokens}
}

// Browse runs the page query and the recent-review feed concurrently; both
// are independent reads.
func (s *service) Browse(ctx context.Context, caller Caller, sort SortDescriptor, page int) (BrowseResult, error) {
	if page < 1 {
		page = 1
	}

	query := store.LevelQuery{
		Column:     sort.Column(),
		Descending: sort.Descending(),
		Filter:     sort.FilterMode(caller),
		CallerID:   caller.ID,
		Page:       page,
		PerPage:    pageSize,
	}

	result := BrowseResult{Filters: sort}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		levels, err := s.store.ListLevels(gctx, query)
		if err != nil {
			return err
		}
		result.Levels = levels
		return nil
	})
	g.Go(func() error {
		recent, err := s.store.RecentReviews(gctx, recentLimit)
		if err != nil {
			return err
		}
		result.Recent = recent
		return nil
	})
	if err := g.Wait(); err != nil {
		return BrowseResult{}, err
	}

	return result, nil
}

func (s *service) Level(ctx context.Context, caller Caller, id int64, reviewPage int) (LevelDetail, error) {
	level, err := s.store.LevelByID(ctx, id)
	if err != nil {
		return LevelDetail{}, err
	}

	reviews, err := s.store.ReviewsForLevel(ctx, id, reviewPage, pageSize)
	if err != nil {
		return LevelDetail{}, err
	}

	detail := LevelDetail{Level: level, Reviews: reviews}

	if !caller.Anonymous() {
		own, err := s.store.ReviewByUser(ctx, id, caller.ID)
		switch {
		case err == nil:
			detail.OwnReview = &own
		case errors.Is(err, store.ErrReviewNotFound):
			// nothing to annotate
		default:
			return LevelDetail{}, err
		}
	}

	replays, err := s.store.ReplaysForLevel(ctx, id)
	if err != nil {
		return LevelDetail{}, err
	}
	for ri := range replays {
		for fi := range replays[ri].Files {
			media := &replays[ri].Files[fi]
			token, err := s.tokens.Encode(media.ID, 0)
			if err != nil {
				return LevelDetail{}, fmt.Errorf("mint download token: %w", err)
			}
			media.DownloadURL = "/download/" + token
		}
	}
	detail.Replays = replays

	return detail, nil
}

func (s *service) RandomLevelID(ctx context.Context) (int64, error) {
	return s.store.RandomLevelID(ctx)
}
