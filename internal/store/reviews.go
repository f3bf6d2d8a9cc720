package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Review is one user's scored evaluation of one level. Sub-scores are whole
// numbers 0..10; the unique (level_id, user_id) index limits each user to a
// single review per level.
type Review struct {
	ID               int64     `json:"id"`
	LevelID          int64     `json:"levelId"`
	UserID           int64     `json:"userId"`
	RatingOverall    int       `json:"ratingOverall"`
	RatingGameplay   int       `json:"ratingGameplay"`
	RatingVisuals    int       `json:"ratingVisuals"`
	RatingDifficulty int       `json:"ratingDifficulty"`
	Commentary       string    `json:"commentary,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ReviewDetail pairs a review with its author's display name.
type ReviewDetail struct {
	Review
	Author string `json:"author"`
}

// ReviewPage is one page of a level's reviews.
type ReviewPage struct {
	Reviews []ReviewDetail `json:"reviews"`
	Total   int            `json:"total"`
	Page    int            `json:"page"`
	PerPage int            `json:"perPage"`
}

// RecentReview is one entry of the recent-activity feed.
type RecentReview struct {
	Review
	Author    string `json:"author"`
	LevelName string `json:"levelName"`
}

// ReviewStats is the aggregate of a level's reviews in one pass.
type ReviewStats struct {
	Count         int
	AvgOverall    float64
	AvgGameplay   float64
	AvgVisuals    float64
	AvgDifficulty float64
}

// ReviewByUser fetches the review a user left on a level, if any.
func (s *Store) ReviewByUser(ctx context.Context, levelID, userID int64) (Review, error) {
	var r Review
	err := s.db.QueryRowContext(ctx, `
		SELECT id, level_id, user_id, rating_overall, rating_gameplay,
			rating_visuals, rating_difficulty, commentary, created_at
		FROM reviews
		WHERE level_id = $1 AND user_id = $2
	`, levelID, userID).Scan(
		&r.ID, &r.LevelID, &r.UserID, &r.RatingOverall, &r.RatingGameplay,
		&r.RatingVisuals, &r.RatingDifficulty, &r.Commentary, &r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Review{}, ErrReviewNotFound
		}
		return Review{}, fmt.Errorf("lookup review: %w", err)
	}
	return r, nil
}

// UpsertReview inserts the user's review for a level or replaces the scores
// and commentary of an existing one. The original creation time is kept on
// replace so the recent feed is not resurfaced by edits.
func (s *Store) UpsertReview(ctx context.Context, r Review) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (level_id, user_id, rating_overall, rating_gameplay,
			rating_visuals, rating_difficulty, commentary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (level_id, user_id) DO UPDATE SET
			rating_overall = EXCLUDED.rating_overall,
			rating_gameplay = EXCLUDED.rating_gameplay,
			rating_visuals = EXCLUDED.rating_visuals,
			rating_difficulty = EXCLUDED.rating_difficulty,
			commentary = EXCLUDED.commentary
	`, r.LevelID, r.UserID, r.RatingOverall, r.RatingGameplay,
		r.RatingVisuals, r.RatingDifficulty, r.Commentary)
	if err != nil {
		return fmt.Errorf("upsert review: %w", err)
	}
	return nil
}

// DeleteReview removes the user's review from a level.
func (s *Store) DeleteReview(ctx context.Context, levelID, userID int64) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM reviews
		WHERE level_id = $1 AND user_id = $2
	`, levelID, userID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if affected == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// ReviewsForLevel lists a level's reviews newest first with author names.
func (s *Store) ReviewsForLevel(ctx context.Context, levelID int64, page, perPage int) (ReviewPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.level_id, r.user_id, r.rating_overall, r.rating_gameplay,
			r.rating_visuals, r.rating_difficulty, r.commentary, r.created_at,
			u.username,
			COUNT(*) OVER () AS total
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.level_id = $1
		ORDER BY r.created_at DESC, r.id ASC
		LIMIT $2 OFFSET $3
	`, levelID, perPage, (page-1)*perPage)
	if err != nil {
		return ReviewPage{}, fmt.Errorf("select reviews: %w", err)
	}
	defer rows.Close()

	result := ReviewPage{Page: page, PerPage: perPage}
	for rows.Next() {
		var d ReviewDetail
		if err := rows.Scan(
			&d.ID, &d.LevelID, &d.UserID, &d.RatingOverall, &d.RatingGameplay,
			&d.RatingVisuals, &d.RatingDifficulty, &d.Commentary, &d.CreatedAt,
			&d.Author, &result.Total,
		); err != nil {
			return ReviewPage{}, fmt.Errorf("scan review: %w", err)
		}
		result.Reviews = append(result.Reviews, d)
	}
	if err := rows.Err(); err != nil {
		return ReviewPage{}, fmt.Errorf("iterate reviews: %w", err)
	}

	return result, nil
}

// RecentReviews returns the newest reviews that carry commentary, paired
// with author and level names for the activity feed.
func (s *Store) RecentReviews(ctx context.Context, limit int) ([]RecentReview, error) {
	if limit < 1 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.level_id, r.user_id, r.rating_overall, r.rating_gameplay,
			r.rating_visuals, r.rating_difficulty, r.commentary, r.created_at,
			u.username, l.name
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		JOIN levels l ON l.id = r.level_id
		WHERE r.commentary <> ''
		ORDER BY r.created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("select recent reviews: %w", err)
	}
	defer rows.Close()

	var recent []RecentReview
	for rows.Next() {
		var rr RecentReview
		if err := rows.Scan(
			&rr.ID, &rr.LevelID, &rr.UserID, &rr.RatingOverall, &rr.RatingGameplay,
			&rr.RatingVisuals, &rr.RatingDifficulty, &rr.Commentary, &rr.CreatedAt,
			&rr.Author, &rr.LevelName,
		); err != nil {
			return nil, fmt.Errorf("scan recent review: %w", err)
		}
		recent = append(recent, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent reviews: %w", err)
	}

	return recent, nil
}

// LevelReviewStats aggregates a level's reviews in one query. Averages are 0
// when the level has no reviews.
func (s *Store) LevelReviewStats(ctx context.Context, levelID int64) (ReviewStats, error) {
	var stats ReviewStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(AVG(rating_overall), 0),
			COALESCE(AVG(rating_gameplay), 0),
			COALESCE(AVG(rating_visuals), 0),
			COALESCE(AVG(rating_difficulty), 0)
		FROM reviews
		WHERE level_id = $1
	`, levelID).Scan(
		&stats.Count, &stats.AvgOverall, &stats.AvgGameplay,
		&stats.AvgVisuals, &stats.AvgDifficulty,
	)
	if err != nil {
		return ReviewStats{}, fmt.Errorf("aggregate reviews: %w", err)
	}
	return stats, nil
}

// UpdateLevelRatings writes a level's derived scores.
func (s *Store) UpdateLevelRatings(ctx context.Context, levelID int64, stats ReviewStats) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE levels
		SET rating_overall = $2,
			rating_gameplay = $3,
			rating_visuals = $4,
			rating_difficulty = $5
		WHERE id = $1
	`, levelID, stats.AvgOverall, stats.AvgGameplay, stats.AvgVisuals, stats.AvgDifficulty)
	if err != nil {
		return fmt.Errorf("update level ratings: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update level ratings: %w", err)
	}
	if affected == 0 {
		return ErrLevelNotFound
	}
	return nil
}
