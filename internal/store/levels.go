package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Level models a published level with its derived rating fields. The rating
// columns are written only by the review aggregation path and hold 0 until a
// level has enough reviews to average.
type Level struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	BannerURL        string    `json:"bannerUrl"`
	RatingOverall    float64   `json:"ratingOverall"`
	RatingGameplay   float64   `json:"ratingGameplay"`
	RatingVisuals    float64   `json:"ratingVisuals"`
	RatingDifficulty float64   `json:"ratingDifficulty"`
	ReviewsCount     int       `json:"reviewsCount"`
	CreatedAt        time.Time `json:"createdAt"`
}

// LevelRow is one listing entry: the level plus the caller's own review when
// a caller is known and has reviewed it.
type LevelRow struct {
	Level
	OwnReview *Review `json:"ownReview,omitempty"`
}

// LevelPage is one page of listing results.
type LevelPage struct {
	Levels  []LevelRow `json:"levels"`
	Total   int        `json:"total"`
	Page    int        `json:"page"`
	PerPage int        `json:"perPage"`
}

// SortColumn names a sortable levels attribute.
type SortColumn string

// The full set of sortable attributes. Anything else is rejected by
// ListLevels, so request text can never reach the ORDER BY clause.
const (
	SortByID          SortColumn = "id"
	SortByOverall     SortColumn = "rating_overall"
	SortByGameplay    SortColumn = "rating_gameplay"
	SortByVisuals     SortColumn = "rating_visuals"
	SortByDifficulty  SortColumn = "rating_difficulty"
	SortByReviewCount SortColumn = "reviews_count"
)

// sortColumns maps each SortColumn to the SQL expression it orders by.
// reviews_count is a computed alias, the rest are level columns.
var sortColumns = map[SortColumn]string{
	SortByID:          "l.id",
	SortByOverall:     "l.rating_overall",
	SortByGameplay:    "l.rating_gameplay",
	SortByVisuals:     "l.rating_visuals",
	SortByDifficulty:  "l.rating_difficulty",
	SortByReviewCount: "reviews_count",
}

// LevelFilter restricts a listing relative to the caller's reviews.
type LevelFilter int

const (
	// FilterAll applies no restriction.
	FilterAll LevelFilter = iota
	// FilterReviewedBy keeps only levels the caller has reviewed.
	FilterReviewedBy
	// FilterNotReviewedBy keeps only levels the caller has not reviewed.
	FilterNotReviewedBy
)

// LevelQuery describes one listing request. CallerID 0 means anonymous: the
// own-review annotation stays empty and Filter must be FilterAll.
type LevelQuery struct {
	Column     SortColumn
	Descending bool
	Filter     LevelFilter
	CallerID   int64
	Page       int
	PerPage    int
}

// ListLevels returns one page of levels ordered by the requested column with
// an id tie-break, so identical sort values keep a stable order across pages.
func (s *Store) ListLevels(ctx context.Context, q LevelQuery) (LevelPage, error) {
	orderExpr, ok := sortColumns[q.Column]
	if !ok {
		return LevelPage{}, fmt.Errorf("list levels: unknown sort column %q", q.Column)
	}
	direction := "ASC"
	if q.Descending {
		direction = "DESC"
	}

	var where string
	switch q.Filter {
	case FilterAll:
	case FilterReviewedBy:
		where = "WHERE own.id IS NOT NULL"
	case FilterNotReviewedBy:
		where = "WHERE own.id IS NULL"
	default:
		return LevelPage{}, fmt.Errorf("list levels: unknown filter %d", q.Filter)
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 10
	}
	offset := (q.Page - 1) * q.PerPage

	query := fmt.Sprintf(`
		SELECT l.id, l.name, l.description, l.banner_url,
			l.rating_overall, l.rating_gameplay, l.rating_visuals, l.rating_difficulty,
			(SELECT COUNT(*) FROM reviews rc WHERE rc.level_id = l.id) AS reviews_count,
			l.created_at,
			own.id AS own_id, own.rating_overall AS own_overall,
			own.rating_gameplay AS own_gameplay, own.rating_visuals AS own_visuals,
			own.rating_difficulty AS own_difficulty, own.commentary AS own_commentary,
			own.created_at AS own_created_at,
			COUNT(*) OVER () AS total
		FROM levels l
		LEFT JOIN reviews own ON own.level_id = l.id AND own.user_id = $1
		%s
		ORDER BY %s %s, l.id ASC
		LIMIT $2 OFFSET $3
	`, where, orderExpr, direction)

	rows, err := s.db.QueryContext(ctx, query, q.CallerID, q.PerPage, offset)
	if err != nil {
		return LevelPage{}, fmt.Errorf("select levels: %w", err)
	}
	defer rows.Close()

	page := LevelPage{Page: q.Page, PerPage: q.PerPage}
	for rows.Next() {
		var (
			row           LevelRow
			ownID         sql.NullInt64
			ownOverall    sql.NullInt64
			ownGameplay   sql.NullInt64
			ownVisuals    sql.NullInt64
			ownDifficulty sql.NullInt64
			ownCommentary sql.NullString
			ownCreatedAt  sql.NullTime
		)
		if err := rows.Scan(
			&row.ID, &row.Name, &row.Description, &row.BannerURL,
			&row.RatingOverall, &row.RatingGameplay, &row.RatingVisuals, &row.RatingDifficulty,
			&row.ReviewsCount, &row.CreatedAt,
			&ownID, &ownOverall, &ownGameplay, &ownVisuals, &ownDifficulty,
			&ownCommentary, &ownCreatedAt,
			&page.Total,
		); err != nil {
			return LevelPage{}, fmt.Errorf("scan level: %w", err)
		}
		if ownID.Valid {
			row.OwnReview = &Review{
				ID:               ownID.Int64,
				LevelID:          row.ID,
				UserID:           q.CallerID,
				RatingOverall:    int(ownOverall.Int64),
				RatingGameplay:   int(ownGameplay.Int64),
				RatingVisuals:    int(ownVisuals.Int64),
				RatingDifficulty: int(ownDifficulty.Int64),
				Commentary:       ownCommentary.String,
				CreatedAt:        ownCreatedAt.Time,
			}
		}
		page.Levels = append(page.Levels, row)
	}
	if err := rows.Err(); err != nil {
		return LevelPage{}, fmt.Errorf("iterate levels: %w", err)
	}

	return page, nil
}

// LevelByID fetches one level with its current review count.
func (s *Store) LevelByID(ctx context.Context, id int64) (Level, error) {
	var l Level
	err := s.db.QueryRowContext(ctx, `
		SELECT l.id, l.name, l.description, l.banner_url,
			l.rating_overall, l.rating_gameplay, l.rating_visuals, l.rating_difficulty,
			(SELECT COUNT(*) FROM reviews rc WHERE rc.level_id = l.id) AS reviews_count,
			l.created_at
		FROM levels l
		WHERE l.id = $1
	`, id).Scan(
		&l.ID, &l.Name, &l.Description, &l.BannerURL,
		&l.RatingOverall, &l.RatingGameplay, &l.RatingVisuals, &l.RatingDifficulty,
		&l.ReviewsCount, &l.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Level{}, ErrLevelNotFound
		}
		return Level{}, fmt.Errorf("lookup level: %w", err)
	}
	return l, nil
}

// RandomLevelID picks one level at random.
func (s *Store) RandomLevelID(ctx context.Context) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM levels ORDER BY random() LIMIT 1
	`).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrLevelNotFound
		}
		return 0, fmt.Errorf("pick random level: %w", err)
	}
	return id, nil
}
