package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Replay is a recorded playthrough attached to a level.
type Replay struct {
	ID        int64     `json:"id"`
	LevelID   int64     `json:"levelId"`
	AuthorID  int64     `json:"authorId"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// Media is one binary file belonging to a replay. StorageKey addresses the
// blob in the object store and is never exposed to clients; download URLs
// carry an opaque token instead.
type Media struct {
	ID         int64     `json:"id"`
	ReplayID   int64     `json:"replayId"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	StorageKey string    `json:"-"`
	CreatedAt  time.Time `json:"createdAt"`

	// DownloadURL is filled in by the catalog service, not the store.
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// ReplayWithFiles is a replay plus its media files.
type ReplayWithFiles struct {
	Replay
	Files []Media `json:"files"`
}

// ReplaysForLevel lists a level's replays with their files and author names.
func (s *Store) ReplaysForLevel(ctx context.Context, levelID int64) ([]ReplayWithFiles, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rp.id, rp.level_id, rp.author_id, u.username, rp.created_at,
			m.id, m.name, m.size, m.storage_key, m.created_at
		FROM replays rp
		JOIN users u ON u.id = rp.author_id
		LEFT JOIN media m ON m.replay_id = rp.id
		WHERE rp.level_id = $1
		ORDER BY rp.id ASC, m.id ASC
	`, levelID)
	if err != nil {
		return nil, fmt.Errorf("select replays: %w", err)
	}
	defer rows.Close()

	var (
		replays []ReplayWithFiles
		current *ReplayWithFiles
	)
	for rows.Next() {
		var (
			rp           Replay
			mediaID      sql.NullInt64
			mediaName    sql.NullString
			mediaSize    sql.NullInt64
			mediaKey     sql.NullString
			mediaCreated sql.NullTime
		)
		if err := rows.Scan(
			&rp.ID, &rp.LevelID, &rp.AuthorID, &rp.Author, &rp.CreatedAt,
			&mediaID, &mediaName, &mediaSize, &mediaKey, &mediaCreated,
		); err != nil {
			return nil, fmt.Errorf("scan replay: %w", err)
		}

		if current == nil || current.ID != rp.ID {
			replays = append(replays, ReplayWithFiles{Replay: rp})
			current = &replays[len(replays)-1]
		}
		if mediaID.Valid {
			current.Files = append(current.Files, Media{
				ID:         mediaID.Int64,
				ReplayID:   rp.ID,
				Name:       mediaName.String,
				Size:       mediaSize.Int64,
				StorageKey: mediaKey.String,
				CreatedAt:  mediaCreated.Time,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate replays: %w", err)
	}

	return replays, nil
}

// MediaByID fetches one media record.
func (s *Store) MediaByID(ctx context.Context, id int64) (Media, error) {
	var m Media
	err := s.db.QueryRowContext(ctx, `
		SELECT id, replay_id, name, size, storage_key, created_at
		FROM media
		WHERE id = $1
	`, id).Scan(&m.ID, &m.ReplayID, &m.Name, &m.Size, &m.StorageKey, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Media{}, ErrMediaNotFound
		}
		return Media{}, fmt.Errorf("lookup media: %w", err)
	}
	return m, nil
}
