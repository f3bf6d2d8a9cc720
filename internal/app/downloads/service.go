// Package downloads resolves opaque asset tokens to binary content.
package downloads

import (
	"context"
	"errors"
	"io"

	"levelhub/internal/blob"
	"levelhub/internal/store"
	"levelhub/internal/tokens"
)

// ErrNotFound covers every failure on the download path: an invalid or
// tampered token, an unknown media id, and a missing object all look the
// same to the client. Decoding never falls back to a guessed id.
var ErrNotFound = errors.New("download not found")

// TokenDecoder resolves tokens minted by the catalog back to asset ids.
type TokenDecoder interface {
	Decode(token string) (assetID, slot int64, err error)
}

// Store defines the media lookup the download path needs.
type Store interface {
	MediaByID(ctx context.Context, id int64) (store.Media, error)
}

// ObjectStore opens binary objects by storage key.
type ObjectStore interface {
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
}

// Download is resolved binary content ready to stream. The caller owns
// Content and must close it.
type Download struct {
	Media   store.Media
	Content io.ReadCloser
	Size    int64
}

// Service resolves download tokens.
type Service interface {
	Resolve(ctx context.Context, token string) (Download, error)
}

type service struct {
	tokens  TokenDecoder
	store   Store
	objects ObjectStore
}

// New wires a download Service.
func New(tokens TokenDecoder, store Store, objects ObjectStore) Service {
	return &service{tokens: tokens, store: store, objects: objects}
}

func (s *service) Resolve(ctx context.Context, token string) (Download, error) {
	mediaID, _, err := s.tokens.Decode(token)
	if err != nil {
		if errors.Is(err, tokens.ErrInvalidToken) {
			return Download{}, ErrNotFound
		}
		return Download{}, err
	}

	media, err := s.store.MediaByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, store.ErrMediaNotFound) {
			return Download{}, ErrNotFound
		}
		return Download{}, err
	}

	content, size, err := s.objects.Open(ctx, media.StorageKey)
	if err != nil {
		if errors.Is(err, blob.ErrObjectNotFound) {
			return Download{}, ErrNotFound
		}
		return Download{}, err
	}

	return Download{Media: media, Content: content, Size: size}, nil
}
