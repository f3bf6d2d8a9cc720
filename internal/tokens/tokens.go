// Package tokens derives opaque download tokens from internal asset ids.
//
// Tokens are a reversible keyed encoding, not a hash: the same (id, slot)
// pair always yields the same token for a given key, so tokens embedded in
// rendered pages stay stable across requests. Rotating the key invalidates
// every previously issued token.
package tokens

import (
	"encoding/hex"
	"errors"
	"fmt"

	hashids "github.com/speps/go-hashids/v2"
)

// ErrInvalidToken signals a token that was not produced by this codec's key.
var ErrInvalidToken = errors.New("invalid asset token")

// minTokenLength pads short numeric ids so tokens stay unguessable.
const minTokenLength = 8

// Codec encodes and decodes asset tokens. Safe for concurrent use; the
// underlying key material is fixed at construction.
type Codec struct {
	h *hashids.HashID
}

// NewCodec builds a Codec salted with the hex form of the secret key bytes.
// The raw key never feeds the encoding directly.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) == 0 {
		return nil, errors.New("tokens: empty key")
	}

	data := hashids.NewData()
	data.Salt = hex.EncodeToString(key)
	data.MinLength = minTokenLength

	h, err := hashids.NewWithData(data)
	if err != nil {
		return nil, fmt.Errorf("init token codec: %w", err)
	}
	return &Codec{h: h}, nil
}

// Encode produces the token for an asset id and slot. Slot is reserved for
// multi-part assets and is always 0 today.
func (c *Codec) Encode(assetID, slot int64) (string, error) {
	if assetID < 0 || slot < 0 {
		return "", fmt.Errorf("encode token: negative component")
	}
	token, err := c.h.EncodeInt64([]int64{assetID, slot})
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}
	return token, nil
}

// Decode resolves a token back to (assetID, slot). Tampered, truncated, or
// foreign-key tokens fail closed with ErrInvalidToken; no partial result is
// ever returned.
func (c *Codec) Decode(token string) (assetID, slot int64, err error) {
	parts, err := c.h.DecodeInt64WithError(token)
	if err != nil {
		return 0, 0, ErrInvalidToken
	}
	if len(parts) != 2 {
		return 0, 0, ErrInvalidToken
	}
	if parts[0] < 0 || parts[1] < 0 {
		return 0, 0, ErrInvalidToken
	}
	return parts[0], parts[1], nil
}
