package repository

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/codecraft/internal/apperror"
)

// Cursor marks a position in a newest-first listing ordered by
// (created_at DESC, id DESC). The next page holds rows strictly older than it.
type Cursor struct {
	CreatedAt int64 // unix nanoseconds
	ID        string
}

// EncodeCursor returns the opaque token for the row (createdAt, id).
func EncodeCursor(createdAt time.Time, id string) string {
	raw := strconv.FormatInt(createdAt.UnixNano(), 10) + ":" + id
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, apperror.ValidationFailed("cursor", "invalid cursor")
	}
	ts, id, ok := strings.Cut(string(raw), ":")
	if !ok || id == "" {
		return Cursor{}, apperror.ValidationFailed("cursor", "invalid cursor")
	}
	nanos, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return Cursor{}, apperror.ValidationFailed("cursor", "invalid cursor")
	}
	return Cursor{CreatedAt: nanos, ID: id}, nil
}
