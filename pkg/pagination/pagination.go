package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 20
	// MaxLimit caps how many rows a page can hold.
	MaxLimit = 100
)

// Params holds cursor pagination inputs from controllers or services.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points at the last row of the previous page.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// EncodeCursor builds a base64 cursor string from the provided values.
func EncodeCursor(cursor Cursor) string {
	payload := fmt.Sprintf("%s|%s", cursor.CreatedAt.UTC().Format(time.RFC3339Nano), cursor.ID)
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes the cursor string back into its components. An empty
// value means the first page.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, fmt.Errorf("invalid cursor format")
	}

	t, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	return &Cursor{CreatedAt: t, ID: parts[1]}, nil
}

// Page is one slice of a newest-first listing.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// Slice pages rows that are already sorted newest first. key returns the
// cursor of a row; rows up to and including the cursor row are skipped.
func Slice[T any](rows []T, params Params, key func(T) Cursor) (Page[T], error) {
	cursor, err := ParseCursor(params.Cursor)
	if err != nil {
		return Page[T]{}, err
	}
	limit := NormalizeLimit(params.Limit)

	start := 0
	if cursor != nil {
		start = len(rows)
		for i, row := range rows {
			if After(key(row), *cursor) {
				start = i
				break
			}
		}
	}

	end := start + limit
	if end > len(rows) {
		end = len(rows)
	}
	page := Page[T]{Items: append([]T{}, rows[start:end]...)}
	if end < len(rows) && end > start {
		page.NextCursor = EncodeCursor(key(rows[end-1]))
	}
	return page, nil
}

// After reports whether c sorts after ref in newest-first order.
func After(c, ref Cursor) bool {
	if !c.CreatedAt.Equal(ref.CreatedAt) {
		return c.CreatedAt.Before(ref.CreatedAt)
	}
	return c.ID < ref.ID
}
