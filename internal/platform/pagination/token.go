// Package pagination provides the opaque cursor tokens used by the repository
// list operations. Tokens capture the sort key and document ID of the last
// returned row so the next page can resume with a Firestore StartAfter clause.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidPageToken is returned when a supplied token cannot be decoded.
var ErrInvalidPageToken = errors.New("pagination: invalid page token")

// Cursor identifies the last document of the previous page. SortKey is the
// value of the ordering field (updatedAt or createdAt depending on the
// collection); DocID breaks ties between documents sharing a sort key.
type Cursor struct {
	SortKey time.Time `json:"k"`
	DocID   string    `json:"id"`
}

// EncodeToken serialises the cursor into a base64 URL-safe page token.
func EncodeToken(cursor Cursor) string {
	if cursor.DocID == "" && cursor.SortKey.IsZero() {
		return ""
	}
	cursor.SortKey = cursor.SortKey.UTC()
	data, err := json.Marshal(cursor)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeToken parses a page token produced by EncodeToken back into a cursor.
// An empty token decodes to the zero cursor, meaning "start from the top".
func DecodeToken(token string) (Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Cursor{}, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
	}
	var cursor Cursor
	if err := json.Unmarshal(decoded, &cursor); err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidPageToken, err)
	}
	if cursor.DocID == "" {
		return Cursor{}, fmt.Errorf("%w: missing document id", ErrInvalidPageToken)
	}
	cursor.SortKey = cursor.SortKey.UTC()
	return cursor, nil
}
