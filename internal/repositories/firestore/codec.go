package firestore

import (
	"slices"
	"strings"
	"time"

	"github.com/kidiezyllex/street-sneaker-sub000/internal/platform/pagination"
)

// Helpers shared by the document codecs in this package.

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	trimmed := make([]string, 0, len(values))
	for _, value := range values {
		trimmed = append(trimmed, strings.TrimSpace(value))
	}
	return slices.Clone(trimmed)
}

func chooseTime(primary time.Time, fallback time.Time) time.Time {
	if !primary.IsZero() {
		return primary.UTC()
	}
	if !fallback.IsZero() {
		return fallback.UTC()
	}
	return time.Time{}
}

func normaliseStatuses(statuses []string) []string {
	if len(statuses) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(statuses))
	seen := make(map[string]struct{})
	for _, status := range statuses {
		trimmed := strings.ToLower(strings.TrimSpace(status))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}
	return normalized
}

// encodeListToken builds an opaque cursor from the last document's sort key and ID.
func encodeListToken(sortValue time.Time, docID string) string {
	return pagination.EncodeToken(pagination.Cursor{SortKey: sortValue, DocID: docID})
}

func decodeListToken(token string) (time.Time, string, error) {
	cursor, err := pagination.DecodeToken(token)
	if err != nil {
		return time.Time{}, "", err
	}
	return cursor.SortKey, cursor.DocID, nil
}
