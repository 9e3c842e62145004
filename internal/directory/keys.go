package directory

import (
	"encoding/json"
	"strings"

	"mehnda-chinji/internal/domain"
)

// Key identifies a cached query. Keys are hierarchical: invalidating a
// prefix invalidates every key that starts with it.
type Key []string

func (k Key) String() string {
	b, _ := json.Marshal([]string(k))
	return string(b)
}

// HasPrefix reports whether k starts with prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// BusinessesKey is the root of every business query.
func BusinessesKey() Key {
	return Key{"businesses"}
}

// BusinessListKey identifies the paged list for one filter.
func BusinessListKey(filter domain.BusinessFilter) Key {
	return Key{"businesses", "infinite-list", filterString(filter)}
}

// BusinessStatusKey identifies the owner's view of one business.
func BusinessStatusKey(id string) Key {
	return Key{"businesses", "status", id}
}

func filterString(filter domain.BusinessFilter) string {
	filter.Search = strings.TrimSpace(filter.Search)
	b, _ := json.Marshal(filter)
	return string(b)
}
