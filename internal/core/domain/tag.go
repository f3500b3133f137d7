package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/beansapp/beans/internal/apperrors"
)

// Tag is a normalized category label attached to ledger entries.
// Names are lowercase, trimmed, non-empty, and restricted to alphanumerics
// and hyphens.
type Tag struct {
	name string
}

// NewTag normalizes and validates a raw tag name.
func NewTag(raw string) (Tag, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return Tag{}, fmt.Errorf("%w: tag name cannot be empty", apperrors.ErrValidation)
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return Tag{}, fmt.Errorf("%w: tag name %q may only contain letters, digits, and hyphens", apperrors.ErrValidation, raw)
		}
	}
	return Tag{name: name}, nil
}

// NewTags normalizes a list of raw names into a deduplicated, sorted tag set.
func NewTags(raw []string) ([]Tag, error) {
	seen := make(map[string]struct{}, len(raw))
	tags := make([]Tag, 0, len(raw))
	for _, r := range raw {
		tag, err := NewTag(r)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[tag.name]; ok {
			continue
		}
		seen[tag.name] = struct{}{}
		tags = append(tags, tag)
	}
	SortTags(tags)
	return tags, nil
}

// Name returns the normalized tag name.
func (t Tag) Name() string { return t.name }

func (t Tag) String() string { return t.name }

// MarshalText lets tags appear as plain strings in serialized output.
func (t Tag) MarshalText() ([]byte, error) { return []byte(t.name), nil }

// UnmarshalText validates the incoming name like NewTag.
func (t *Tag) UnmarshalText(b []byte) error {
	tag, err := NewTag(string(b))
	if err != nil {
		return err
	}
	*t = tag
	return nil
}

// SortTags orders tags by name for deterministic display.
func SortTags(tags []Tag) {
	sort.Slice(tags, func(i, j int) bool { return tags[i].name < tags[j].name })
}

// TagNames returns the names of the given tags in order.
func TagNames(tags []Tag) []string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.name
	}
	return names
}
