package models

import (
	"errors"
	"fmt"
	"strings"
)

// Namespace prefixes category and stat keys in record files.
const Namespace = "minecraft:"

// ErrUnknownCategory is returned for categories outside Categories.
var ErrUnknownCategory = errors.New("unknown stat category")

// Category is a statistic grouping. Its value is also the table name.
type Category string

const (
	CategoryBroken   Category = "broken"
	CategoryCrafted  Category = "crafted"
	CategoryCustom   Category = "custom"
	CategoryDropped  Category = "dropped"
	CategoryKilled   Category = "killed"
	CategoryKilledBy Category = "killed_by"
	CategoryMined    Category = "mined"
	CategoryPickedUp Category = "picked_up"
	CategoryUsed     Category = "used"
)

// Categories lists every known category in table creation order.
var Categories = []Category{
	CategoryBroken,
	CategoryCrafted,
	CategoryCustom,
	CategoryDropped,
	CategoryKilled,
	CategoryKilledBy,
	CategoryMined,
	CategoryPickedUp,
	CategoryUsed,
}

// Table returns the table holding the category's records.
func (c Category) Table() string {
	return string(c)
}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory accepts both "minecraft:mined" and "mined".
func ParseCategory(raw string) (Category, error) {
	c := Category(StripNamespace(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
	}
	return c, nil
}

// StripNamespace removes the leading "minecraft:" from a key.
func StripNamespace(key string) string {
	return strings.TrimPrefix(key, Namespace)
}
