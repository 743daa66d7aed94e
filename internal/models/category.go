// Package models defines the record types tracked by the dashboard.
package models

import (
	"fmt"
	"strings"
)

// Category identifies one of the five record lists.
type Category string

// Record categories, as used for local state keys.
const (
	CategoryDiet    Category = "diet"
	CategoryWorkout Category = "workout"
	CategoryFinance Category = "finance"
	CategoryCoffee  Category = "coffee"
	CategoryMemo    Category = "memo"
)

// Categories lists every category in bulk-payload order.
var Categories = []Category{CategoryDiet, CategoryWorkout, CategoryFinance, CategoryCoffee, CategoryMemo}

// Sheet returns the capitalized name the remote store uses for c.
func (c Category) Sheet() string {
	if c == "" {
		return ""
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:])
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// ParseCategory accepts either the local key ("diet") or the sheet name ("Diet").
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}
