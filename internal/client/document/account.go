package document

import (
	"slices"
	"strings"
	"time"
)

// Status is the lifecycle state of an account record.
type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

// PlaceholderName is the name given to records that were never filled in.
const PlaceholderName = "New Account"

// Account is a single credential record.
type Account struct {
	Name          string   `json:"name" yaml:"name"`
	LastUpdated   string   `json:"last_updated" yaml:"last_updated"`
	Status        Status   `json:"status" yaml:"status"`
	ID            int64    `json:"id" yaml:"id"`
	Username      string   `json:"username" yaml:"username"`
	Password      string   `json:"password" yaml:"password"`
	AccountNumber string   `json:"account_number" yaml:"account_number"`
	URL           string   `json:"url" yaml:"url"`
	Email         string   `json:"email" yaml:"email"`
	Hint          string   `json:"hint" yaml:"hint"`
	Notes         string   `json:"notes" yaml:"notes"`
	Tags          []string `json:"tags" yaml:"tags"`
}

// NewAccount returns an active record with a fresh id and timestamp.
func NewAccount(name string, now time.Time) Account {
	return Account{
		Name:        name,
		ID:          NewID(now),
		Status:      StatusActive,
		LastUpdated: FormatTimestamp(now),
		Tags:        []string{},
	}
}

// NewID derives a record id from the creation time in milliseconds.
func NewID(now time.Time) int64 {
	return now.UnixMilli()
}

// Valid reports whether the record may be persisted.
func (a Account) Valid() bool {
	name := strings.TrimSpace(a.Name)
	return name != "" && name != PlaceholderName
}

// IsActive reports whether the record has not been soft-deleted.
func (a Account) IsActive() bool {
	return a.Status == StatusActive
}

// HasTag reports whether the record carries tag.
func (a Account) HasTag(tag string) bool {
	return slices.Contains(a.Tags, tag)
}

// AddTag appends tag unless it is already present.
func (a *Account) AddTag(tag string) {
	tag = strings.TrimSpace(tag)
	if tag == "" || a.HasTag(tag) {
		return
	}
	a.Tags = append(a.Tags, tag)
}

// RemoveTag drops every occurrence of tag.
func (a *Account) RemoveTag(tag string) {
	a.Tags = slices.DeleteFunc(a.Tags, func(t string) bool { return t == tag })
}

// Touch advances LastUpdated to now. If now does not sort after the current
// value, the timestamp is bumped by one microsecond past the old one so that
// every mutation yields a strictly newer timestamp.
func (a *Account) Touch(now time.Time) {
	now = now.UTC().Truncate(time.Microsecond)
	if prev, err := ParseTimestamp(a.LastUpdated); err == nil && !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	a.LastUpdated = FormatTimestamp(now)
}

// Clone returns a deep copy of the record.
func (a Account) Clone() Account {
	c := a
	if a.Tags != nil {
		c.Tags = slices.Clone(a.Tags)
	}
	return c
}

// Equal compares every field except LastUpdated. Tags compare as a set.
func (a Account) Equal(b Account) bool {
	if a.ID != b.ID || a.Name != b.Name || a.Status != b.Status ||
		a.Username != b.Username || a.Password != b.Password ||
		a.AccountNumber != b.AccountNumber || a.URL != b.URL ||
		a.Email != b.Email || a.Hint != b.Hint || a.Notes != b.Notes {
		return false
	}
	return sameTags(a.Tags, b.Tags)
}

// Matches reports whether any searchable field contains query, ignoring case.
// An empty query matches everything.
func (a Account) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}

	fields := []string{a.Name, a.Username, a.Password, a.AccountNumber, a.URL, a.Email, a.Hint, a.Notes}
	fields = append(fields, a.Tags...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func sameTags(a, b []string) bool {
	set := make(map[string]int, len(a))
	for _, t := range a {
		set[t]++
	}
	seen := make(map[string]int, len(b))
	for _, t := range b {
		if _, ok := set[t]; !ok {
			return false
		}
		seen[t]++
	}
	return len(set) == len(seen)
}
