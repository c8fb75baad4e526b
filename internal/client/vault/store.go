// Package vault holds the in-memory record collection for a session.
package vault

import (
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ritchy/BytePass/internal/client/document"
)

// Store owns the active and soft-deleted records. All access goes through
// its lock.
type Store struct {
	mu  sync.RWMutex
	doc document.AccountsDocument
	log logrus.FieldLogger
}

// New creates a store seeded with doc.
func New(doc document.AccountsDocument, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{doc: doc.Clone(), log: log}
}

// Load replaces the whole collection.
func (s *Store) Load(doc document.AccountsDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
}

// Snapshot returns a deep copy of the collection.
func (s *Store) Snapshot() document.AccountsDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Len returns the number of active-list records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.doc.Accounts)
}

// FindByID returns the first record with id. When collection is given it is
// searched instead of the store's own records.
func (s *Store) FindByID(id int64, collection ...[]document.Account) (document.Account, bool) {
	if len(collection) > 0 {
		return findByID(id, collection[0])
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return findByID(id, s.doc.Accounts)
}

func findByID(id int64, accounts []document.Account) (document.Account, bool) {
	if i := indexOf(id, accounts); i >= 0 {
		return accounts[i].Clone(), true
	}
	return document.Account{}, false
}

func indexOf(id int64, accounts []document.Account) int {
	return slices.IndexFunc(accounts, func(a document.Account) bool { return a.ID == id })
}

// Replace overwrites the record with the same id in place. A record that is
// not present is not inserted; use Add for new records.
func (s *Store) Replace(a document.Account) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(a.ID, s.doc.Accounts)
	if i < 0 {
		s.log.WithFields(logrus.Fields{"op": "replace", "id": a.ID}).Warn("record not found, nothing replaced")
		return false
	}

	s.doc.Accounts[i] = a.Clone()
	return true
}

// Add appends a record without checking for duplicate ids.
func (s *Store) Add(a document.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Accounts = append(s.doc.Accounts, a.Clone())
}

// Delete moves every record with a's id to the deleted list.
func (s *Store) Delete(a document.Account, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.DeleteEntry(a, now)
}

// SearchActive returns records with status active.
func (s *Store) SearchActive() []document.Account {
	return s.filter(func(a document.Account) bool { return a.Status == document.StatusActive }, false)
}

// SearchDeleted returns records with status deleted from both lists.
func (s *Store) SearchDeleted() []document.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []document.Account
	for _, list := range [][]document.Account{s.doc.Accounts, s.doc.DeletedAccounts} {
		for _, a := range list {
			if a.Status == document.StatusDeleted {
				out = append(out, a.Clone())
			}
		}
	}
	return out
}

// Search matches query case-insensitively against every text field and tag.
// Only active records are returned, sorted by name.
func (s *Store) Search(query string) []document.Account {
	return s.filter(func(a document.Account) bool {
		return a.IsActive() && a.Matches(query)
	}, true)
}

// FilterByTag returns active records carrying tag, sorted by name.
func (s *Store) FilterByTag(tag string) []document.Account {
	return s.filter(func(a document.Account) bool {
		return a.IsActive() && a.HasTag(tag)
	}, true)
}

// AllTags returns the sorted, deduplicated tags of active records.
func (s *Store) AllTags() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, a := range s.doc.Accounts {
		if !a.IsActive() {
			continue
		}
		for _, t := range a.Tags {
			seen[t] = struct{}{}
		}
	}

	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// SortedByName returns active records ordered by name.
func (s *Store) SortedByName() []document.Account {
	return s.filter(func(a document.Account) bool { return a.IsActive() }, true)
}

func (s *Store) filter(keep func(document.Account) bool, byName bool) []document.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []document.Account
	for _, a := range s.doc.Accounts {
		if keep(a) {
			out = append(out, a.Clone())
		}
	}
	if byName {
		sortByName(out)
	}
	return out
}

func sortByName(accounts []document.Account) {
	sort.SliceStable(accounts, func(i, j int) bool {
		return strings.ToLower(accounts[i].Name) < strings.ToLower(accounts[j].Name)
	})
}
