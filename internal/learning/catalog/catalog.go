// Package catalog orders lessons and routes a finished lesson to the next one.
package catalog

import (
	"github.com/google/uuid"

	"github.com/yungbote/learn2go-backend/internal/domain/learning"
)

const DashboardRoute = "/dashboard"

func LessonRoute(id uuid.UUID) string { return "/lessons/" + id.String() }

type Entry struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Position int       `json:"position"`
}

// Catalog is an ordered, immutable list of lessons for one locale and region.
type Catalog struct {
	entries []Entry
	index   map[uuid.UUID]int
}

// New keeps the given order; callers pass lessons already sorted by the store.
func New(lessons []*learning.Lesson) *Catalog {
	c := &Catalog{
		entries: make([]Entry, 0, len(lessons)),
		index:   make(map[uuid.UUID]int, len(lessons)),
	}
	for _, l := range lessons {
		if l == nil {
			continue
		}
		if _, dup := c.index[l.ID]; dup {
			continue
		}
		c.index[l.ID] = len(c.entries)
		c.entries = append(c.entries, Entry{ID: l.ID, Title: l.Title, Position: l.Position})
	}
	return c
}

func (c *Catalog) Len() int { return len(c.entries) }

func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Next returns the lesson after id. ok is false when id is last or not in the catalog.
func (c *Catalog) Next(id uuid.UUID) (Entry, bool) {
	i, found := c.index[id]
	if !found || i+1 >= len(c.entries) {
		return Entry{}, false
	}
	return c.entries[i+1], true
}

// NextRoute is the route the "continue" action of a finished lesson leads to.
func (c *Catalog) NextRoute(id uuid.UUID) string {
	if next, ok := c.Next(id); ok {
		return LessonRoute(next.ID)
	}
	return DashboardRoute
}
