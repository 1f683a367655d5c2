package dataset

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/OneOfOne/xxhash"

	"github.com/stake-plus/mmr-scorecard/src/mmr"
)

// Entry is one profile in the catalog with its evaluation precomputed.
type Entry struct {
	Slug       string         `json:"slug"`
	Group      string         `json:"group"`
	Profile    mmr.Profile    `json:"profile"`
	Evaluation mmr.Evaluation `json:"evaluation"`
}

// Filter narrows List and Rollup. Empty fields match everything.
type Filter struct {
	Category string
	Group    string
	Query    string
}

func (f Filter) match(e Entry) bool {
	if f.Category != "" && !strings.EqualFold(f.Category, e.Profile.Category) {
		return false
	}
	if f.Group != "" && f.Group != "all" && f.Group != e.Group {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		return strings.Contains(strings.ToLower(e.Profile.Name), q) ||
			strings.Contains(strings.ToLower(e.Profile.Role), q)
	}
	return true
}

// CategoryCount is the number of profiles in one category.
type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// GroupSummary is a group with live per-category counts.
type GroupSummary struct {
	ID         string          `json:"id"`
	Label      string          `json:"label"`
	Total      int             `json:"total"`
	Categories []CategoryCount `json:"categories"`
}

// Rollup is the aggregate view of a filtered set of profiles.
type Rollup struct {
	Overall    mmr.Statistics           `json:"overall"`
	Categories []mmr.CategoryStatistics `json:"categories"`
}

// Catalog is an immutable, evaluated snapshot of a dataset.
type Catalog struct {
	engine      *mmr.Engine
	entries     []Entry
	bySlug      map[string]int
	fingerprint string
}

// NewCatalog evaluates every profile once against engine.
func NewCatalog(engine *mmr.Engine, profiles []mmr.Profile) *Catalog {
	c := &Catalog{
		engine:  engine,
		entries: make([]Entry, 0, len(profiles)),
		bySlug:  make(map[string]int, len(profiles)),
	}
	for i, slug := range Slugs(profiles) {
		p := profiles[i]
		c.bySlug[slug] = len(c.entries)
		c.entries = append(c.entries, Entry{
			Slug:       slug,
			Group:      GroupOf(p.Category),
			Profile:    p,
			Evaluation: engine.Evaluate(p),
		})
	}
	c.fingerprint = fingerprint(engine, profiles)
	return c
}

func fingerprint(engine *mmr.Engine, profiles []mmr.Profile) string {
	h := xxhash.NewS64(0)
	rules, _ := json.Marshal(engine.Rules())
	h.Write(rules)
	data, _ := json.Marshal(profiles)
	h.Write(data)
	return fmt.Sprintf("%016x", h.Sum64())
}

// Engine returns the engine the catalog was evaluated with.
func (c *Catalog) Engine() *mmr.Engine { return c.engine }

// Len is the number of profiles.
func (c *Catalog) Len() int { return len(c.entries) }

// Fingerprint identifies the rules and profile content of the snapshot.
func (c *Catalog) Fingerprint() string { return c.fingerprint }

// Profiles returns the raw profiles in catalog order.
func (c *Catalog) Profiles() []mmr.Profile {
	out := make([]mmr.Profile, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Profile
	}
	return out
}

// List returns matching entries in catalog order.
func (c *Catalog) List(f Filter) []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if f.match(e) {
			out = append(out, e)
		}
	}
	return out
}

// Get looks up an entry by slug.
func (c *Catalog) Get(slug string) (Entry, error) {
	i, ok := c.bySlug[strings.ToLower(slug)]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	return c.entries[i], nil
}

// Find resolves a slug or a case-insensitive name, falling back to the first
// name containing the query.
func (c *Catalog) Find(query string) (Entry, error) {
	if e, err := c.Get(Slug(query)); err == nil {
		return e, nil
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q != "" {
		for _, e := range c.entries {
			if strings.Contains(strings.ToLower(e.Profile.Name), q) {
				return e, nil
			}
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, query)
}

// Rollup aggregates matching entries overall and per category. Categories are
// ordered by group, then by first appearance.
func (c *Catalog) Rollup(f Filter) Rollup {
	var r Rollup
	byCategory := make(map[string][]mmr.Profile)
	var order []string
	for _, e := range c.List(f) {
		r.Overall.Add(e.Evaluation.Outcome)
		if _, seen := byCategory[e.Profile.Category]; !seen {
			order = append(order, e.Profile.Category)
		}
		byCategory[e.Profile.Category] = append(byCategory[e.Profile.Category], e.Profile)
	}
	if r.Overall.Total == 0 {
		r.Overall = mmr.GroupStatistics(nil)
	}
	sort.SliceStable(order, func(i, j int) bool { return groupRank(order[i]) < groupRank(order[j]) })

	r.Categories = make([]mmr.CategoryStatistics, 0, len(order))
	for _, name := range order {
		r.Categories = append(r.Categories, c.engine.Rollup(name, byCategory[name]))
	}
	return r
}

func groupRank(category string) int {
	id := GroupOf(category)
	for i, g := range Groups {
		if g.ID == id {
			return i
		}
	}
	return len(Groups)
}

// Categories returns every group with live counts, followed by an "other"
// group when some profiles fall outside the known categories.
func (c *Catalog) Categories() []GroupSummary {
	counts := make(map[string]int)
	for _, e := range c.entries {
		counts[e.Profile.Category]++
	}

	out := make([]GroupSummary, 0, len(Groups)+1)
	known := make(map[string]bool)
	for _, g := range Groups {
		gs := GroupSummary{ID: g.ID, Label: g.Label, Categories: make([]CategoryCount, 0, len(g.Categories))}
		for _, name := range g.Categories {
			known[name] = true
			gs.Categories = append(gs.Categories, CategoryCount{Name: name, Count: counts[name]})
			gs.Total += counts[name]
		}
		out = append(out, gs)
	}

	var other []string
	for name := range counts {
		if !known[name] {
			other = append(other, name)
		}
	}
	if len(other) > 0 {
		sort.Strings(other)
		gs := GroupSummary{ID: OtherGroupID, Label: "Other"}
		for _, name := range other {
			gs.Categories = append(gs.Categories, CategoryCount{Name: name, Count: counts[name]})
			gs.Total += counts[name]
		}
		out = append(out, gs)
	}
	return out
}

// Slugs assigns each profile a unique slug in order. A name seen before gets
// "-2", "-3" and so on appended.
func Slugs(profiles []mmr.Profile) []string {
	out := make([]string, len(profiles))
	taken := make(map[string]bool, len(profiles))
	for i, p := range profiles {
		base := Slug(p.Name)
		slug := base
		for n := 2; taken[slug]; n++ {
			slug = base + "-" + strconv.Itoa(n)
		}
		taken[slug] = true
		out[i] = slug
	}
	return out
}

// Slug lower-cases name and joins its alphanumeric runs with "-".
func Slug(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, "-")
}
