package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stake-plus/mmr-scorecard/src/mmr"
)

func TestParseShapes(t *testing.T) {
	arr := `[{"name":"A","category":"Books","title":"Author","pillars":[]}]`
	ds, err := Parse([]byte(arr))
	require.NoError(t, err)
	require.Len(t, ds.Profiles, 1)
	assert.Equal(t, "Author", ds.Profiles[0].Role)

	obj := `{"version":"x","profiles":[{"name":"B","category":"Books","role":"Editor"}]}`
	ds, err = Parse([]byte(obj))
	require.NoError(t, err)
	assert.Equal(t, "x", ds.Version)
	assert.Equal(t, "Editor", ds.Profiles[0].Role)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("  "))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"profiles":[{"category":"Books"}]}`))
	assert.ErrorContains(t, err, "no name")

	_, err = Parse([]byte(`[{"name":1}]`))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"A"}]`), 0o600))
	ds, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, ds.Profiles, 1)

	_, err = Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestDefaultDataset(t *testing.T) {
	ds := Default()
	require.Len(t, ds.Profiles, 10)
	ds.Profiles[0].Name = "changed"
	assert.NotEqual(t, "changed", Default().Profiles[0].Name)
}

func TestGroupOf(t *testing.T) {
	assert.Equal(t, "palestinian", GroupOf("Hamas Officials"))
	assert.Equal(t, "academic", GroupOf("Historians"))
	assert.Equal(t, OtherGroupID, GroupOf("Astronauts"))

	g, ok := LookupGroup("peace")
	require.True(t, ok)
	assert.Equal(t, "Peace & Advocacy", g.Label)
	_, ok = LookupGroup("nope")
	assert.False(t, ok)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "maoz-inon-aziz-abu-sara", Slug("Maoz Inon & Aziz Abu Sara"))
	assert.Equal(t, "yair-golan", Slug("  Yair   Golan "))
	assert.Equal(t, "", Slug("&&"))
}

func newCatalog(t *testing.T) *Catalog {
	t.Helper()
	return NewCatalog(mmr.DefaultEngine(), Default().Profiles)
}

func TestCatalogLookups(t *testing.T) {
	c := newCatalog(t)
	assert.Equal(t, 10, c.Len())

	e, err := c.Get("yair-lapid")
	require.NoError(t, err)
	assert.Equal(t, mmr.EmergingPositive, e.Evaluation.Outcome)
	assert.Equal(t, "israeli", e.Group)

	_, err = c.Get("nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	e, err = c.Find("Sinwar")
	require.NoError(t, err)
	assert.Equal(t, mmr.SystemicFail, e.Evaluation.Outcome)

	e, err = c.Find("Benny Gantz")
	require.NoError(t, err)
	assert.Equal(t, "benny-gantz", e.Slug)

	_, err = c.Find("")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogList(t *testing.T) {
	c := newCatalog(t)
	assert.Len(t, c.List(Filter{}), 10)
	assert.Len(t, c.List(Filter{Category: "israeli politicians"}), 4)
	assert.Len(t, c.List(Filter{Group: "palestinian"}), 4)
	assert.Len(t, c.List(Filter{Group: "all"}), 10)
	assert.Len(t, c.List(Filter{Query: "yair"}), 2)
	assert.Len(t, c.List(Filter{Query: "hamas"}), 2)
	assert.Empty(t, c.List(Filter{Group: "academic"}))
}

func TestCatalogRollup(t *testing.T) {
	c := newCatalog(t)

	r := c.Rollup(Filter{Category: "Israeli Politicians"})
	require.Len(t, r.Categories, 1)
	assert.Equal(t, mmr.Statistics{Total: 4, Pass: 1, AlmostPass: 1, Partial: 2, PassRate: 50, Level: mmr.LevelNeedsImprovement}, r.Overall)

	r = c.Rollup(Filter{Category: "Peace Advocates"})
	assert.Equal(t, 100, r.Overall.PassRate)
	assert.Equal(t, mmr.LevelStrong, r.Overall.Level)

	r = c.Rollup(Filter{})
	require.NotEmpty(t, r.Categories)
	assert.Equal(t, 10, r.Overall.Total)
	assert.Equal(t, "palestinian", GroupOf(r.Categories[0].Name))

	r = c.Rollup(Filter{Group: "academic"})
	assert.Equal(t, mmr.LevelNoData, r.Overall.Level)
	assert.Empty(t, r.Categories)
}

func TestCatalogCategories(t *testing.T) {
	c := NewCatalog(mmr.DefaultEngine(), append(Default().Profiles, mmr.Profile{Name: "Z", Category: "Astronauts"}))
	groups := c.Categories()
	require.Len(t, groups, len(Groups)+1)
	assert.Equal(t, "palestinian", groups[0].ID)
	assert.Equal(t, 4, groups[0].Total)
	assert.Equal(t, OtherGroupID, groups[len(groups)-1].ID)
	assert.Equal(t, []CategoryCount{{Name: "Astronauts", Count: 1}}, groups[len(groups)-1].Categories)
}

func TestCatalogDuplicateSlugs(t *testing.T) {
	c := NewCatalog(mmr.DefaultEngine(), []mmr.Profile{{Name: "Same Name"}, {Name: "same-name"}})
	_, err := c.Get("same-name")
	require.NoError(t, err)
	e, err := c.Get("same-name-2")
	require.NoError(t, err)
	assert.Equal(t, "same-name", e.Profile.Name)
}

func TestSlugs(t *testing.T) {
	got := Slugs([]mmr.Profile{{Name: "A B"}, {Name: "Other"}, {Name: "a-b"}, {Name: "A  B!"}})
	assert.Equal(t, []string{"a-b", "other", "a-b-2", "a-b-3"}, got)
}

func TestFingerprint(t *testing.T) {
	a := newCatalog(t)
	b := newCatalog(t)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Len(t, a.Fingerprint(), 16)

	profiles := Default().Profiles
	profiles[0].Pillars[0].Assessment = "Pass"
	assert.NotEqual(t, a.Fingerprint(), NewCatalog(mmr.DefaultEngine(), profiles).Fingerprint())
}
