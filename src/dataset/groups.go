package dataset

// Group is a navigation bucket of related profile categories.
type Group struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Categories []string `json:"categories"`
}

// Groups lists the category groups in display order.
var Groups = []Group{
	{ID: "palestinian", Label: "Palestinian Perspectives", Categories: []string{"Palestinian Authority", "Hamas Officials", "Palestinian Voices"}},
	{ID: "israeli", Label: "Israeli Perspectives", Categories: []string{"Israeli Politicians"}},
	{ID: "international", Label: "International Voices", Categories: []string{"US Politicians", "Journalists", "NGO Leaders"}},
	{ID: "peace", Label: "Peace & Advocacy", Categories: []string{"Peace Advocates", "Organizations"}},
	{ID: "academic", Label: "Academic & Literary", Categories: []string{"Academics", "Books", "Legal Scholars", "Historians"}},
}

// OtherGroupID collects categories not listed in any group.
const OtherGroupID = "other"

// GroupOf returns the group id a category belongs to.
func GroupOf(category string) string {
	for _, g := range Groups {
		for _, c := range g.Categories {
			if c == category {
				return g.ID
			}
		}
	}
	return OtherGroupID
}

// LookupGroup finds a group by id.
func LookupGroup(id string) (Group, bool) {
	for _, g := range Groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}
