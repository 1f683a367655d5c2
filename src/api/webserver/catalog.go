package webserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stake-plus/mmr-scorecard/src/dataset"
	"github.com/stake-plus/mmr-scorecard/src/metrics"
	"github.com/stake-plus/mmr-scorecard/src/mmr"
)

// Catalog serves the read-only profile catalog and ad-hoc evaluation.
type Catalog struct {
	catalog *dataset.Catalog
	metrics *metrics.Metrics
}

func NewCatalog(catalog *dataset.Catalog, m *metrics.Metrics) Catalog {
	return Catalog{catalog: catalog, metrics: m}
}

// fresh sets the ETag and answers 304 when the client already has it.
func (h Catalog) fresh(c *gin.Context) bool {
	etag := `"` + h.catalog.Fingerprint() + `"`
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")
	for _, tag := range strings.Split(c.GetHeader("If-None-Match"), ",") {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "W/")
		if tag == etag || tag == "*" {
			c.Status(http.StatusNotModified)
			return true
		}
	}
	return false
}

func filterFrom(c *gin.Context) dataset.Filter {
	return dataset.Filter{
		Category: c.Query("category"),
		Group:    c.Query("group"),
		Query:    c.Query("q"),
	}
}

func (h Catalog) List(c *gin.Context) {
	if h.fresh(c) {
		return
	}
	entries := h.catalog.List(filterFrom(c))
	c.JSON(http.StatusOK, gin.H{"profiles": entries, "count": len(entries)})
}

func (h Catalog) Get(c *gin.Context) {
	e, err := h.catalog.Get(c.Param("slug"))
	if errors.Is(err, dataset.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	if h.fresh(c) {
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h Catalog) Categories(c *gin.Context) {
	if h.fresh(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": h.catalog.Categories()})
}

func (h Catalog) Rollup(c *gin.Context) {
	if g := c.Query("group"); g != "" && g != "all" && g != dataset.OtherGroupID {
		if _, ok := dataset.LookupGroup(g); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown group"})
			return
		}
	}
	if h.fresh(c) {
		return
	}
	c.JSON(http.StatusOK, h.catalog.Rollup(filterFrom(c)))
}

func (h Catalog) Rules(c *gin.Context) {
	if h.fresh(c) {
		return
	}
	c.JSON(http.StatusOK, h.catalog.Engine().Rules())
}

// Evaluate scores a profile posted in the request body.
func (h Catalog) Evaluate(c *gin.Context) {
	var p mmr.Profile
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile: " + err.Error()})
		return
	}
	ev := h.catalog.Engine().Evaluate(p)
	h.metrics.Evaluation(ev.Outcome)
	c.JSON(http.StatusOK, gin.H{
		"profile":    p,
		"evaluation": ev,
		"display": gin.H{
			"label": mmr.ShortLabel(ev.Outcome),
			"color": mmr.Color(ev.Outcome),
			"icon":  mmr.Icon(ev.Outcome),
		},
	})
}
