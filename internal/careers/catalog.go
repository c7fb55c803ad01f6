package careers

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
)

// Roadmap is a catalog entry. Roadmaps themselves are generated on demand by the
// career-roadmap flow from the title.
type Roadmap struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SampleRoadmaps are the featured careers.
var SampleRoadmaps = []Roadmap{
	{Slug: "frontend-developer", Title: "Frontend Developer", Description: "Learn to build beautiful and interactive user interfaces for the web."},
	{Slug: "data-scientist", Title: "Data Scientist", Description: "Master skills to extract insights and build predictive models from data."},
	{Slug: "product-manager", Title: "Product Manager", Description: "Guide products from concept to launch by connecting user needs with business goals."},
	{Slug: "devops-engineer", Title: "DevOps Engineer", Description: "Bridge development and operations to build and maintain scalable infrastructure."},
	{Slug: "ux-ui-designer", Title: "UX/UI Designer", Description: "Create user-centered designs that are both intuitive and visually appealing."},
	{Slug: "cybersecurity-analyst", Title: "Cybersecurity Analyst", Description: "Protect organizational data and systems from cyber threats and attacks."},
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slugify turns a career title into a URL slug: "Data Scientist" -> "data-scientist".
func Slugify(title string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "-")
}

// TitleFromSlug capitalizes each dash-separated word: "frontend-developer" -> "Frontend Developer".
func TitleFromSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// Catalog indexes roadmaps for full-text search.
type Catalog struct {
	roadmaps []Roadmap
	bySlug   map[string]Roadmap
	index    bleve.Index
}

// NewCatalog builds an in-memory index over roadmaps.
func NewCatalog(roadmaps []Roadmap) (*Catalog, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create roadmap index: %w", err)
	}

	c := &Catalog{
		roadmaps: roadmaps,
		bySlug:   make(map[string]Roadmap, len(roadmaps)),
		index:    index,
	}
	batch := index.NewBatch()
	for _, r := range roadmaps {
		c.bySlug[r.Slug] = r
		doc := map[string]string{"title": r.Title, "description": r.Description}
		if err := batch.Index(r.Slug, doc); err != nil {
			return nil, fmt.Errorf("failed to index roadmap %s: %w", r.Slug, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, fmt.Errorf("failed to index roadmaps: %w", err)
	}
	return c, nil
}

// DefaultCatalog indexes SampleRoadmaps.
func DefaultCatalog() (*Catalog, error) {
	return NewCatalog(SampleRoadmaps)
}

// List returns every roadmap in catalog order.
func (c *Catalog) List() []Roadmap {
	out := make([]Roadmap, len(c.roadmaps))
	copy(out, c.roadmaps)
	return out
}

// Get returns the catalog entry for slug.
func (c *Catalog) Get(slug string) (Roadmap, bool) {
	r, ok := c.bySlug[slug]
	return r, ok
}

// Resolve returns the catalog entry for slug, or an entry titled from the slug
// for careers outside the catalog.
func (c *Catalog) Resolve(slug string) Roadmap {
	if r, ok := c.Get(slug); ok {
		return r
	}
	return Roadmap{Slug: slug, Title: TitleFromSlug(slug)}
}

// Search returns roadmaps matching q, best first. An empty query lists everything.
func (c *Catalog) Search(q string, limit int) ([]Roadmap, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return c.List(), nil
	}
	if limit <= 0 {
		limit = len(c.roadmaps)
	}

	match := bleve.NewMatchQuery(q)
	match.SetFuzziness(1)
	prefix := bleve.NewPrefixQuery(strings.ToLower(q))
	prefix.SetField("title")
	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(match, prefix), limit, 0, false)

	res, err := c.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("roadmap search failed: %w", err)
	}
	out := make([]Roadmap, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if r, ok := c.bySlug[hit.ID]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// Close releases the index.
func (c *Catalog) Close() error {
	return c.index.Close()
}
