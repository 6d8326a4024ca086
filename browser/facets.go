package browser

import "leaddesk/backend/models"

// Facets are the distinct picker values seen on the current page.
type Facets struct {
	Cities     []string `json:"cities"`
	Categories []string `json:"categories"`
	Statuses   []string `json:"statuses"`
}

// ExtractFacets collects distinct non-empty city, category and status values
// in order of first occurrence.
func ExtractFacets(records []models.LeadRecord) Facets {
	cities := newOrderedSet()
	categories := newOrderedSet()
	statuses := newOrderedSet()

	for _, r := range records {
		cities.add(r.City)
		categories.add(r.Category)
		statuses.add(r.Status)
	}

	return Facets{
		Cities:     cities.values,
		Categories: categories.values,
		Statuses:   statuses.values,
	}
}

type orderedSet struct {
	seen   map[string]struct{}
	values []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: map[string]struct{}{}, values: []string{}}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.values = append(s.values, v)
}
