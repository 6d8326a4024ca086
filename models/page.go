package models

// DefaultPageSize is the number of leads requested per page.
const DefaultPageSize = 20

// PageState is the pagination cursor. Current is 1-indexed.
type PageState struct {
	Current    int `json:"currentPage"`
	Size       int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// LastPage is the highest page the cursor may point at.
func (p PageState) LastPage() int {
	if p.TotalPages < 1 {
		return 1
	}
	return p.TotalPages
}

// Contains reports whether n is a page that may be requested.
func (p PageState) Contains(n int) bool {
	return n >= 1 && n <= p.TotalPages
}

// Clamp returns p with Current forced into [1, LastPage()].
func (p PageState) Clamp() PageState {
	if p.Current < 1 {
		p.Current = 1
	}
	if last := p.LastPage(); p.Current > last {
		p.Current = last
	}
	return p
}

// ListQuery is what the browser asks the lead-listing collaborator for.
type ListQuery struct {
	SubjectID string
	Page      int
	PageSize  int
	Criteria  FilterCriteria
}

// LeadPage is one page of leads as returned by the lead-listing collaborator.
type LeadPage struct {
	Records     []LeadRecord `json:"businesses" validate:"dive"`
	TotalPages  int          `json:"totalPages" validate:"gte=0"`
	CurrentPage int          `json:"currentPage" validate:"gte=1"`
}
