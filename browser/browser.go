// Package browser holds the lead list state behind a lead screen: the last fetched
// page, the refined view over it, picker facets and the pagination cursor.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"leaddesk/backend/logger"
	"leaddesk/backend/models"
)

var (
	// ErrSubjectRequired is returned when a browser is built without a subject id.
	ErrSubjectRequired = errors.New("subject id is required")
	// ErrSuperseded is returned by a fetch whose response arrived after a newer request was issued.
	ErrSuperseded = errors.New("fetch superseded by a newer request")
)

// Lister is the lead-listing collaborator.
type Lister interface {
	ListLeads(ctx context.Context, q models.ListQuery) (*models.LeadPage, error)
}

// Option configures a Browser.
type Option func(*Browser)

// WithPageSize sets the fixed page size.
func WithPageSize(n int) Option {
	return func(b *Browser) {
		if n > 0 {
			b.page.Size = n
		}
	}
}

// WithLocation sets the zone that day boundaries and dates are computed in.
func WithLocation(loc *time.Location) Option {
	return func(b *Browser) {
		if loc != nil {
			b.loc = loc
		}
	}
}

// WithLogger replaces the component logger.
func WithLogger(entry *logrus.Entry) Option {
	return func(b *Browser) {
		if entry != nil {
			b.log = entry
		}
	}
}

// WithPage sets the page the first fetch asks for. The server's answer is clamped as usual.
func WithPage(n int) Option {
	return func(b *Browser) {
		if n > 1 {
			b.page.Current = n
			b.page.TotalPages = n
		}
	}
}

// WithCriteria sets the initial filter criteria.
func WithCriteria(c models.FilterCriteria) Option {
	return func(b *Browser) {
		b.criteria = c
	}
}

// Browser is safe for concurrent use. Network calls are made without the lock held;
// only the response of the most recently issued fetch is applied.
type Browser struct {
	mu sync.Mutex

	lister    Lister
	subjectID string
	loc       *time.Location
	log       *logrus.Entry

	criteria models.FilterCriteria
	page     models.PageState
	records  []models.LeadRecord
	filtered []models.LeadRecord
	facets   Facets

	issued   uint64 // sequence number of the latest fetch issued
	inflight int
}

// New creates a browser for the given subject (the employee whose leads are listed).
func New(lister Lister, subjectID string, opts ...Option) (*Browser, error) {
	if subjectID == "" {
		return nil, ErrSubjectRequired
	}
	b := &Browser{
		lister:    lister,
		subjectID: subjectID,
		loc:       time.Local,
		page:      models.PageState{Current: 1, Size: models.DefaultPageSize, TotalPages: 1},
		records:   []models.LeadRecord{},
		filtered:  []models.LeadRecord{},
		facets:    ExtractFacets(nil),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = logger.For("browser")
	}
	b.log = b.log.WithField("subject_id", subjectID)
	return b, nil
}

// SubjectID returns the subject whose leads are listed.
func (b *Browser) SubjectID() string {
	return b.subjectID
}

// Location returns the zone used for day boundaries.
func (b *Browser) Location() *time.Location {
	return b.loc
}

// Fetch requests the current page with the current criteria and applies the result.
// On failure the previous state is kept and the error is returned.
func (b *Browser) Fetch(ctx context.Context) error {
	b.mu.Lock()
	return b.fetchLocked(ctx, b.page.Current)
}

// fetchLocked must be entered with b.mu held; it releases the lock around the network call.
func (b *Browser) fetchLocked(ctx context.Context, page int) error {
	b.issued++
	seq := b.issued
	b.inflight++
	q := models.ListQuery{
		SubjectID: b.subjectID,
		Page:      page,
		PageSize:  b.page.Size,
		Criteria:  b.criteria,
	}
	b.mu.Unlock()

	res, err := b.lister.ListLeads(ctx, q)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.inflight--

	if err != nil {
		b.log.WithError(err).WithField("page", page).Error("Error fetching leads")
		return fmt.Errorf("fetch leads page %d: %w", page, err)
	}
	if seq != b.issued {
		b.log.WithFields(logrus.Fields{"seq": seq, "latest": b.issued}).Debug("Discarding stale lead page")
		return ErrSuperseded
	}

	b.records = res.Records
	if b.records == nil {
		b.records = []models.LeadRecord{}
	}
	b.filtered = Refine(b.records, b.criteria, b.loc)
	b.facets = ExtractFacets(b.records)
	b.page = models.PageState{
		Current:    res.CurrentPage,
		Size:       b.page.Size,
		TotalPages: res.TotalPages,
	}.Clamp()

	b.log.WithFields(logrus.Fields{
		"page":     b.page.Current,
		"total":    b.page.TotalPages,
		"records":  len(b.records),
		"filtered": len(b.filtered),
	}).Debug("Fetched leads")
	return nil
}

// SetCriteria replaces the filter criteria, refines the records already held, then refetches.
func (b *Browser) SetCriteria(ctx context.Context, c models.FilterCriteria) error {
	return b.SetCriteriaAt(ctx, c, 0)
}

// SetCriteriaAt is SetCriteria followed by a move to page n, issued as one request.
// When n is outside [1, TotalPages] the current page is fetched.
func (b *Browser) SetCriteriaAt(ctx context.Context, c models.FilterCriteria, n int) error {
	b.mu.Lock()
	b.criteria = c
	b.filtered = Refine(b.records, c, b.loc)
	page := b.page.Current
	if b.page.Contains(n) {
		page = n
	}
	return b.fetchLocked(ctx, page)
}

// Criteria returns the active filter criteria.
func (b *Browser) Criteria() models.FilterCriteria {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.criteria
}

// GoToPage fetches page n and moves the cursor there once it arrives. Pages outside
// [1, TotalPages] are ignored and reported with ok=false.
func (b *Browser) GoToPage(ctx context.Context, n int) (bool, error) {
	b.mu.Lock()
	if !b.page.Contains(n) {
		b.mu.Unlock()
		return false, nil
	}
	return true, b.fetchLocked(ctx, n)
}

// NextPage moves forward one page when there is one.
func (b *Browser) NextPage(ctx context.Context) (bool, error) {
	return b.GoToPage(ctx, b.Page().Current+1)
}

// PrevPage moves back one page when there is one.
func (b *Browser) PrevPage(ctx context.Context) (bool, error) {
	return b.GoToPage(ctx, b.Page().Current-1)
}

// Page returns the pagination cursor.
func (b *Browser) Page() models.PageState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.page
}

// MergeEdit writes the non-nil fields of patch over the record with the given id in both
// the fetched and refined sets. It reports whether any record matched.
func (b *Browser) MergeEdit(id string, patch models.LeadPatch) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	found := false
	for i := range b.records {
		if b.records[i].ID == id {
			b.records[i] = patch.Apply(b.records[i])
			found = true
		}
	}
	for i := range b.filtered {
		if b.filtered[i].ID == id {
			b.filtered[i] = patch.Apply(b.filtered[i])
		}
	}
	return found
}

// Record looks up a fetched record by id.
func (b *Browser) Record(id string) (models.LeadRecord, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.records {
		if r.ID == id {
			return r, true
		}
	}
	return models.LeadRecord{}, false
}

// ClipboardText renders the record with the given id for copying.
func (b *Browser) ClipboardText(id string) (string, bool) {
	r, ok := b.Record(id)
	if !ok {
		return "", false
	}
	return ClipboardText(r, b.loc), true
}

// View is a snapshot of what a lead screen renders.
type View struct {
	SubjectID string                `json:"subjectId"`
	Records   []models.LeadRecord   `json:"records"`
	Total     int                   `json:"total"`
	Facets    Facets                `json:"facets"`
	Criteria  models.FilterCriteria `json:"criteria"`
	Page      models.PageState      `json:"page"`
	Window    []int                 `json:"window"`
	CanPrev   bool                  `json:"canPrev"`
	CanNext   bool                  `json:"canNext"`
	Fetching  bool                  `json:"fetching"`
}

// View returns a copy of the current state.
func (b *Browser) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()

	records := make([]models.LeadRecord, len(b.filtered))
	copy(records, b.filtered)

	return View{
		SubjectID: b.subjectID,
		Records:   records,
		Total:     len(b.records),
		Facets:    b.facets,
		Criteria:  b.criteria,
		Page:      b.page,
		Window:    PageWindow(b.page.Current, b.page.TotalPages),
		CanPrev:   b.page.Contains(b.page.Current - 1),
		CanNext:   b.page.Contains(b.page.Current + 1),
		Fetching:  b.inflight > 0,
	}
}
