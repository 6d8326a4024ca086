package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"leaddesk/backend/browser"
	"leaddesk/backend/cache"
	"leaddesk/backend/leadapi"
	"leaddesk/backend/logger"
	"leaddesk/backend/middleware"
	"leaddesk/backend/models"
	"leaddesk/backend/services"
)

// LeadAPI is the remote lead API as seen by one session.
type LeadAPI interface {
	browser.Lister
	UpdateLead(ctx context.Context, id string, patch models.LeadPatch) (models.LeadPatch, error)
	SendProposal(ctx context.Context, lead models.LeadRecord) error
}

// LeadHandlerConfig wires a LeadHandler. Filters and Cache are optional.
type LeadHandlerConfig struct {
	NewAPI          func(token string) LeadAPI
	Registry        *Registry
	Filters         *services.FilterStore
	Cache           *cache.PageCache
	PageSize        int
	Location        *time.Location
	ProposalTimeout time.Duration
}

// LeadHandler exposes lead browsers over HTTP.
type LeadHandler struct {
	cfg       LeadHandlerConfig
	log       *logrus.Entry
	proposals sync.WaitGroup
}

// NewLeadHandler creates a handler.
func NewLeadHandler(cfg LeadHandlerConfig) *LeadHandler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = models.DefaultPageSize
	}
	if cfg.ProposalTimeout <= 0 {
		cfg.ProposalTimeout = 30 * time.Second
	}
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry(time.Hour)
	}
	return &LeadHandler{cfg: cfg, log: logger.For("leads")}
}

// fetchFailure is returned with 502 when the lead API could not be reached; View is the
// last good state.
type fetchFailure struct {
	Message string       `json:"message"`
	View    browser.View `json:"view"`
}

// entryFor resolves the browser for the request's session and subject, writing an
// error response and returning ok=false when it cannot. opts apply only when the
// browser is built by this call, which created reports.
func (h *LeadHandler) entryFor(w http.ResponseWriter, r *http.Request, opts ...browser.Option) (entry *registryEntry, created, ok bool) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: No session found", http.StatusUnauthorized)
		return nil, false, false
	}

	subjectID := mux.Vars(r)["subjectId"]
	if subjectID == "" {
		http.Error(w, "Subject ID is required", http.StatusBadRequest)
		return nil, false, false
	}
	if subjectID != session.EmployeeID {
		http.Error(w, "Forbidden: You can only browse your own leads", http.StatusForbidden)
		return nil, false, false
	}

	entry, created, err := h.cfg.Registry.getOrCreate(session.ID, subjectID, func() (*registryEntry, error) {
		api := h.cfg.NewAPI(session.Token)
		var lister browser.Lister = api
		if h.cfg.Cache != nil {
			lister = cache.NewLister(api, h.cfg.Cache)
		}
		b, err := browser.New(lister, subjectID, append([]browser.Option{
			browser.WithPageSize(h.cfg.PageSize),
			browser.WithLocation(h.cfg.Location),
			browser.WithCriteria(h.defaultCriteria(session.EmployeeID)),
		}, opts...)...)
		if err != nil {
			return nil, err
		}
		return &registryEntry{browser: b, api: api}, nil
	})
	if err != nil {
		http.Error(w, "Failed to open lead browser: "+err.Error(), http.StatusInternalServerError)
		return nil, false, false
	}
	if created {
		h.log.WithFields(logrus.Fields{"employee_id": session.EmployeeID}).Debug("Opened lead browser")
	}
	return entry, created, true
}

// defaultCriteria is the employee's default saved filter, or no criteria.
func (h *LeadHandler) defaultCriteria(employeeID string) models.FilterCriteria {
	if h.cfg.Filters == nil {
		return models.FilterCriteria{}
	}
	f, err := h.cfg.Filters.Default(employeeID)
	if err != nil {
		h.log.WithError(err).Warn("Failed to load default filter")
		return models.FilterCriteria{}
	}
	if f == nil {
		return models.FilterCriteria{}
	}
	return f.Criteria
}

// respondView writes the browser view, or 502 with the unchanged view when fetchErr
// is a real failure. A superseded fetch is not a failure.
func (h *LeadHandler) respondView(w http.ResponseWriter, b *browser.Browser, fetchErr error) {
	view := b.View()
	if fetchErr == nil || errors.Is(fetchErr, browser.ErrSuperseded) {
		respondJSON(w, http.StatusOK, view)
		return
	}

	var apiErr *leadapi.APIError
	if errors.As(fetchErr, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		respondJSON(w, http.StatusUnauthorized, messageResponse{Message: "Lead API rejected the session token"})
		return
	}
	respondJSON(w, http.StatusBadGateway, fetchFailure{Message: "Failed to fetch leads", View: view})
}

// GetLeads applies filter and page parameters, fetches, and returns the view.
// With filterId the criteria of that saved filter are used instead of query criteria.
func (h *LeadHandler) GetLeads(w http.ResponseWriter, r *http.Request) {
	page, hasPage, err := parsePage(r.URL.Query().Get("page"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var opts []browser.Option
	if hasPage {
		opts = append(opts, browser.WithPage(page))
	}
	entry, created, ok := h.entryFor(w, r, opts...)
	if !ok {
		return
	}
	b := entry.browser

	criteria, hasNewCriteria, err := h.requestedCriteria(r)
	if errors.Is(err, services.ErrFilterNotFound) {
		http.Error(w, "Saved filter not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	switch {
	case hasNewCriteria && hasPage:
		err = b.SetCriteriaAt(ctx, criteria, page)
	case hasNewCriteria:
		err = b.SetCriteria(ctx, criteria)
	case hasPage && !created:
		var moved bool
		moved, err = b.GoToPage(ctx, page)
		if !moved {
			// out of range: the view is left as it is
			respondJSON(w, http.StatusOK, b.View())
			return
		}
	default:
		err = b.Fetch(ctx)
	}

	h.respondView(w, b, err)
}

// requestedCriteria returns the criteria named by the request and whether it names any.
func (h *LeadHandler) requestedCriteria(r *http.Request) (models.FilterCriteria, bool, error) {
	q := r.URL.Query()

	if filterID := q.Get("filterId"); filterID != "" {
		if h.cfg.Filters == nil {
			return models.FilterCriteria{}, false, errors.New("saved filters are not available")
		}
		f, err := h.cfg.Filters.Get(middleware.GetEmployeeIDFromContext(r), filterID)
		if err != nil {
			return models.FilterCriteria{}, false, err
		}
		return f.Criteria, true, nil
	}

	if !hasCriteria(q) {
		return models.FilterCriteria{}, false, nil
	}
	c, err := parseCriteria(q, h.cfg.Location)
	return c, true, err
}

// GoToPage moves the browser to the page in the path. Out of range pages leave it unchanged.
func (h *LeadHandler) GoToPage(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(mux.Vars(r)["page"])
	if err != nil {
		http.Error(w, "Invalid page number", http.StatusBadRequest)
		return
	}
	h.move(w, r, func(b *browser.Browser, ctx context.Context) (bool, error) {
		return b.GoToPage(ctx, n)
	})
}

// NextPage moves the browser forward one page.
func (h *LeadHandler) NextPage(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, (*browser.Browser).NextPage)
}

// PrevPage moves the browser back one page.
func (h *LeadHandler) PrevPage(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, (*browser.Browser).PrevPage)
}

func (h *LeadHandler) move(w http.ResponseWriter, r *http.Request, step func(*browser.Browser, context.Context) (bool, error)) {
	entry, _, ok := h.entryFor(w, r)
	if !ok {
		return
	}
	_, err := step(entry.browser, r.Context())
	h.respondView(w, entry.browser, err)
}

// UpdateRecord sends a partial edit to the lead API and merges the answer into the browser.
func (h *LeadHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	entry, _, ok := h.entryFor(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	var patch models.LeadPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if patch.IsEmpty() {
		http.Error(w, "No fields to update", http.StatusBadRequest)
		return
	}
	if _, found := entry.browser.Record(id); !found {
		http.Error(w, "Lead not found", http.StatusNotFound)
		return
	}

	updated, err := entry.api.UpdateLead(r.Context(), id, patch)
	if err != nil {
		h.log.WithError(err).WithField("lead_id", id).Error("Failed to update lead")
		respondJSON(w, http.StatusBadGateway, messageResponse{Message: "Failed to update lead"})
		return
	}

	entry.browser.MergeEdit(id, updated)
	if h.cfg.Cache != nil {
		if err := h.cfg.Cache.Invalidate(r.Context(), entry.browser.SubjectID()); err != nil {
			h.log.WithError(err).Warn("Failed to invalidate lead page cache")
		}
	}

	record, _ := entry.browser.Record(id)
	respondJSON(w, http.StatusOK, record)
}

// SendProposal queues a proposal for the lead and answers 202 without waiting for it.
func (h *LeadHandler) SendProposal(w http.ResponseWriter, r *http.Request) {
	entry, _, ok := h.entryFor(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]

	record, found := entry.browser.Record(id)
	if !found {
		http.Error(w, "Lead not found", http.StatusNotFound)
		return
	}

	h.proposals.Add(1)
	go func() {
		defer h.proposals.Done()

		ctx, cancel := context.WithTimeout(context.Background(), h.cfg.ProposalTimeout)
		defer cancel()

		log := h.log.WithField("lead_id", record.ID)
		if err := entry.api.SendProposal(ctx, record); err != nil {
			log.WithError(err).Error("Failed to send proposal")
			return
		}
		log.Info("Proposal sent")
	}()

	respondJSON(w, http.StatusAccepted, messageResponse{Message: "Proposal queued"})
}

// WaitProposals blocks until queued proposals have finished.
func (h *LeadHandler) WaitProposals() {
	h.proposals.Wait()
}

// CopyRecord returns the clipboard text of a lead.
func (h *LeadHandler) CopyRecord(w http.ResponseWriter, r *http.Request) {
	entry, _, ok := h.entryFor(w, r)
	if !ok {
		return
	}

	text, found := entry.browser.ClipboardText(mux.Vars(r)["id"])
	if !found {
		http.Error(w, "Lead not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(text))
}
