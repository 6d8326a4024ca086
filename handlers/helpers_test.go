package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"leaddesk/backend/database/databasetest"
	"leaddesk/backend/middleware"
	"leaddesk/backend/models"
	"leaddesk/backend/services"
)

// testSession is the session every test request runs as unless it says otherwise
var testSession = models.Session{ID: "s1", EmployeeID: "e1", EmployeeName: "Asha", Role: models.RoleBDE, Token: "tok-e1"}

// fakeLeadAPI serves three pages of two leads each. Page n holds leads pn-a (Pune)
// and pn-b (Delhi).
type fakeLeadAPI struct {
	mu         sync.Mutex
	token      string
	queries    []models.ListQuery
	listErr    error
	patches    map[string]models.LeadPatch
	updateErr  error
	proposals  []models.LeadRecord
	proposalCh chan struct{}
}

func newFakeLeadAPI() *fakeLeadAPI {
	return &fakeLeadAPI{patches: map[string]models.LeadPatch{}, proposalCh: make(chan struct{}, 8)}
}

func (f *fakeLeadAPI) ListLeads(ctx context.Context, q models.ListQuery) (*models.LeadPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &models.LeadPage{
		Records: []models.LeadRecord{
			{ID: fmt.Sprintf("p%d-a", q.Page), BusinessName: fmt.Sprintf("Acme %d", q.Page), MobileNumber: "98765", City: "Pune", Category: "Retail", Status: "New"},
			{ID: fmt.Sprintf("p%d-b", q.Page), BusinessName: fmt.Sprintf("Beta %d", q.Page), MobileNumber: "91234", City: "Delhi", Category: "Food", Status: "Closed"},
		},
		TotalPages:  3,
		CurrentPage: q.Page,
	}, nil
}

func (f *fakeLeadAPI) UpdateLead(ctx context.Context, id string, patch models.LeadPatch) (models.LeadPatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return models.LeadPatch{}, f.updateErr
	}
	f.patches[id] = patch
	return patch, nil
}

func (f *fakeLeadAPI) SendProposal(ctx context.Context, lead models.LeadRecord) error {
	f.mu.Lock()
	f.proposals = append(f.proposals, lead)
	f.mu.Unlock()
	f.proposalCh <- struct{}{}
	return nil
}

func (f *fakeLeadAPI) setListErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

func (f *fakeLeadAPI) lastQuery() models.ListQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func (f *fakeLeadAPI) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

// withTestSession stands in for RequireSession.
func withTestSession(session models.Session) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Test-Anonymous") != "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(middleware.WithSession(r.Context(), session)))
		})
	}
}

// newLeadRouter routes lead requests the way the server does, with a fixed session.
func newLeadRouter(h *LeadHandler, session models.Session) *mux.Router {
	r := mux.NewRouter()
	r.Use(withTestSession(session))
	leads := r.PathPrefix("/leads/{subjectId}").Subrouter()
	leads.HandleFunc("", h.GetLeads).Methods("GET")
	leads.HandleFunc("/page/{page:[0-9]+}", h.GoToPage).Methods("POST")
	leads.HandleFunc("/next", h.NextPage).Methods("POST")
	leads.HandleFunc("/prev", h.PrevPage).Methods("POST")
	leads.HandleFunc("/records/{id}", h.UpdateRecord).Methods("PATCH")
	leads.HandleFunc("/records/{id}/proposal", h.SendProposal).Methods("POST")
	leads.HandleFunc("/records/{id}/clipboard", h.CopyRecord).Methods("GET")
	return r
}

func newTestFilterStore(t *testing.T) *services.FilterStore {
	t.Helper()
	db, cleanup := databasetest.SetupTestDB(t)
	t.Cleanup(cleanup)
	return services.NewFilterStore(db)
}

func doRequest(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
