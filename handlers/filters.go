package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"leaddesk/backend/middleware"
	"leaddesk/backend/models"
	"leaddesk/backend/services"
)

// FilterHandler serves the employee's saved filter presets.
type FilterHandler struct {
	store *services.FilterStore
}

// NewFilterHandler creates a handler over store.
func NewFilterHandler(store *services.FilterStore) *FilterHandler {
	return &FilterHandler{store: store}
}

type savedFilterRequest struct {
	Name      string                `json:"name"`
	Criteria  models.FilterCriteria `json:"criteria"`
	IsDefault bool                  `json:"isDefault"`
}

// employeeID returns the caller or writes 401.
func employeeID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := middleware.GetEmployeeIDFromContext(r)
	if id == "" {
		http.Error(w, "Unauthorized: No employee ID found", http.StatusUnauthorized)
		return "", false
	}
	return id, true
}

func respondFilterError(w http.ResponseWriter, action string, err error) {
	if errors.Is(err, services.ErrFilterNotFound) {
		http.Error(w, "Saved filter not found", http.StatusNotFound)
		return
	}
	http.Error(w, "Failed to "+action+" saved filter: "+err.Error(), http.StatusInternalServerError)
}

// GetSavedFilters returns all saved filters for the current employee
func (h *FilterHandler) GetSavedFilters(w http.ResponseWriter, r *http.Request) {
	empID, ok := employeeID(w, r)
	if !ok {
		return
	}

	filters, err := h.store.List(empID)
	if err != nil {
		http.Error(w, "Failed to get saved filters: "+err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, filters)
}

// GetSavedFilter returns a specific saved filter
func (h *FilterHandler) GetSavedFilter(w http.ResponseWriter, r *http.Request) {
	empID, ok := employeeID(w, r)
	if !ok {
		return
	}

	filter, err := h.store.Get(empID, mux.Vars(r)["id"])
	if err != nil {
		respondFilterError(w, "get", err)
		return
	}
	respondJSON(w, http.StatusOK, filter)
}

// CreateSavedFilter stores a new preset
func (h *FilterHandler) CreateSavedFilter(w http.ResponseWriter, r *http.Request) {
	empID, ok := employeeID(w, r)
	if !ok {
		return
	}

	var req savedFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	filter, err := h.store.Create(empID, req.Name, req.Criteria, req.IsDefault)
	if err != nil {
		http.Error(w, "Failed to create saved filter: "+err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, filter)
}

// UpdateSavedFilter replaces a preset
func (h *FilterHandler) UpdateSavedFilter(w http.ResponseWriter, r *http.Request) {
	empID, ok := employeeID(w, r)
	if !ok {
		return
	}

	var req savedFilterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	filter, err := h.store.Update(empID, mux.Vars(r)["id"], req.Name, req.Criteria, req.IsDefault)
	if err != nil {
		respondFilterError(w, "update", err)
		return
	}
	respondJSON(w, http.StatusOK, filter)
}

// DeleteSavedFilter removes a preset
func (h *FilterHandler) DeleteSavedFilter(w http.ResponseWriter, r *http.Request) {
	empID, ok := employeeID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(empID, mux.Vars(r)["id"]); err != nil {
		respondFilterError(w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
