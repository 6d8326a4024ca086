package leadapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"leaddesk/backend/browser"
	"leaddesk/backend/models"
)

// boundLayout is ISO-8601 UTC with millisecond precision.
const boundLayout = "2006-01-02T15:04:05.000Z"

// ListLeads fetches one page of leads for q.SubjectID.
func (c *Client) ListLeads(ctx context.Context, q models.ListQuery) (*models.LeadPage, error) {
	var page models.LeadPage
	if err := c.do(ctx, http.MethodGet, "/api/business/get", ListParams(q, c.loc), nil, &page); err != nil {
		return nil, err
	}
	if err := c.check(&page); err != nil {
		return nil, err
	}
	if err := uniqueIDs(page.Records); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListParams encodes a listing query. Unset criteria are omitted and day bounds are
// computed in loc.
func ListParams(q models.ListQuery, loc *time.Location) url.Values {
	v := url.Values{}
	v.Set("bdeId", q.SubjectID)
	v.Set("page", strconv.Itoa(max(1, q.Page)))
	size := q.PageSize
	if size <= 0 {
		size = models.DefaultPageSize
	}
	v.Set("limit", strconv.Itoa(size))

	c := q.Criteria
	if c.DateRange.Active() {
		start, end := browser.DayBounds(c.DateRange.Start, c.DateRange.End, loc)
		v.Set("startDate", start.UTC().Format(boundLayout))
		v.Set("endDate", end.UTC().Format(boundLayout))
	}
	setIf(v, "mobileNumber", c.MobileNumber)
	setIf(v, "businessName", c.BusinessName)
	setIf(v, "city", c.City)
	setIf(v, "category", c.Category)
	setIf(v, "status", c.Status)

	v.Set("byTagAppointment", "true")
	v.Set("appointmentDate", "true")
	return v
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func uniqueIDs(records []models.LeadRecord) error {
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: duplicate businessId %q", ErrInvalidResponse, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

// UpdateLead sends a partial edit for the lead with the given id and returns the
// fields the API echoes back, to be merged into local state.
func (c *Client) UpdateLead(ctx context.Context, id string, patch models.LeadPatch) (models.LeadPatch, error) {
	if id == "" {
		return models.LeadPatch{}, fmt.Errorf("lead id is required")
	}

	var updated models.LeadPatch
	path := "/api/business/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPut, path, nil, patch, &updated); err != nil {
		return models.LeadPatch{}, err
	}
	if updated.IsEmpty() {
		// some deployments answer with an empty body; fall back to what was sent
		return patch, nil
	}
	return updated, nil
}

// SendProposal asks the API to send a proposal for the lead. The response body is ignored.
func (c *Client) SendProposal(ctx context.Context, lead models.LeadRecord) error {
	if lead.ID == "" {
		return fmt.Errorf("lead id is required")
	}
	return c.do(ctx, http.MethodPost, "/api/proposal/send", nil, lead, nil)
}
