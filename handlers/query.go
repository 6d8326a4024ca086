package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"leaddesk/backend/models"
)

// criteriaParams are the query parameters that carry filter criteria
var criteriaParams = []string{"startDate", "endDate", "mobileNumber", "businessName", "city", "category", "status"}

// hasCriteria reports whether any filter parameter is present, even if empty.
func hasCriteria(q url.Values) bool {
	for _, p := range criteriaParams {
		if _, ok := q[p]; ok {
			return true
		}
	}
	return false
}

// parseCriteria reads filter criteria from query parameters. Dates are either
// YYYY-MM-DD in loc or RFC 3339. A range needs both ends.
func parseCriteria(q url.Values, loc *time.Location) (models.FilterCriteria, error) {
	c := models.FilterCriteria{
		MobileNumber: strings.TrimSpace(q.Get("mobileNumber")),
		BusinessName: strings.TrimSpace(q.Get("businessName")),
		City:         q.Get("city"),
		Category:     q.Get("category"),
		Status:       q.Get("status"),
	}

	start, err := parseDate(q.Get("startDate"), loc)
	if err != nil {
		return c, fmt.Errorf("invalid startDate: %w", err)
	}
	end, err := parseDate(q.Get("endDate"), loc)
	if err != nil {
		return c, fmt.Errorf("invalid endDate: %w", err)
	}

	switch {
	case start.IsZero() && end.IsZero():
	case start.IsZero() || end.IsZero():
		return c, fmt.Errorf("startDate and endDate must be given together")
	case end.Before(start):
		return c, fmt.Errorf("endDate is before startDate")
	default:
		c.DateRange = &models.DateRange{Start: start, End: end}
	}
	return c, nil
}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", value, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// parsePage reads a 1-indexed page number. ok is false when the parameter is absent.
func parsePage(value string) (page int, ok bool, err error) {
	if value == "" {
		return 0, false, nil
	}
	page, err = strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("invalid page %q", value)
	}
	return page, true, nil
}
