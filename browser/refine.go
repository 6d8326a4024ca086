package browser

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"leaddesk/backend/models"
)

// strippedNameChars are removed from business names before matching
const strippedNameChars = `-/",`

// NormalizeName folds a business name for matching: diacritics removed, lowercased,
// the characters - / " , dropped and all whitespace dropped.
func NormalizeName(s string) string {
	// transform chains carry state, so one is built per call
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, s); err == nil {
		s = folded
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) || strings.ContainsRune(strippedNameChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DayBounds returns the first and last representable instants of the local days of start and end.
func DayBounds(start, end time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	s := start.In(loc)
	e := end.In(loc)
	return time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc),
		time.Date(e.Year(), e.Month(), e.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
}

type predicate func(models.LeadRecord) bool

// Refine returns the records that satisfy every active predicate in c, in input order.
// Day boundaries for the date range are computed in loc.
func Refine(records []models.LeadRecord, c models.FilterCriteria, loc *time.Location) []models.LeadRecord {
	preds := predicates(c, loc)

	out := make([]models.LeadRecord, 0, len(records))
	for _, r := range records {
		if matchesAll(r, preds) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether a single record satisfies c.
func Matches(r models.LeadRecord, c models.FilterCriteria, loc *time.Location) bool {
	return matchesAll(r, predicates(c, loc))
}

func matchesAll(r models.LeadRecord, preds []predicate) bool {
	for _, p := range preds {
		if !p(r) {
			return false
		}
	}
	return true
}

func predicates(c models.FilterCriteria, loc *time.Location) []predicate {
	var preds []predicate

	if c.DateRange.Active() {
		start, end := DayBounds(c.DateRange.Start, c.DateRange.End, loc)
		preds = append(preds, func(r models.LeadRecord) bool {
			if r.AppointmentDate == nil {
				return false
			}
			at := *r.AppointmentDate
			return !at.Before(start) && !at.After(end)
		})
	}

	if c.MobileNumber != "" {
		mobile := c.MobileNumber
		preds = append(preds, func(r models.LeadRecord) bool {
			return strings.Contains(r.MobileNumber, mobile)
		})
	}

	if c.BusinessName != "" {
		term := NormalizeName(c.BusinessName)
		preds = append(preds, func(r models.LeadRecord) bool {
			return strings.Contains(NormalizeName(r.BusinessName), term)
		})
	}

	if c.City != "" {
		preds = append(preds, func(r models.LeadRecord) bool { return r.City == c.City })
	}
	if c.Category != "" {
		preds = append(preds, func(r models.LeadRecord) bool { return r.Category == c.Category })
	}
	if c.Status != "" {
		preds = append(preds, func(r models.LeadRecord) bool { return r.Status == c.Status })
	}

	return preds
}
