package models

import "time"

// DateRange bounds the appointment date. Both ends must be set for the range to apply.
type DateRange struct {
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
}

// Active reports whether both bounds are present.
func (r *DateRange) Active() bool {
	return r != nil && !r.Start.IsZero() && !r.End.IsZero()
}

// FilterCriteria narrows the lead list. An empty field means no constraint.
type FilterCriteria struct {
	DateRange    *DateRange `json:"dateRange,omitempty"`
	MobileNumber string     `json:"mobileNumber,omitempty"`
	BusinessName string     `json:"businessName,omitempty"`
	City         string     `json:"city,omitempty"`
	Category     string     `json:"category,omitempty"`
	Status       string     `json:"status,omitempty"`
}

// IsZero reports whether no predicate is active.
func (c FilterCriteria) IsZero() bool {
	return !c.DateRange.Active() &&
		c.MobileNumber == "" &&
		c.BusinessName == "" &&
		c.City == "" &&
		c.Category == "" &&
		c.Status == ""
}

// SavedFilter is a named FilterCriteria preset owned by an employee
type SavedFilter struct {
	ID         string         `json:"id" db:"id"`
	Name       string         `json:"name" db:"name"`
	EmployeeID string         `json:"employeeId" db:"employee_id"`
	Criteria   FilterCriteria `json:"criteria" db:"-"`
	IsDefault  bool           `json:"isDefault" db:"is_default"`
	CreatedAt  time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time      `json:"updatedAt" db:"updated_at"`
}
