package models

import "time"

// LeadRecord is a single business lead as served by the lead API.
// The API spells the business name key "buisnessname"; the tag keeps the wire name.
type LeadRecord struct {
	ID              string     `json:"businessId" validate:"required"`
	BusinessName    string     `json:"buisnessname"`
	MobileNumber    string     `json:"mobileNumber"`
	City            string     `json:"city"`
	Category        string     `json:"category"`
	Status          string     `json:"status"`
	AppointmentDate *time.Time `json:"appointmentDate,omitempty"`
	FollowUpDate    *time.Time `json:"followUpDate,omitempty"`
}

// LeadPatch is a partial update for a lead. Nil fields are left untouched on merge.
type LeadPatch struct {
	BusinessName    *string    `json:"buisnessname,omitempty"`
	MobileNumber    *string    `json:"mobileNumber,omitempty"`
	City            *string    `json:"city,omitempty"`
	Category        *string    `json:"category,omitempty"`
	Status          *string    `json:"status,omitempty"`
	AppointmentDate *time.Time `json:"appointmentDate,omitempty"`
	FollowUpDate    *time.Time `json:"followUpDate,omitempty"`
}

// Apply returns a copy of l with every non-nil field of p written over it.
func (p LeadPatch) Apply(l LeadRecord) LeadRecord {
	if p.BusinessName != nil {
		l.BusinessName = *p.BusinessName
	}
	if p.MobileNumber != nil {
		l.MobileNumber = *p.MobileNumber
	}
	if p.City != nil {
		l.City = *p.City
	}
	if p.Category != nil {
		l.Category = *p.Category
	}
	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.AppointmentDate != nil {
		t := *p.AppointmentDate
		l.AppointmentDate = &t
	}
	if p.FollowUpDate != nil {
		t := *p.FollowUpDate
		l.FollowUpDate = &t
	}
	return l
}

// IsEmpty reports whether the patch carries no field updates.
func (p LeadPatch) IsEmpty() bool {
	return p == LeadPatch{}
}
