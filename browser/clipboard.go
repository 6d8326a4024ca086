package browser

import (
	"fmt"
	"time"

	"leaddesk/backend/models"
)

// ClipboardText renders a lead as the multi-line block employees paste into chats.
func ClipboardText(r models.LeadRecord, loc *time.Location) string {
	return fmt.Sprintf("Name: %s\nMobile Number: %s\nCity: %s\nCategory: %s\nStatus: %s\nFollow-up Date: %s",
		r.BusinessName, r.MobileNumber, r.City, r.Category, r.Status, formatDay(r.FollowUpDate, loc))
}

func formatDay(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format("02/01/2006")
}
