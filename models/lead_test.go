package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestLeadRecordWireNames(t *testing.T) {
	data := []byte(`{"businessId":"b1","buisnessname":"Acme","mobileNumber":"98","city":"Pune",
		"category":"Retail","status":"New","appointmentDate":"2024-03-10T09:00:00.000Z"}`)

	var r LeadRecord
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("Error decoding lead: %v", err)
	}
	if r.ID != "b1" || r.BusinessName != "Acme" {
		t.Errorf("Expected b1/Acme, got %s/%s", r.ID, r.BusinessName)
	}
	if r.AppointmentDate == nil || !r.AppointmentDate.Equal(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected appointment date %v", r.AppointmentDate)
	}
	if r.FollowUpDate != nil {
		t.Error("Expected absent follow-up date to stay nil")
	}
}

func TestLeadPatchApply(t *testing.T) {
	follow := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	status := "Won"
	lead := LeadRecord{ID: "b1", BusinessName: "Acme", City: "Pune", Status: "New"}

	got := LeadPatch{Status: &status, FollowUpDate: &follow}.Apply(lead)

	if got.Status != "Won" {
		t.Errorf("Expected status 'Won', got '%s'", got.Status)
	}
	if got.City != "Pune" || got.BusinessName != "Acme" {
		t.Error("Expected fields without a patch value to be kept")
	}
	if got.FollowUpDate == nil || !got.FollowUpDate.Equal(follow) {
		t.Errorf("Expected follow-up date %v, got %v", follow, got.FollowUpDate)
	}
	if got.FollowUpDate == &follow {
		t.Error("Expected the patched date to be copied")
	}
	if lead.Status != "New" {
		t.Error("Expected the original record to be untouched")
	}
}

func TestLeadPatchIsEmpty(t *testing.T) {
	if !(LeadPatch{}).IsEmpty() {
		t.Error("Expected zero patch to be empty")
	}
	city := ""
	if (LeadPatch{City: &city}).IsEmpty() {
		t.Error("Expected a patch clearing a field not to be empty")
	}
}
