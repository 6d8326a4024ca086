package models

import (
	"testing"
	"time"
)

func TestPageStateClamp(t *testing.T) {
	tests := []struct {
		name string
		in   PageState
		want int
	}{
		{"in range", PageState{Current: 2, TotalPages: 3}, 2},
		{"past the end", PageState{Current: 5, TotalPages: 3}, 3},
		{"below one", PageState{Current: 0, TotalPages: 3}, 1},
		{"no pages", PageState{Current: 4, TotalPages: 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Clamp().Current; got != tt.want {
				t.Errorf("Expected page %d, got %d", tt.want, got)
			}
		})
	}
}

func TestPageStateContains(t *testing.T) {
	p := PageState{Current: 1, TotalPages: 3}
	for n, want := range map[int]bool{0: false, 1: true, 3: true, 4: false} {
		if got := p.Contains(n); got != want {
			t.Errorf("Contains(%d) = %v, want %v", n, got, want)
		}
	}
	if (PageState{TotalPages: 0}).Contains(1) {
		t.Error("Expected an empty result to contain no pages")
	}
}

func TestFilterCriteriaIsZero(t *testing.T) {
	if !(FilterCriteria{}).IsZero() {
		t.Error("Expected empty criteria to be zero")
	}
	half := FilterCriteria{DateRange: &DateRange{Start: time.Now()}}
	if !half.IsZero() {
		t.Error("Expected a half-open date range to be no constraint")
	}
	if (FilterCriteria{Status: "New"}).IsZero() {
		t.Error("Expected a status filter to be active")
	}
}

func TestEmployeeDashboardPath(t *testing.T) {
	tests := map[string]string{
		RoleBDE:             "/bde/bde-dashboard/e1",
		RoleTelecaller:      "/telecaler/telecaller-dashboard/e1",
		RoleDigitalMarketer: "/digitalmarketer/digitalmarketer-dashboard/e1",
		"hr":                "",
	}
	for role, want := range tests {
		if got := (Employee{ID: "e1", Role: role}).DashboardPath(); got != want {
			t.Errorf("Role %s: expected %q, got %q", role, want, got)
		}
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: now.Add(time.Minute)}
	if s.Expired(now) {
		t.Error("Expected session to be live before expiry")
	}
	if !s.Expired(now.Add(time.Minute)) {
		t.Error("Expected session to be expired at its expiry")
	}
}
