package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"leaddesk/backend/models"
	"leaddesk/backend/security"
)

const dateLayout = "2006-01-02"

// Profile is what leadctl remembers between runs: where the lead API is, who is logged
// in and where in the lead list they were.
type Profile struct {
	BaseURL  string `toml:"base_url"`
	Timezone string `toml:"timezone"`
	PageSize int    `toml:"page_size"`

	Token      string `toml:"token"`
	EmployeeID string `toml:"employee_id"`
	Name       string `toml:"name"`
	Role       string `toml:"role"`

	Page       int           `toml:"page"`
	TotalPages int           `toml:"total_pages"`
	Filter     ProfileFilter `toml:"filter"`
}

// ProfileFilter is FilterCriteria in a form that reads well in TOML.
type ProfileFilter struct {
	StartDate    string `toml:"start_date,omitempty"`
	EndDate      string `toml:"end_date,omitempty"`
	MobileNumber string `toml:"mobile_number,omitempty"`
	BusinessName string `toml:"business_name,omitempty"`
	City         string `toml:"city,omitempty"`
	Category     string `toml:"category,omitempty"`
	Status       string `toml:"status,omitempty"`
}

func defaultProfile() *Profile {
	return &Profile{
		BaseURL:  "http://localhost:5000",
		Timezone: "Local",
		PageSize: models.DefaultPageSize,
		Page:     1,
	}
}

// DefaultProfilePath is leadctl/profile.toml under the user config directory.
func DefaultProfilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "leadctl.toml"
	}
	return filepath.Join(dir, "leadctl", "profile.toml")
}

// LoadProfile reads the profile at path. A missing file yields the defaults.
func LoadProfile(path string) (*Profile, error) {
	p := defaultProfile()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return nil, err
	}
	if _, err := toml.DecodeFile(path, p); err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}
	if p.PageSize < 1 {
		p.PageSize = models.DefaultPageSize
	}
	if p.Page < 1 {
		p.Page = 1
	}
	return p, nil
}

// Save writes the profile to path, readable only by the owner since it holds the token.
func (p *Profile) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(p)
}

// Authenticated reports whether the profile holds a token that has not expired at now.
// Tokens without an exp claim count as live until the API rejects them.
func (p *Profile) Authenticated(now time.Time) bool {
	if p.Token == "" || p.EmployeeID == "" {
		return false
	}
	if exp, ok := security.TokenExpiry(p.Token); ok {
		return now.Before(exp)
	}
	return true
}

// Logout forgets the employee and their place in the lead list.
func (p *Profile) Logout() {
	p.Token = ""
	p.EmployeeID = ""
	p.Name = ""
	p.Role = ""
	p.Page = 1
	p.TotalPages = 0
}

// Location resolves Timezone.
func (p *Profile) Location() (*time.Location, error) {
	if p.Timezone == "" || strings.EqualFold(p.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(p.Timezone)
}

// Criteria converts the stored filter. Dates are whole days in loc.
func (p *Profile) Criteria(loc *time.Location) (models.FilterCriteria, error) {
	f := p.Filter
	c := models.FilterCriteria{
		MobileNumber: f.MobileNumber,
		BusinessName: f.BusinessName,
		City:         f.City,
		Category:     f.Category,
		Status:       f.Status,
	}
	if f.StartDate == "" && f.EndDate == "" {
		return c, nil
	}
	if f.StartDate == "" || f.EndDate == "" {
		return c, errors.New("both start and end dates are required for a date range")
	}
	start, err := time.ParseInLocation(dateLayout, f.StartDate, loc)
	if err != nil {
		return c, fmt.Errorf("invalid start date %q: %w", f.StartDate, err)
	}
	end, err := time.ParseInLocation(dateLayout, f.EndDate, loc)
	if err != nil {
		return c, fmt.Errorf("invalid end date %q: %w", f.EndDate, err)
	}
	if end.Before(start) {
		return c, errors.New("end date is before start date")
	}
	c.DateRange = &models.DateRange{Start: start, End: end}
	return c, nil
}
