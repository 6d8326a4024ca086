package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leaddesk/backend/models"
)

func TestLoadProfileMissingFileGivesDefaults(t *testing.T) {
	p, err := LoadProfile(filepath.Join(t.TempDir(), "none.toml"))
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPageSize, p.PageSize)
	assert.Equal(t, 1, p.Page)
	assert.False(t, p.Authenticated(time.Now()))
}

func TestProfileSaveIsPrivate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "profile.toml")
	p := defaultProfile()
	p.Token = "tok"
	p.EmployeeID = "e1"
	p.Filter.City = "Pune"
	require.NoError(t, p.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "Pune", loaded.Filter.City)
	assert.Equal(t, "tok", loaded.Token)
}

func TestProfileAuthenticated(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	sign := func(exp time.Time) string {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name  string
		token string
		id    string
		want  bool
	}{
		{"no token", "", "e1", false},
		{"no employee", "opaque", "", false},
		{"opaque token", "opaque", "e1", true},
		{"live jwt", sign(now.Add(time.Hour)), "e1", true},
		{"expired jwt", sign(now.Add(-time.Minute)), "e1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Profile{Token: tt.token, EmployeeID: tt.id}
			assert.Equal(t, tt.want, p.Authenticated(now))
		})
	}
}

func TestProfileCriteria(t *testing.T) {
	ist := time.FixedZone("IST", 5*60*60+30*60)
	p := &Profile{Filter: ProfileFilter{
		StartDate:    "2024-03-01",
		EndDate:      "2024-03-05",
		BusinessName: "acme",
		Status:       "New",
	}}

	c, err := p.Criteria(ist)
	require.NoError(t, err)
	require.True(t, c.DateRange.Active())
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, ist), c.DateRange.Start)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, ist), c.DateRange.End)
	assert.Equal(t, "acme", c.BusinessName)
	assert.Equal(t, "New", c.Status)
}

func TestProfileCriteriaErrors(t *testing.T) {
	tests := []struct {
		name   string
		filter ProfileFilter
	}{
		{"half range", ProfileFilter{StartDate: "2024-03-01"}},
		{"bad date", ProfileFilter{StartDate: "01/03/2024", EndDate: "2024-03-05"}},
		{"reversed", ProfileFilter{StartDate: "2024-03-05", EndDate: "2024-03-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Profile{Filter: tt.filter}
			_, err := p.Criteria(time.UTC)
			assert.Error(t, err)
		})
	}
}

func TestProfileLogout(t *testing.T) {
	p := &Profile{Token: "t", EmployeeID: "e1", Name: "Asha", Role: "bde", Page: 3, TotalPages: 4}
	p.Logout()
	assert.Empty(t, p.Token)
	assert.Empty(t, p.EmployeeID)
	assert.Equal(t, 1, p.Page)
	assert.Zero(t, p.TotalPages)
}
