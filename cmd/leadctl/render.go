package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"leaddesk/backend/browser"
	"leaddesk/backend/models"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	currentStyle = lipgloss.NewStyle().Bold(true).Reverse(true)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
)

func formatDate(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.In(loc).Format("02/01/2006")
}

func leadRows(records []models.LeadRecord, loc *time.Location) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.ID,
			r.BusinessName,
			r.MobileNumber,
			r.City,
			r.Category,
			r.Status,
			formatDate(r.AppointmentDate, loc),
			formatDate(r.FollowUpDate, loc),
		})
	}
	return rows
}

// pagerLine renders the page buttons, with the current page highlighted and the
// arrows dimmed when disabled.
func pagerLine(v browser.View) string {
	parts := make([]string, 0, len(v.Window)+2)

	prev := "<"
	if !v.CanPrev {
		prev = mutedStyle.Render(prev)
	}
	parts = append(parts, prev)

	for _, n := range v.Window {
		label := strconv.Itoa(n)
		if n == v.Page.Current {
			label = currentStyle.Render(" " + label + " ")
		}
		parts = append(parts, label)
	}

	next := ">"
	if !v.CanNext {
		next = mutedStyle.Render(next)
	}
	parts = append(parts, next)

	return strings.Join(parts, " ")
}

func renderView(w io.Writer, v browser.View, loc *time.Location) error {
	if len(v.Records) == 0 {
		if _, err := fmt.Fprintln(w, "No leads match the current filter"); err != nil {
			return err
		}
	} else {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return lipgloss.NewStyle()
			}).
			Headers("ID", "Business", "Mobile", "City", "Category", "Status", "Appointment", "Follow-up").
			Rows(leadRows(v.Records, loc)...)
		if _, err := fmt.Fprintln(w, t.String()); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "%s  page %d of %d, showing %d of %d\n",
		pagerLine(v), v.Page.Current, v.Page.LastPage(), len(v.Records), v.Total)
	if err != nil {
		return err
	}

	facets := [][2]string{
		{"Cities", strings.Join(v.Facets.Cities, ", ")},
		{"Categories", strings.Join(v.Facets.Categories, ", ")},
		{"Statuses", strings.Join(v.Facets.Statuses, ", ")},
	}
	for _, f := range facets {
		if f[1] == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", mutedStyle.Render(f[0]+":"), f[1]); err != nil {
			return err
		}
	}
	return nil
}
