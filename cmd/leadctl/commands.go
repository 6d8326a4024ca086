package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"leaddesk/backend/browser"
	"leaddesk/backend/leadapi"
	"leaddesk/backend/logger"
	"leaddesk/backend/models"
)

var errNotLoggedIn = errors.New("not logged in, run leadctl login")

func (a *app) save() error {
	return a.profile.Save(a.profilePath)
}

func (a *app) client() (*leadapi.Client, error) {
	loc, err := a.profile.Location()
	if err != nil {
		return nil, err
	}
	return leadapi.New(leadapi.Options{
		BaseURL:  a.profile.BaseURL,
		Token:    a.profile.Token,
		Location: loc,
		Logger:   logger.For("leadctl"),
	}), nil
}

func (a *app) requireLogin() error {
	if !a.profile.Authenticated(a.now()) {
		return errNotLoggedIn
	}
	return nil
}

// browse fetches page of the logged-in employee's leads with the profile filter and
// records where the list ended up.
func (a *app) browse(ctx context.Context, page int) (*browser.Browser, error) {
	if err := a.requireLogin(); err != nil {
		return nil, err
	}
	loc, err := a.profile.Location()
	if err != nil {
		return nil, err
	}
	criteria, err := a.profile.Criteria(loc)
	if err != nil {
		return nil, err
	}
	client, err := a.client()
	if err != nil {
		return nil, err
	}

	b, err := browser.New(client, a.profile.EmployeeID,
		browser.WithPageSize(a.profile.PageSize),
		browser.WithLocation(loc),
		browser.WithCriteria(criteria),
		browser.WithPage(page),
		browser.WithLogger(logger.For("leadctl")),
	)
	if err != nil {
		return nil, err
	}

	if err := b.Fetch(ctx); err != nil {
		var apiErr *leadapi.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			a.profile.Logout()
			if saveErr := a.save(); saveErr != nil {
				return nil, saveErr
			}
			return nil, errors.New("session expired, run leadctl login")
		}
		return nil, err
	}

	state := b.Page()
	a.profile.Page = state.Current
	a.profile.TotalPages = state.TotalPages
	return b, a.save()
}

func (a *app) show(ctx context.Context, page int) error {
	b, err := a.browse(ctx, page)
	if err != nil {
		return err
	}
	return renderView(a.out, b.View(), b.Location())
}

func newLoginCmd(a *app) *cobra.Command {
	var mobile, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the token in the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("LEADCTL_PASSWORD")
			}
			var missing []string
			if strings.TrimSpace(mobile) == "" {
				missing = append(missing, "Mobile number is required.")
			}
			if password == "" {
				missing = append(missing, "Password is required.")
			}
			if len(missing) > 0 {
				return errors.New(strings.Join(missing, " "))
			}

			client, err := a.client()
			if err != nil {
				return err
			}
			emp, err := client.Login(cmd.Context(), strings.TrimSpace(mobile), password)
			if errors.Is(err, leadapi.ErrInvalidCredentials) {
				return errors.New("invalid mobile number or password")
			}
			if err != nil {
				return err
			}

			a.profile.Token = emp.Token
			a.profile.EmployeeID = emp.ID
			a.profile.Name = emp.Name
			a.profile.Role = emp.Role
			a.profile.Page = 1
			a.profile.TotalPages = 0
			if err := a.save(); err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Logged in as %s (%s)\n", emp.Name, emp.Role)
			if path := emp.DashboardPath(); path != "" {
				fmt.Fprintf(a.out, "Dashboard: %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&mobile, "mobile", "m", "", "Mobile number")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (or set LEADCTL_PASSWORD)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.profile.Logout()
			if err := a.save(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var (
		page        int
		clearFilter bool
		filter      ProfileFilter
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List leads on the current page, optionally changing the filter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearFilter {
				a.profile.Filter = ProfileFilter{}
			}
			f := cmd.Flags()
			set := func(name string, dst *string, v string) {
				if f.Changed(name) {
					*dst = strings.TrimSpace(v)
				}
			}
			set("start", &a.profile.Filter.StartDate, filter.StartDate)
			set("end", &a.profile.Filter.EndDate, filter.EndDate)
			set("mobile", &a.profile.Filter.MobileNumber, filter.MobileNumber)
			set("name", &a.profile.Filter.BusinessName, filter.BusinessName)
			set("city", &a.profile.Filter.City, filter.City)
			set("category", &a.profile.Filter.Category, filter.Category)
			set("status", &a.profile.Filter.Status, filter.Status)

			if !f.Changed("page") {
				page = a.profile.Page
			}
			return a.show(cmd.Context(), page)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&page, "page", 1, "Page to show (defaults to the saved page)")
	flags.BoolVar(&clearFilter, "clear", false, "Clear the saved filter first")
	flags.StringVar(&filter.StartDate, "start", "", "Appointment range start (YYYY-MM-DD)")
	flags.StringVar(&filter.EndDate, "end", "", "Appointment range end (YYYY-MM-DD)")
	flags.StringVar(&filter.MobileNumber, "mobile", "", "Mobile number contains")
	flags.StringVar(&filter.BusinessName, "name", "", "Business name contains")
	flags.StringVar(&filter.City, "city", "", "City")
	flags.StringVar(&filter.Category, "category", "", "Category")
	flags.StringVar(&filter.Status, "status", "", "Status")
	return cmd
}

// pageCmd moves the saved page by step. Moving past either end prints a notice without
// contacting the lead API.
func pageCmd(a *app, use, short string, step int, edge string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			state := models.PageState{Current: a.profile.Page, TotalPages: a.profile.TotalPages}
			target := state.Current + step
			if !state.Contains(target) {
				fmt.Fprintln(a.out, edge)
				return nil
			}
			return a.show(cmd.Context(), target)
		},
	}
}

func newNextCmd(a *app) *cobra.Command {
	return pageCmd(a, "next", "Show the next page", 1, "Already on the last page")
}

func newPrevCmd(a *app) *cobra.Command {
	return pageCmd(a, "prev", "Show the previous page", -1, "Already on the first page")
}

func newCopyCmd(a *app) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "copy <lead-id>",
		Short: "Copy a lead on the current page to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.browse(cmd.Context(), a.profile.Page)
			if err != nil {
				return err
			}
			text, ok := b.ClipboardText(args[0])
			if !ok {
				return fmt.Errorf("lead %s is not on page %d", args[0], a.profile.Page)
			}

			if printOnly {
				fmt.Fprintln(a.out, text)
				return nil
			}
			if err := a.copy(text); err != nil {
				return fmt.Errorf("failed to copy to clipboard: %w", err)
			}
			fmt.Fprintf(a.out, "Copied lead %s to the clipboard\n", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the text instead of copying it")
	return cmd
}
