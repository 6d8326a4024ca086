// Command leadctl is a terminal lead browser. It logs in against the lead API, keeps
// the token and the current page in a TOML profile, and lists, pages and copies leads.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"leaddesk/backend/logger"
)

type app struct {
	profilePath string
	baseURL     string
	logLevel    string

	profile *Profile
	out     io.Writer
	now     func() time.Time
	copy    func(string) error
}

func newApp(out io.Writer) *app {
	return &app{
		out:  out,
		now:  time.Now,
		copy: clipboard.WriteAll,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "leadctl",
		Short:         "Browse and copy your leads from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Init(logger.Options{Level: a.logLevel, Format: "text"})

			p, err := LoadProfile(a.profilePath)
			if err != nil {
				return err
			}
			if a.baseURL != "" {
				p.BaseURL = a.baseURL
			}
			a.profile = p
			return nil
		},
	}
	root.SetOut(a.out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.profilePath, "profile", DefaultProfilePath(), "Path to profile.toml")
	flags.StringVar(&a.baseURL, "api-url", "", "Lead API base URL (saved to the profile)")
	flags.StringVar(&a.logLevel, "log-level", "warn", "Log level")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newListCmd(a),
		newNextCmd(a),
		newPrevCmd(a),
		newCopyCmd(a),
	)
	return root
}

func main() {
	a := newApp(os.Stdout)
	if err := newRootCmd(a).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "leadctl: %v\n", err)
		os.Exit(1)
	}
}
