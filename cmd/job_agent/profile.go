package main

import (
	"errors"
	"fmt"

	"github.com/jonathan/job-agent/internal/profiles"
	"github.com/spf13/cobra"
)

var errNoDatabase = errors.New("no database configured: set DATABASE_URL or database.url")

func newProfileCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Validate, import and inspect stored profiles",
	}
	cmd.AddCommand(newProfileImportCmd(root), newProfileShowCmd(root))
	return cmd
}

func newProfileImportCmd(root *rootOptions) *cobra.Command {
	var (
		sessionID string
		name      string
		isDefault bool
	)
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Normalize a profile file and store it for a session",
		Long: "Read a profile in any accepted shape, normalize it, and store it under --session in the " +
			"configured database. Without a database the normalized profile is printed instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := profiles.LoadFile(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, root, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.Database.URL == "" {
				return writeJSON(cmd.OutOrStdout(), profile)
			}
			if sessionID == "" {
				return errors.New("--session is required when storing a profile")
			}
			store, err := a.profileStore(ctx)
			if err != nil {
				return err
			}
			rec := &profiles.Record{SessionID: sessionID, Name: name, IsDefault: isDefault, Profile: profile}
			if err := store.SaveProfile(ctx, rec); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored profile %q for session %s (default: %t)\n", rec.Name, rec.SessionID, rec.IsDefault)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Session id to store the profile under")
	cmd.Flags().StringVar(&name, "name", "", "Profile name (default \"default\")")
	cmd.Flags().BoolVar(&isDefault, "default", false, "Use this profile for generation")
	return cmd
}

func newProfileShowCmd(root *rootOptions) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the profile a session generates with",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, root, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.Database.URL == "" {
				return errNoDatabase
			}
			store, err := a.profileStore(ctx)
			if err != nil {
				return err
			}
			rec, err := store.LoadProfile(ctx, sessionID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Session id (required)")
	_ = cmd.MarkFlagRequired("session")
	return cmd
}
