package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xtop/internal/auth"
)

func newLoginCmd(e *env) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to X in a browser window and keep the session cookies",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := e.cookieStore()
			manager := auth.NewManager(store, e.log)
			if manager.IsAuthenticated() && !force {
				fmt.Fprintln(cmd.OutOrStdout(), "Already logged in. Use --force to log in again.")
				return nil
			}
			if err := manager.Login(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in. Cookies saved to %s\n", store.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "log in even if a valid session is stored")

	return cmd
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored X session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := auth.NewManager(e.cookieStore(), e.log).Logout(); err != nil {
				return fmt.Errorf("failed to clear cookies: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func newCookiesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cookies",
		Short: "Manage the X session cookies",
	}

	cmd.AddCommand(newCookiesConvertCmd(e))
	cmd.AddCommand(newCookiesStatusCmd(e))

	return cmd
}

func newCookiesConvertCmd(e *env) *cobra.Command {
	var stdout bool

	cmd := &cobra.Command{
		Use:   "convert <export.json>",
		Short: "Import cookies exported by a browser extension",
		Long:  "Convert a cookie export (EditThisCookie format) into the session used by the capture browser.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read export: %w", err)
			}
			cookies, err := auth.ConvertExport(data)
			if err != nil {
				return err
			}

			if stdout {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cookies)
			}

			store := e.cookieStore()
			if err := store.Save(cookies, time.Now()); err != nil {
				return fmt.Errorf("failed to save cookies: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Converted %d cookies to %s\n", len(cookies), store.Path())
			if !store.IsValid(time.Now()) {
				e.log.Warn("Export has no live auth_token and ct0 cookies - captures will run as guest")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stdout, "stdout", false, "print the converted cookies instead of saving them")

	return cmd
}

func newCookiesStatusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a usable session is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := e.cookieStore()
			out := cmd.OutOrStdout()

			stored, err := store.Load()
			if errors.Is(err, auth.ErrNoCookies) {
				fmt.Fprintln(out, "Not logged in.")
				return nil
			}
			if err != nil {
				return err
			}

			state := "valid"
			if !store.IsValid(time.Now()) {
				state = "expired or incomplete"
			}
			fmt.Fprintf(out, "Session %s (%d cookies, captured %s", state, len(stored.Cookies), stored.CapturedAt.Format(time.DateTime))
			if !stored.ExpiresAt.IsZero() {
				fmt.Fprintf(out, ", expires %s", stored.ExpiresAt.Format(time.DateTime))
			}
			fmt.Fprintln(out, ")")
			return nil
		},
	}
}
