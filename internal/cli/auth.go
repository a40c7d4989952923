package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Raheemullah8/hms-portal/internal/auth"
	"github.com/Raheemullah8/hms-portal/internal/models"
	"github.com/Raheemullah8/hms-portal/internal/session"
)

func (a *app) loginCommand() *cobra.Command {
	var req auth.LoginRequest
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			out, err := client.AuthFlow.Login(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.outcome(out)
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "Account password")
	return cmd
}

func (a *app) registerCommand() *cobra.Command {
	var req auth.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a patient account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			out, err := client.AuthFlow.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.outcome(out)
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Name, "name", "", "Full name")
	f.StringVar(&req.Email, "email", "", "Email")
	f.StringVar(&req.Password, "password", "", "Password, at least 6 characters")
	f.StringVar(&req.Phone, "phone", "", "10 digit phone number")
	f.StringVar(&req.Address, "address", "", "Address")
	f.StringVar(&req.DateOfBirth, "dob", "", "Date of birth, YYYY-MM-DD")
	f.StringVar(&req.Gender, "gender", "", "male, female or other")
	f.StringVar(&req.ProfileImage, "profile-image", "", "Profile image reference")
	return cmd
}

func (a *app) outcome(out auth.Outcome) error {
	if !out.Persisted {
		fmt.Fprintln(a.opts.Err, "warning: the session could not be saved and will not survive this run")
	}
	return a.render(out, func(w io.Writer) {
		fmt.Fprintln(w, out.Message)
		if out.User != nil {
			fmt.Fprintf(w, "Signed in as\t%s (%s)\n", out.User.Name, out.User.Role)
		}
		fmt.Fprintf(w, "Next\t%s\n", nextCommand(out.Route))
	})
}

func nextCommand(path string) string {
	if r, ok := Lookup(path); ok {
		return r.Command
	}
	return path
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear cached data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			if err := client.Logout(cmd.Context()); err != nil {
				return err
			}
			a.println("Logged out")
			return nil
		},
	}
}

func (a *app) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the persisted session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			state := client.Session.State()
			view := struct {
				Authenticated bool                `json:"isAuthenticated"`
				User          *models.UserProfile `json:"user"`
				Home          string              `json:"home,omitempty"`
				Subject       string              `json:"subject,omitempty"`
				ExpiresAt     *time.Time          `json:"expiresAt,omitempty"`
			}{Authenticated: state.IsAuthenticated, User: state.User}
			if state.IsAuthenticated {
				view.Home = state.Role().LandingRoute()
			}
			if claims, err := state.Claims(); err == nil {
				view.Subject = claims.Subject
				if view.Subject == "" {
					view.Subject = claims.UserID
				}
				if claims.ExpiresAt != nil {
					exp := claims.ExpiresAt.Time.UTC()
					view.ExpiresAt = &exp
				}
			} else if !errors.Is(err, session.ErrNoToken) {
				a.logger.Warn("session token unreadable", "error", err)
			}
			return a.render(view, func(w io.Writer) {
				if !state.IsAuthenticated {
					fmt.Fprintln(w, "Not signed in")
					return
				}
				if view.Subject != "" {
					fmt.Fprintf(w, "Subject\t%s\n", view.Subject)
				}
				if view.ExpiresAt != nil {
					fmt.Fprintf(w, "Expires\t%s\n", view.ExpiresAt.Format(time.RFC3339))
				}
				if state.User == nil {
					fmt.Fprintln(w, "Signed in\t(no profile)")
					return
				}
				fmt.Fprintf(w, "Name\t%s\n", state.User.Name)
				fmt.Fprintf(w, "Email\t%s\n", state.User.Email)
				fmt.Fprintf(w, "Role\t%s\n", state.User.Role)
				fmt.Fprintf(w, "Home\t%s\n", nextCommand(view.Home))
			})
		},
	}
}
