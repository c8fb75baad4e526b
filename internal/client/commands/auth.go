package commands

import (
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ritchy/BytePass/internal/client/config"
	"github.com/ritchy/BytePass/internal/client/session"
)

// NewAuthCommands returns the auth command group
// getCfg and getSess are functions that return the current config and session
func NewAuthCommands(getCfg func() *config.Config, getSess func() *session.Session) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
		Long:  "Commands for signing in to the remote store (login, redirect, logout, status)",
	}

	authCmd.AddCommand(newLoginCmd(getSess))
	authCmd.AddCommand(newRedirectCmd(getSess))
	authCmd.AddCommand(newLogoutCmd(getSess))
	authCmd.AddCommand(newAuthStatusCmd(getCfg, getSess))

	return authCmd
}

// newLoginCmd creates the login command
func newLoginCmd(getSess func() *session.Session) *cobra.Command {
	var (
		token     string
		tokenType string
		refresh   string
		expiresIn time.Duration
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an access token",
		Long:  "Store an access token for the remote store. Without --token the token is prompted for",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := getSess()

			if token == "" {
				form := huh.NewForm(
					huh.NewGroup(
						huh.NewInput().
							Title("Access Token").
							Value(&token).
							EchoMode(huh.EchoModePassword).
							Validate(func(s string) error {
								if len(s) == 0 {
									return fmt.Errorf("token is required")
								}
								return nil
							}),
					),
				)

				if err := form.Run(); err != nil {
					return fmt.Errorf("login cancelled: %w", err)
				}
			}

			if err := sess.Login(commandContext(cmd), token, tokenType, refresh, expiresIn); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			logrus.WithField("client_id", sess.ClientID()).Debug("login stored")

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Login successful!\n")
			fmt.Fprintf(cmd.OutOrStdout(), "  Client ID: %s\n", sess.ClientID())
			if exp := sess.ExpiresAt(); !exp.IsZero() {
				fmt.Fprintf(cmd.OutOrStdout(), "  Expires:   %s\n", exp.Local().Format("2006-01-02 15:04:05"))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Access token")
	cmd.Flags().StringVar(&tokenType, "type", "Bearer", "Token type")
	cmd.Flags().StringVar(&refresh, "refresh", "", "Refresh token")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "Token lifetime (e.g. 1h); 0 means no expiry")

	return cmd
}

// newRedirectCmd creates the redirect command
func newRedirectCmd(getSess func() *session.Session) *cobra.Command {
	return &cobra.Command{
		Use:   "redirect URL",
		Short: "Complete sign-in from a callback URL",
		Long:  "Read access_token, token_type, expires_in and refresh_token from a sign-in callback URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := getSess()

			if err := sess.HandleRedirect(commandContext(cmd), args[0]); err != nil {
				return fmt.Errorf("sign-in failed: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "✓ Signed in")
			return nil
		},
	}
}

// newLogoutCmd creates the logout command
func newLogoutCmd(getSess func() *session.Session) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := getSess()
			ctx := commandContext(cmd)

			if !sess.IsSignedIn(ctx) {
				return fmt.Errorf("not logged in")
			}

			logrus.Debug("Logging out...")

			if err := sess.SignOut(ctx); err != nil {
				return fmt.Errorf("failed to clear session: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "✓ Logged out successfully")

			return nil
		},
	}
}

// newAuthStatusCmd creates the auth status command
func newAuthStatusCmd(getCfg func() *config.Config, getSess func() *session.Session) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sign-in state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getCfg()
			sess := getSess()
			ctx := commandContext(cmd)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "  Client ID:   %s\n", sess.ClientID())
			fmt.Fprintf(out, "  Backend:     %s\n", cfg.Remote.Backend)

			if err := requireAuth(ctx, authenticator(cfg, sess)); err != nil {
				fmt.Fprintln(out, "✗ Not signed in")
				return nil
			}

			if exp := sess.ExpiresAt(); sess.IsSignedIn(ctx) && !exp.IsZero() {
				fmt.Fprintf(out, "  Expires:     %s\n", exp.Local().Format("2006-01-02 15:04:05"))
				if sess.NeedsRefresh() {
					fmt.Fprintln(out, "⚠ Token expires soon")
				}
			}

			fmt.Fprintln(out, "✓ Signed in")
			return nil
		},
	}
}
