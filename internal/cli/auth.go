package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var signupCmd = &cobra.Command{
	Use:   "signup <email> <password>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), "/signup")
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Client.Signup(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Confirmation code sent to %s. Run `wallshare verify <code>` to finish.\n", args[0])
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <code>",
	Short: "Confirm a signup with the emailed code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), "/verify-email")
		if err != nil {
			return err
		}
		defer app.Close()

		acc, err := app.Client.VerifyEmail(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s. You are logged in.\n", acc.Username)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <email> <password>",
	Short: "Log in and persist the session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), "/login")
		if err != nil {
			return err
		}
		defer app.Close()

		acc, err := app.Client.Login(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s).\n", acc.Username, acc.Email)
		return nil
	},
}

var oauthCmd = &cobra.Command{
	Use:   "oauth <provider> <code>",
	Short: "Complete a third-party login with the provider's code",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), "/auth/callback")
		if err != nil {
			return err
		}
		defer app.Close()

		acc, err := app.Client.OAuthCallback(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s via %s.\n", acc.Username, args[0])
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the session and clear local credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), "/settings")
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Client.Logout(cmd.Context()); err != nil {
			// Local credentials are gone either way.
			fmt.Fprintln(os.Stderr, "server-side logout failed; local session cleared")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the locally persisted identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), "/")
		if err != nil {
			return err
		}
		defer app.Close()

		creds, err := app.Client.Whoami(cmd.Context())
		if err != nil {
			return err
		}
		if !creds.Authenticated() {
			fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
			return nil
		}
		if printJSON(cmd.OutOrStdout(), map[string]string{
			"user_id": creds.UserID, "username": creds.Username, "email": creds.Email,
		}) {
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s), user id %s\n", creds.Username, creds.Email, creds.UserID)
		return nil
	},
}

var forgotCmd = &cobra.Command{
	Use:   "forgot-password <email>",
	Short: "Request a password-reset code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), "/forgot-password")
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Client.ForgotPassword(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reset code sent to %s. Run `wallshare reset-password <code> <new-password>`.\n", args[0])
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset-password <code> <new-password>",
	Short: "Complete a password reset with the emailed code",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), "/reset-password")
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Client.ResetPassword(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Password updated. Log in with the new password.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(signupCmd, verifyCmd, loginCmd, oauthCmd, logoutCmd, whoamiCmd, forgotCmd, resetCmd)
}
