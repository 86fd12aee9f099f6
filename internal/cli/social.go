package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"wallshare/internal/api"
)

var followCmd = &cobra.Command{
	Use:   "follow <user-id>",
	Short: "Follow a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), "/users")
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Client.Follow(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Following %s.\n", args[0])
		return nil
	},
}

var unfollowCmd = &cobra.Command{
	Use:   "unfollow <user-id>",
	Short: "Unfollow a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), "/users")
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Client.Unfollow(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Unfollowed %s.\n", args[0])
		return nil
	},
}

func printUsers(cmd *cobra.Command, users []api.UserSummary) {
	if printJSON(cmd.OutOrStdout(), users) {
		return
	}
	if len(users) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "(none)")
		return
	}
	for _, u := range users {
		fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", u.UserID, u.Username)
	}
}

var followersCmd = &cobra.Command{
	Use:   "followers <user-id>",
	Short: "List a user's followers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), "/users")
		if err != nil {
			return err
		}
		defer app.Close()

		users, err := app.Client.Followers(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printUsers(cmd, users)
		return nil
	},
}

var followingCmd = &cobra.Command{
	Use:   "following <user-id>",
	Short: "List who a user follows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), "/users")
		if err != nil {
			return err
		}
		defer app.Close()

		users, err := app.Client.Following(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printUsers(cmd, users)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show your analytics summary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), "/dashboard")
		if err != nil {
			return err
		}
		defer app.Close()

		s, err := app.Client.Stats(cmd.Context())
		if err != nil {
			return err
		}
		if printJSON(cmd.OutOrStdout(), s) {
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "views %d  likes %d  followers %d  uploads %d\n",
			s.Views, s.Likes, s.Followers, s.Uploads)
		for _, w := range s.TopWallpapers {
			fmt.Fprintf(cmd.OutOrStdout(), "  top: %-12s %-30s likes %d\n", w.ID, w.Title, w.Likes)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(followCmd, unfollowCmd, followersCmd, followingCmd, statsCmd)
}
