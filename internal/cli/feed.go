package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"wallshare/internal/api"
)

var (
	feedPage int
	feedETag string
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Browse the wallpaper feed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), "/feed")
		if err != nil {
			return err
		}
		defer app.Close()

		page, notModified, err := app.Client.Feed(cmd.Context(), feedPage, feedETag)
		if err != nil {
			return err
		}
		if notModified {
			fmt.Fprintln(cmd.OutOrStdout(), "Feed unchanged.")
			return nil
		}
		if printJSON(cmd.OutOrStdout(), page) {
			return nil
		}
		for _, w := range page.Wallpapers {
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %-30s by %-16s %s\n", w.ID, w.Title, w.OwnerName, strings.Join(w.Tags, ","))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "page %d/%d  etag %s\n", page.Page, page.TotalPages, page.ETag)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <wallpaper-id>",
	Short: "Show one wallpaper",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), "/feed")
		if err != nil {
			return err
		}
		defer app.Close()

		w, err := app.Client.Wallpaper(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if printJSON(cmd.OutOrStdout(), w) {
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n  by    %s\n  tags  %s\n  likes %d\n  url   %s\n",
			w.Title, w.OwnerName, strings.Join(w.Tags, ","), w.Likes, w.ImageURL)
		return nil
	},
}

var (
	uploadTitle string
	uploadTags  []string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <image-file>",
	Short: "Publish a wallpaper",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		title := uploadTitle
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}

		app, err := newApp(cmd.Context(), "/upload")
		if err != nil {
			return err
		}
		defer app.Close()

		w, err := app.Client.Upload(cmd.Context(), title, uploadTags, filepath.Base(args[0]), f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s as %s.\n", w.Title, w.ID)
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show your profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), "/profile")
		if err != nil {
			return err
		}
		defer app.Close()

		p, err := app.Client.Profile(cmd.Context())
		if err != nil {
			return err
		}
		if printJSON(cmd.OutOrStdout(), p) {
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n  %s\n  followers %d  following %d  uploads %d\n",
			p.Username, p.Bio, p.Followers, p.Following, p.Uploads)
		return nil
	},
}

var (
	setupUsername string
	setupBio      string
	setupAvatar   string
)

var setupProfileCmd = &cobra.Command{
	Use:   "setup-profile",
	Short: "Complete first-run profile setup",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if setupUsername == "" {
			return fmt.Errorf("--username is required")
		}
		app, err := newApp(cmd.Context(), "/setup-profile")
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Client.SetupProfile(cmd.Context(), setupUsername, setupBio, setupAvatar); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Profile saved.")
		return nil
	},
}

var (
	settingsPrivate       bool
	settingsNotifications bool
	settingsTheme         string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Save account preferences",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), "/settings")
		if err != nil {
			return err
		}
		defer app.Close()

		s := api.Settings{
			PrivateProfile:     settingsPrivate,
			EmailNotifications: settingsNotifications,
			Theme:              settingsTheme,
		}
		if err := app.Client.UpdateSettings(cmd.Context(), s); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Settings saved.")
		return nil
	},
}

func init() {
	feedCmd.Flags().IntVar(&feedPage, "page", 1, "Feed page to fetch")
	feedCmd.Flags().StringVar(&feedETag, "etag", "", "ETag from a previous page for revalidation")

	uploadCmd.Flags().StringVar(&uploadTitle, "title", "", "Wallpaper title (defaults to the file name)")
	uploadCmd.Flags().StringSliceVar(&uploadTags, "tags", nil, "Comma-separated tags")

	setupProfileCmd.Flags().StringVar(&setupUsername, "username", "", "Display name")
	setupProfileCmd.Flags().StringVar(&setupBio, "bio", "", "Short bio")
	setupProfileCmd.Flags().StringVar(&setupAvatar, "avatar-url", "", "Avatar image URL")

	settingsCmd.Flags().BoolVar(&settingsPrivate, "private", false, "Hide the profile from other users")
	settingsCmd.Flags().BoolVar(&settingsNotifications, "notifications", true, "Receive email notifications")
	settingsCmd.Flags().StringVar(&settingsTheme, "theme", "system", "UI theme preference")

	rootCmd.AddCommand(feedCmd, showCmd, uploadCmd, profileCmd, setupProfileCmd, settingsCmd)
}
