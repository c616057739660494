package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"github.com/theLastOfCats/series-browser/internal/model"
	"github.com/theLastOfCats/series-browser/internal/state"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
)

type globalFlags struct {
	baseURL  string
	htmlPath string
	logLevel string
	email    string
	password string
}

var flags globalFlags

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "seriesctl",
	Short: "Browse, search and rate the series catalog",
	Long: `seriesctl talks to the series catalog API. Every command prints the
resulting page as text; --html also writes it as an HTML document.

Commands that need an account log in first with --email and --password.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.baseURL, "base-url", "", "API base URL (default from API_BASE_URL or config)")
	pf.StringVar(&flags.htmlPath, "html", "", "write the resulting page as HTML to this file")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "log level for diagnostics on stderr")
	pf.StringVar(&flags.email, "email", "", "log in with this email before running the command")
	pf.StringVar(&flags.password, "password", "", "password used with --email")

	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(similarCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(ratedCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(unrateCmd)
	rootCmd.AddCommand(shellCmd)
}

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "List the whole catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		return a.finish(a.view.SwitchTab(cmd.Context(), state.TabAll, true))
	},
}

var searchCmd = &cobra.Command{
	Use:   "search QUERY...",
	Short: "Search series by keywords",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		a.activate(state.TabSearch)
		return a.finish(a.view.Search(cmd.Context(), strings.Join(args, " ")))
	},
}

var similarCmd = &cobra.Command{
	Use:   "similar NAME...",
	Short: "List series similar to the named one",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		ref := model.Record{Series: model.Series{Name: strings.Join(args, " ")}}
		return a.finish(a.view.LoadSimilar(cmd.Context(), ref))
	},
}

var showCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one series with its average rating",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		return a.finish(a.rating.OpenByID(cmd.Context(), id))
	},
}

var ratedCmd = &cobra.Command{
	Use:   "rated",
	Short: "List the series you rated (needs --email)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		return a.finish(a.view.SwitchTab(cmd.Context(), state.TabRated, true))
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Recommend series from the ones you liked (needs --email)",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		if err := a.view.SwitchTab(cmd.Context(), state.TabProfile, true); err != nil || !a.state.LoggedIn() {
			return a.finish(err)
		}
		return a.finish(a.view.LoadProfile(cmd.Context()))
	},
}

var rateCmd = &cobra.Command{
	Use:   "rate ID SCORE",
	Short: "Rate a series from 1 to 5 (needs --email)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		score, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid score %q", args[1])
		}
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		if err := a.rating.OpenByID(cmd.Context(), id); err != nil {
			return a.finish(err)
		}
		return a.finish(a.rating.Submit(cmd.Context(), id, score))
	},
}

var unrateCmd = &cobra.Command{
	Use:   "unrate ID",
	Short: "Remove your rating of a series (needs --email)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		if err := a.rating.OpenByID(cmd.Context(), id); err != nil {
			return a.finish(err)
		}
		return a.finish(a.rating.Delete(cmd.Context(), id))
	},
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Browse interactively",
	Long: `Start an interactive session on the catalog. Type "help" for the list
of commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		return a.finish(newShell(a, cmd.InOrStdin(), cmd.OutOrStdout()).run(cmd.Context()))
	},
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid series id %q", raw)
	}
	return id, nil
}
