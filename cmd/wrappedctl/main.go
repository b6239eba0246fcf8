package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/KOFI-GYIMAH/github-wrapped/internal/config"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/db"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/github"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/models"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/queue"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/service"
	"github.com/KOFI-GYIMAH/github-wrapped/pkg/errors"
	"github.com/KOFI-GYIMAH/github-wrapped/pkg/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wrappedctl",
	Short: "Operate the GitHub wrapped store from the command line",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			logger.SetLevel(logger.LevelDebug)
		}
	},
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <username>",
	Short: "Resolve a user's wrapped record, refreshing it from GitHub when stale",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfiguration()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		store, err := db.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		svc := service.NewWrappedService(
			github.NewClient(cfg.GitHubToken, github.WithTimeout(cfg.GitHubTimeout)),
			store,
			service.WithCacheTTL(cfg.CacheTTL),
			service.WithYear(cfg.Year),
		)

		res, err := svc.ResolveUser(ctx, args[0])
		if err != nil {
			if kind := errors.KindOf(err); kind != errors.KindUnknown {
				return fmt.Errorf("%s: %s", kind, errors.UserMessage(kind))
			}
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		printSummary(cmd.OutOrStdout(), res, cfg.Year)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print cross-user averages and the number of stored records",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfiguration()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		store, err := db.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		avg, err := store.AverageStats(ctx)
		if err != nil {
			return err
		}
		count, err := store.CountUsers(ctx)
		if err != nil {
			return err
		}

		printStats(cmd.OutOrStdout(), avg, count)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply Postgres migrations (or ensure Mongo indexes)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfiguration()
		if err != nil {
			return err
		}

		// * Open migrates postgres and ensures mongo indexes
		store, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "%s store is up to date\n", cfg.StoreDriver)
		return nil
	},
}

var warmupCmd = &cobra.Command{
	Use:   "warmup <username>...",
	Short: "Queue usernames on RabbitMQ so the server resolves them in the background",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfiguration()
		if err != nil {
			return err
		}
		if cfg.RabbitMQURL == "" {
			return fmt.Errorf("RABBITMQ_URL is required for warmup")
		}

		mq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer mq.Close()

		return queueWarmups(cmd.Context(), cmd.OutOrStdout(), mq, args)
	},
}

type warmupPublisher interface {
	PublishWarmup(ctx context.Context, username string) error
}

func queueWarmups(ctx context.Context, w io.Writer, pub warmupPublisher, raw []string) error {
	for _, r := range raw {
		username, err := service.ValidateUsername(r)
		if err != nil {
			fmt.Fprintf(w, "skipping %q: %s\n", r, errors.UserMessage(errors.KindOf(err)))
			continue
		}
		if err := pub.PublishWarmup(ctx, username); err != nil {
			return fmt.Errorf("queueing %s: %w", username, err)
		}
		fmt.Fprintf(w, "queued %s\n", username)
	}
	return nil
}

func printSummary(w io.Writer, res *service.Resolution, year int) {
	u := res.User
	m := u.Metrics

	fmt.Fprintf(w, "@%s · %d wrapped (%s, fetched %s)\n", u.Username, year, res.Outcome, u.FetchedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "  commits:        %d\n", m.TotalCommits)
	fmt.Fprintf(w, "  pull requests:  %d\n", m.TotalPRs)
	fmt.Fprintf(w, "  issues:         %d\n", m.TotalIssues)
	fmt.Fprintf(w, "  reviews:        %d\n", m.CodeReviewComments)
	fmt.Fprintf(w, "  stars received: %d\n", m.StarsReceived)
	fmt.Fprintf(w, "  longest streak: %d days\n", m.LongestStreak)
	fmt.Fprintf(w, "  repositories:   %d created, %d forked, %d contributed to\n", m.ReposCreated, m.ReposForked, m.ReposContributed)

	if len(m.Languages) > 0 {
		names := make([]string, 0, len(m.Languages))
		for _, l := range m.Languages {
			names = append(names, fmt.Sprintf("%s %.1f%%", l.Name, l.Percentage))
		}
		fmt.Fprintf(w, "  languages:      %s\n", strings.Join(names, ", "))
	}
	for i, r := range m.TopRepos {
		fmt.Fprintf(w, "  #%d %s/%s (%d commits)\n", i+1, r.Owner, r.Name, r.Commits)
	}
	if m.FirstCommit != nil {
		fmt.Fprintf(w, "  first commit:   %s %s: %s\n", m.FirstCommit.Date.Format("2006-01-02"), m.FirstCommit.Repo, m.FirstCommit.Message)
	}
	if m.LastCommit != nil {
		fmt.Fprintf(w, "  last commit:    %s %s: %s\n", m.LastCommit.Date.Format("2006-01-02"), m.LastCommit.Repo, m.LastCommit.Message)
	}
}

func printStats(w io.Writer, avg models.AverageStats, count int) {
	fmt.Fprintf(w, "users: %d\n", count)
	fmt.Fprintf(w, "average commits:        %d\n", avg.TotalCommits)
	fmt.Fprintf(w, "average longest streak: %d\n", avg.LongestStreak)
	fmt.Fprintf(w, "average pull requests:  %d\n", avg.TotalPRs)
	fmt.Fprintf(w, "average issues:         %d\n", avg.TotalIssues)
	fmt.Fprintf(w, "average stars received: %d\n", avg.StarsReceived)
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	lookupCmd.Flags().Bool("json", false, "Print the resolved record as JSON")

	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(warmupCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
