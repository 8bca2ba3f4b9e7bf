package commands

import (
	"context"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"gl-analytics/internal/analytics"
	"gl-analytics/internal/config"
	"gl-analytics/internal/eventlog"
	"gl-analytics/internal/gitlab"
	"gl-analytics/internal/logging"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose     bool
	profilePath string
	useCache    bool
	cfg         *config.AppConfig
	runID       string
)

const runIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

var rootCmd = &cobra.Command{
	Use:   "gl-analytics",
	Short: "Workflow analytics for GitLab milestones",
	Long: `Reads the label, state and merge request history of a milestone's issues from GitLab and
reports how work flowed through the workflow stages: a cumulative flow table of daily stage
occupancy, and per-issue lead and cycle times in business days.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logging.Init(verbose); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load(profilePath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		runID, err = gonanoid.Generate(runIDAlphabet, 8)
		if err != nil {
			return err
		}
		log.Logger = log.With().Str("run", runID).Logger()

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("command", cmd.Name()).
			Msg("gl-analytics starting")
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "", "workflow profile file (.yaml, .yml or .toml), overrides WORKFLOW_PROFILE")
	rootCmd.PersistentFlags().BoolVar(&useCache, "cache", false, "reuse fetched issues cached under DATA_PATH/cache")
}

// unavailableFetcher stands in for GitLab when no client could be built, so cached issues
// stay reachable without a token.
type unavailableFetcher struct {
	err error
}

func (f unavailableFetcher) ListIssues(ctx context.Context, q eventlog.Query) ([]eventlog.IssueRecord, error) {
	return nil, f.err
}

// newService wires the report service from the loaded configuration. Swapped in tests.
var newService = func() *analytics.Service {
	var fetcher eventlog.Fetcher
	client, err := gitlab.NewClient(cfg.GitLab)
	if err != nil {
		log.Debug().Err(err).Msg("GitLab client unavailable")
		fetcher = unavailableFetcher{err: err}
	} else {
		fetcher = client
	}

	cacheDir := ""
	if useCache {
		cacheDir = cfg.CacheDir
	}
	provider := eventlog.NewLogProvider(fetcher, eventlog.NewStore(), cacheDir, cfg.CacheTTL)
	return analytics.NewService(provider, cfg.Profile)
}
