package main

import (
	"fmt"
	"net"
	"os"
	"os/user"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/cluster-iq/pkg/server"
	"github.com/de-tools/cluster-iq/pkg/services/advisor"
	"github.com/de-tools/cluster-iq/pkg/services/analysis/ai"
	"github.com/de-tools/cluster-iq/pkg/services/analysis/heuristic"
	"github.com/de-tools/cluster-iq/pkg/services/config"
	"github.com/de-tools/cluster-iq/pkg/services/inventory"
	"github.com/de-tools/cluster-iq/pkg/store/databricks"
	"github.com/de-tools/cluster-iq/pkg/store/openai"
	"github.com/de-tools/cluster-iq/pkg/store/pricing"

	"github.com/de-tools/cluster-iq/pkg/models/domain"
)

var (
	databricksCfgPath string
	advisorCfgPath    string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the Cluster IQ advisor server",
		RunE:  runServer,
	}

	usr, _ := user.Current()
	defaultPath := fmt.Sprintf("%s/.databrickscfg", usr.HomeDir)

	rootCmd.Flags().StringVarP(&databricksCfgPath, "databricks-config", "d", defaultPath,
		"Path to the .databrickscfg file (default is $HOME/.databrickscfg)")
	rootCmd.Flags().StringVarP(&advisorCfgPath, "config", "c", "",
		"Path to the advisor config file (built-in defaults are used when omitted)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyEnvOverrides(cfg)

	registry, err := config.NewRegistry(databricksCfgPath)
	if err != nil {
		return fmt.Errorf("failed to create config registry: %w", err)
	}

	profiles, _ := registry.GetProfiles(ctx)
	logger.Info().Msgf("Configuration found at `%s` successfully loaded.", databricksCfgPath)
	for _, profile := range profiles {
		logger.Info().Msgf("Found profile `%s`", profile)
	}

	dbCfg, err := registry.GetConfig(ctx, cfg.Profile)
	if err != nil {
		return fmt.Errorf("failed to resolve databricks profile %q: %w", cfg.Profile, err)
	}

	dbClient, err := databricks.NewClient(dbCfg, cfg.Analyzer.JobRunSampleSize)
	if err != nil {
		return fmt.Errorf("failed to create databricks client: %w", err)
	}

	fetchers := make(map[domain.ResourceType]inventory.FetchFunc)
	for rt, fn := range dbClient.Fetchers() {
		fetchers[rt] = fn
	}

	heuristicAnalyzer := heuristic.NewAnalyzer(heuristic.Settings{
		WorkerCountThreshold:    cfg.Analyzer.WorkerCountThreshold,
		CPUUtilizationThreshold: cfg.Analyzer.CPUUtilizationThreshold,
		MonthlyHoursEstimate:    cfg.Analyzer.MonthlyHoursEstimate,
	}, pricing.NewStore())

	var aiAnalyzer advisor.AIAnalyzer
	if cfg.OpenAI.Configured() {
		completion, err := openai.NewClient(cfg.OpenAI)
		if err != nil {
			return fmt.Errorf("failed to create openai client: %w", err)
		}
		aiAnalyzer = ai.NewAnalyzer(completion, ai.Settings{
			MaxResourcesPerType: cfg.Analyzer.MaxResourcesPerType,
		})
	} else {
		logger.Warn().Msg("no OpenAI credentials configured, analysis runs on the heuristic tier only")
	}

	adv := advisor.New(fetchers, heuristicAnalyzer, aiAnalyzer, dbClient, advisor.NewStore())

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	api := server.NewWebAPI(logger, server.Config{
		Addr: addr,
		Dependencies: server.Dependencies{
			Advisor:              adv,
			DatabricksConfigured: true,
		},
	})

	return api.Start()
}

func loadConfig() (*config.Config, error) {
	if advisorCfgPath == "" {
		return config.Default(), nil
	}
	return config.Load(advisorCfgPath)
}

// applyEnvOverrides lets credentials come from the environment so
// they never have to live in the config file.
func applyEnvOverrides(cfg *config.Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("AZURE_OPENAI_ENDPOINT"); v != "" {
		cfg.OpenAI.AzureEndpoint = v
	}
	if v := os.Getenv("AZURE_OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.AzureAPIKey = v
	}
	if v := os.Getenv("AZURE_OPENAI_DEPLOYMENT"); v != "" {
		cfg.OpenAI.AzureDeployment = v
	}
	if v := os.Getenv("DATABRICKS_PROFILE"); v != "" {
		cfg.Profile = v
	}
}
