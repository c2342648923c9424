package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ScrpTrx-Go/tgprune/application"
	"github.com/ScrpTrx-Go/tgprune/internal/config"
	"github.com/ScrpTrx-Go/tgprune/internal/infra/database"
	"github.com/ScrpTrx-Go/tgprune/internal/infra/telegram"
	"github.com/ScrpTrx-Go/tgprune/internal/metrics"
	"github.com/ScrpTrx-Go/tgprune/internal/service/executor"
	"github.com/ScrpTrx-Go/tgprune/internal/service/pager"
	"github.com/ScrpTrx-Go/tgprune/internal/service/policy"
	"github.com/ScrpTrx-Go/tgprune/internal/service/reporter"
	pkg "github.com/ScrpTrx-Go/tgprune/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Walk the channel history once and delete expired posts",
	RunE:  runAction,
}

func init() {
	runCmd.Flags().String("config", "", "path to config.yaml")
	runCmd.Flags().Bool("dry-run", true, "only print the posts that would be deleted")
	runCmd.Flags().Int("days", 30, "keep posts newer than this many days")
	runCmd.Flags().String("account", "", "channel username")
	rootCmd.AddCommand(runCmd)
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}

	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun, _ = cmd.Flags().GetBool("dry-run")
	}
	if cmd.Flags().Changed("days") {
		cfg.DaysToKeep, _ = cmd.Flags().GetInt("days")
	}
	if cmd.Flags().Changed("account") {
		cfg.Account, _ = cmd.Flags().GetString("account")
	}
	return cfg, nil
}

func runAction(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	zaplogger, err := pkg.NewZapLogger(cfg.Logger)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer zaplogger.Sync()

	secrets, err := config.LoadSecrets(cfg.SecretsDir, &cfg)
	if err != nil {
		return fmt.Errorf("load secrets: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	runCfg := cfg.RunConfig(time.Now())

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tdlibClient, err := telegram.NewClient(cfg.TDLib, secrets)
	if err != nil {
		return fmt.Errorf("tdlib client: %w", err)
	}
	defer func() {
		if _, err := tdlibClient.Close(); err != nil {
			zaplogger.Error("tdlibclient", "close error", err)
		}
	}()

	history, err := telegram.NewHistory(tdlibClient, zaplogger.WithPackage("telegram"), cfg.History)
	if err != nil {
		return fmt.Errorf("tdlib history: %w", err)
	}

	store, err := database.Open(ctx, zaplogger.WithPackage("database"), cfg.DatabaseConfig)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	registry := prometheus.NewRegistry()
	recorder := metrics.New(registry)
	if cfg.Metrics.Listen != "" {
		metrics.Serve(ctx, cfg.Metrics.Listen, registry, zaplogger.WithPackage("metrics"))
	}

	audit := pkg.NewAuditLogger()
	defer audit.Sync()

	postPager := pager.New(history, runCfg.Account, cfg.History.PageDelay, zaplogger.WithPackage("pager"),
		pager.WithProtector(policy.NewProtector(cfg.Protect)),
		pager.WithRecorder(recorder),
	)
	exec := executor.New(history, audit, zaplogger.WithPackage("executor"), runCfg)

	app := application.NewApp(postPager, exec, audit, zaplogger, runCfg)
	app.Store = store
	app.Recorder = recorder
	if cfg.Report.Directory != "" {
		app.Reporter = reporter.NewReporter(zaplogger.WithPackage("reporter"), cfg.Report.Directory)
	}

	app.Run(ctx)
	return nil
}
