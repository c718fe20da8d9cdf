package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Vovarama1992/hr-assistant/internal/ai"
	"github.com/Vovarama1992/hr-assistant/internal/assistant"
	"github.com/Vovarama1992/hr-assistant/internal/config"
	"github.com/Vovarama1992/hr-assistant/internal/guard"
	"github.com/Vovarama1992/hr-assistant/internal/intent"
	"github.com/Vovarama1992/hr-assistant/internal/knowledge"
	"github.com/Vovarama1992/hr-assistant/internal/logging"
	"github.com/Vovarama1992/hr-assistant/internal/store"
	"github.com/Vovarama1992/hr-assistant/internal/synth"
)

var (
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "hr-assistant",
	Short: "HR assistant answering employee data and policy questions",
	Long: `hr-assistant answers natural-language HR questions.

Data questions are turned into a single SQL statement by the model, checked
against the caller's role and executed; policy questions are answered from
retrieved policy snippets; mixed questions combine both.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Log.Level, cfg.Log.Development, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd, askCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// --- wiring ---

type app struct {
	store *store.Store
	svc   assistant.Service
}

func openStore(ctx context.Context) (*store.Store, error) {
	if cfg.Database.DSN == "" {
		return nil, errors.New("database.dsn is not set (DATABASE_URL)")
	}
	return store.Open(ctx, cfg.Database.DSN, store.Options{
		Driver:           cfg.Database.Driver,
		Table:            cfg.Database.Table,
		IDColumn:         cfg.Database.IDColumn,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger.Named("store"))
}

func buildApp(ctx context.Context) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Database.Migrate {
		if err := st.Migrate(); err != nil {
			st.Close()
			return nil, err
		}
	}

	schema, err := st.Schema(ctx)
	if err != nil {
		st.Close()
		return nil, err
	}
	logger.Info("schema loaded",
		zap.String("table", schema.Table),
		zap.String("id_column", schema.IDColumn),
		zap.Int("columns", len(schema.Columns)),
	)

	model, err := ai.New(ctx, ai.Options{
		Provider:          cfg.LLM.Provider,
		APIKey:            cfg.LLM.Key(),
		Model:             cfg.LLM.Model,
		BaseURL:           cfg.LLM.BaseURL,
		Timeout:           cfg.LLM.Timeout,
		RequestsPerSecond: cfg.LLM.RequestsPerSecond,
		Burst:             cfg.LLM.Burst,
	}, logger.Named("ai"))
	if err != nil {
		st.Close()
		return nil, err
	}

	kbLog := logger.Named("knowledge")
	retriever := knowledge.NewHTTPRetriever(cfg.Retrieval.URL, cfg.Retrieval.APIKey, cfg.Retrieval.Timeout, kbLog)

	svc := assistant.NewService(assistant.Deps{
		Classifier:    intent.NewClassifier(model, logger.Named("intent")),
		Synthesizer:   synth.NewSynthesizer(model, nil, logger.Named("synth")),
		Validator:     guard.NewValidator(schema, logger.Named("guard")),
		Executor:      st,
		Knowledge:     knowledge.NewAnswerer(retriever, model, cfg.Retrieval.TopK, kbLog),
		Model:         model,
		Schema:        schema,
		DB:            st,
		BranchTimeout: cfg.Fusion.BranchTimeout,
	}, logger.Named("assistant"))

	return &app{store: st, svc: svc}, nil
}
