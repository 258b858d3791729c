package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/apexboard/linear-integration/internal/integration"
	"github.com/apexboard/linear-integration/pkg/adapter"
	"github.com/apexboard/linear-integration/pkg/audit"
	"github.com/apexboard/linear-integration/pkg/config"
	"github.com/apexboard/linear-integration/pkg/metrics"
	"github.com/apexboard/linear-integration/pkg/retriever"
	"github.com/apexboard/linear-integration/pkg/secrets"
	"github.com/apexboard/linear-integration/pkg/snapshot"
	"github.com/apexboard/linear-integration/pkg/store"
)

// components holds everything a command needs to run the service, plus
// the store handle to close when done.
type components struct {
	config  *config.Config
	service *integration.Service
	store   store.Store
	metrics *metrics.Metrics
	logger  logr.Logger
}

func (c *components) Close() {
	if c.store != nil {
		_ = c.store.Close()
	}
}

// setupComponents loads configuration and assembles the full service
// stack shared by every command.
func setupComponents(cmd *cobra.Command) (*components, error) {
	logger := newLogger(cmd.Flags())

	var loader config.Provider
	if envFile, _ := cmd.Flags().GetString("env-file"); envFile != "" {
		loader = config.NewDotEnvLoader(envFile)
	} else {
		loader = config.NewDotEnvLoader()
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	decryptor, err := secrets.NewDecryptor(cfg.CredentialPassphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential decryptor: %w", err)
	}

	st, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	linearRetriever := retriever.NewLinearRetriever(cfg.LinearEndpoint)
	linearAdapter := adapter.NewLinearAdapter(linearRetriever, decryptor, logger)

	m := metrics.New()
	opts := []integration.Option{integration.WithMetrics(m)}

	if cfg.SnapshotDir != "" {
		trail := audit.NewGitTrail(cfg.AuditAuthorName, cfg.AuditAuthorEmail)
		if err := trail.Initialize(cfg.SnapshotDir); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("failed to initialize audit repository: %w", err)
		}
		opts = append(opts, integration.WithAuditTrail(snapshot.NewYAMLWriter(), trail, cfg.SnapshotDir))
	}

	service := integration.NewService(st, linearAdapter, decryptor, cfg.LinearAPIKeyEnc, logger, opts...)

	return &components{
		config:  cfg,
		service: service,
		store:   st,
		metrics: m,
		logger:  logger,
	}, nil
}

// newLogger builds the process logger. Verbosity follows the log-level
// flag: debug enables the V(1) detail lines, everything else stays at 0.
func newLogger(flags *pflag.FlagSet) logr.Logger {
	level, _ := flags.GetString("log-level")
	if level == "debug" {
		stdr.SetVerbosity(1)
	}
	return stdr.New(log.New(os.Stderr, "", log.LstdFlags))
}
