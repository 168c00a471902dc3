package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/sliink/dataprocessor/internal/api"
	"github.com/sliink/dataprocessor/internal/core"
	"github.com/sliink/dataprocessor/internal/model"
	"github.com/sliink/dataprocessor/internal/storage"
	"github.com/sliink/dataprocessor/internal/strategy"
	"github.com/sliink/dataprocessor/pkg/logger"
)

type options struct {
	configFile string
	mode       string
	backend    string
	logLevel   string
	apiHost    string
	apiPort    int
	noAPI      bool
	watch      bool
	data       string
	inputFile  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:          "dataprocessor",
		Short:        "Data Processor - run records through a reconfigurable processing pipeline",
		SilenceUsage: true,
		RunE:         func(cmd *cobra.Command, _ []string) error { return runServe(cmd, opts) },
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.mode, "mode", "", "Processing mode (validation, transformation, enrichment, aggregation)")
	rootCmd.PersistentFlags().StringVar(&opts.backend, "backend", "", "Storage backend (postgresql, mongodb, redis)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the pipeline and its REST API",
		RunE:  func(cmd *cobra.Command, _ []string) error { return runServe(cmd, opts) },
	}
	for _, cmd := range []*cobra.Command{rootCmd, serveCmd} {
		cmd.Flags().StringVar(&opts.apiHost, "api-host", "", "API server host")
		cmd.Flags().IntVar(&opts.apiPort, "api-port", 0, "API server port")
		cmd.Flags().BoolVar(&opts.noAPI, "no-api", false, "Disable the API server")
		cmd.Flags().BoolVar(&opts.watch, "watch", false, "Reload the configuration file when it changes")
	}

	processCmd := &cobra.Command{
		Use:   "process",
		Short: "Process a single JSON record and print the result",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, _ []string) error { return runProcess(cmd, opts) },
	}
	processCmd.Flags().StringVar(&opts.data, "data", "", "JSON record to process")
	processCmd.Flags().StringVar(&opts.inputFile, "input", "", "File holding the JSON record, - for stdin")

	modesCmd := &cobra.Command{
		Use:   "modes",
		Short: "List processing modes",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, _ []string) error { return listModes(cmd.OutOrStdout()) },
	}

	backendsCmd := &cobra.Command{
		Use:   "backends",
		Short: "List storage backends",
		Args:  cobra.NoArgs,
		RunE:  func(cmd *cobra.Command, _ []string) error { return listBackends(cmd.OutOrStdout()) },
	}

	rootCmd.AddCommand(serveCmd, processCmd, modesCmd, backendsCmd)
	return rootCmd
}

// loadConfig reads the config file, if any, and applies flag overrides
func loadConfig(cmd *cobra.Command, opts *options) (*core.ConfigManager, error) {
	manager := core.NewConfigManager()
	if opts.configFile != "" {
		if err := manager.LoadConfig(opts.configFile); err != nil {
			return nil, err
		}
	}

	overrides := []struct {
		flag  string
		path  string
		value any
	}{
		{"mode", "pipeline.mode", opts.mode},
		{"backend", "pipeline.backend", opts.backend},
		{"log-level", "log.level", opts.logLevel},
		{"api-host", "api.host", opts.apiHost},
		{"api-port", "api.port", opts.apiPort},
		{"no-api", "api.enabled", !opts.noAPI},
	}
	for _, o := range overrides {
		if f := cmd.Flags().Lookup(o.flag); f == nil || !f.Changed {
			continue
		}
		if err := manager.SetConfig(o.path, o.value); err != nil {
			return nil, err
		}
	}

	if err := logger.Init(manager.Config().Log); err != nil {
		return nil, err
	}
	return manager, nil
}

func runServe(cmd *cobra.Command, opts *options) error {
	manager, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	cfg := manager.Config()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := core.NewCore(manager)
	if err := c.Start(ctx, opts.watch); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	log.Infow("pipeline ready", "mode", cfg.Pipeline.Mode, "backend", cfg.Pipeline.Backend)

	var apiServer *api.API
	apiErr := make(chan error, 1)
	if cfg.API.Enabled {
		apiServer = api.NewAPI(c, cfg.API.Host, cfg.API.Port)
		go func() { apiErr <- apiServer.Start() }()
	}

	select {
	case <-ctx.Done():
	case err = <-apiErr:
		if err != nil {
			log.Errorw("api server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if apiServer != nil {
		if stopErr := apiServer.Stop(shutdownCtx); stopErr != nil {
			log.Warnw("api server shutdown error", "error", stopErr)
		}
	}
	if stopErr := c.Stop(shutdownCtx); stopErr != nil {
		log.Warnw("core shutdown error", "error", stopErr)
	}
	log.Infow("shutdown complete")
	return err
}

func runProcess(cmd *cobra.Command, opts *options) error {
	raw, err := readInput(cmd.InOrStdin(), opts)
	if err != nil {
		return err
	}
	var data any
	if err := gojson.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("invalid JSON input: %w", err)
	}

	manager, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	c := core.NewCore(manager)
	defer c.Stop(context.Background())

	result, err := c.Pipeline().Process(cmd.Context(), data)
	if err != nil {
		return err
	}

	out, err := gojson.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if !result.Success {
		return errors.New("processing failed")
	}
	return nil
}

func readInput(stdin io.Reader, opts *options) ([]byte, error) {
	switch {
	case opts.data != "" && opts.inputFile != "":
		return nil, errors.New("use either --data or --input, not both")
	case opts.data != "":
		return []byte(opts.data), nil
	case opts.inputFile == "-":
		return io.ReadAll(stdin)
	case opts.inputFile != "":
		return os.ReadFile(opts.inputFile)
	default:
		return nil, errors.New("one of --data or --input is required")
	}
}

func listModes(w io.Writer) error {
	selector := strategy.NewSelector()
	for _, mode := range selector.SupportedModes() {
		description, err := selector.Describe(mode)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-15s %s\n", mode, description)
	}
	return nil
}

func listBackends(w io.Writer) error {
	for _, backend := range model.SupportedBackends() {
		opts := storage.DefaultOptions(backend)
		fmt.Fprintf(w, "%-11s %-42s connect %s\n", backend, opts.ConnectionString, opts.ConnectLatency)
	}
	return nil
}
