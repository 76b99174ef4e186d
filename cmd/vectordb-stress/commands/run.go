package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/calque-ai/calque-stress/pkg/config"
	"github.com/calque-ai/calque-stress/pkg/helpers"
	"github.com/calque-ai/calque-stress/pkg/logger"
	"github.com/calque-ai/calque-stress/pkg/observability"
	"github.com/calque-ai/calque-stress/pkg/scenario"
	"github.com/calque-ai/calque-stress/pkg/vectordb"
)

type runOptions struct {
	profile     string
	format      string
	metricsAddr string
	requests    int
	concurrency int
	rate        float64
	topK        int
	timeout     time.Duration
}

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a load profile and print the report",
		Long: `Run a load profile against a freshly built simulated vector database.

The profile comes from --profile, then scenario.profile in the config,
then the SCENARIO environment variable. Flags override the profile shape.

Examples:
  vectordb-stress run --profile chaos
  vectordb-stress run -c stress.yaml --profile stress --format yaml
  vectordb-stress run --profile recovery --metrics-addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProfile(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.profile, "profile", "p", "", "Load profile to run (see the profiles command)")
	f.StringVarP(&opts.format, "format", "f", "json", "Report format: json or yaml")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve /metrics and /healthz on this address during the run")
	f.IntVar(&opts.requests, "requests", 0, "Override the number of requests")
	f.IntVar(&opts.concurrency, "concurrency", 0, "Override the number of concurrent requests")
	f.Float64Var(&opts.rate, "rate", 0, "Override the dispatch rate in requests per second")
	f.IntVar(&opts.topK, "top-k", 0, "Override the documents requested per search")
	f.DurationVar(&opts.timeout, "timeout", 0, "Stop dispatching after this long (0 for no limit)")

	return cmd
}

func runProfile(cmd *cobra.Command, opts *runOptions) error {
	format := strings.ToLower(opts.format)
	if format != "json" && format != "yaml" {
		return fmt.Errorf("invalid format %q: must be json or yaml", opts.format)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if opts.metricsAddr != "" {
		cfg.Metrics.Addr = opts.metricsAddr
	}
	cfg.Scenario.Profile = helpers.DefaultString(opts.profile, cfg.Scenario.Profile)
	if opts.timeout > 0 {
		cfg.Scenario.Timeout = opts.timeout
	}

	log := logger.NewForFormat(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)

	profile, err := scenario.Lookup(cfg.Scenario.Profile)
	if err != nil {
		return err
	}
	profile = profile.
		Override(cfg.Scenario.Requests, cfg.Scenario.Concurrency, cfg.Scenario.Rate, cfg.Scenario.TopK).
		Override(opts.requests, opts.concurrency, opts.rate, opts.topK)

	base, err := cfg.VectorDB.EngineConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Scenario.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Scenario.Timeout)
		defer cancel()
	}

	var tracer observability.TracerProvider = observability.NoopTracerProvider{}
	if cfg.Tracing.Endpoint != "" {
		otlpCfg := observability.DefaultOTLPConfig(cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
		otlpCfg.ServiceVersion = versionInfo.Version
		otlpCfg.UseHTTP = cfg.Tracing.UseHTTP
		otlpCfg.SampleRate = cfg.Tracing.SampleRate

		tp, err := observability.NewOTLPTracerProvider(ctx, otlpCfg)
		if err != nil {
			return fmt.Errorf("starting tracing: %w", err)
		}
		defer shutdownTracer(tp, log)
		tracer = tp
	}

	var metrics observability.MetricsProvider = observability.NoopMetricsProvider{}
	var prom *observability.PrometheusProvider
	if cfg.Metrics.Addr != "" {
		prom = observability.NewPrometheusProvider()
		metrics = prom
	}

	engine, err := vectordb.New(profile.EngineConfig(base),
		vectordb.WithLogger(log),
		vectordb.WithMetrics(metrics),
		vectordb.WithTracer(tracer),
	)
	if err != nil {
		return err
	}

	runner := scenario.NewRunner(engine,
		scenario.WithLogger(log),
		scenario.WithMetrics(metrics),
		scenario.WithTracer(tracer),
	)
	defer runner.Store().Close()

	if prom != nil {
		health := observability.NewHealthRegistry(time.Second)
		health.Register(&observability.FuncHealthCheck{
			CheckName: "vectordb",
			CheckFunc: runner.Store().Health,
		})

		srv, err := serveMetrics(cfg.Metrics.Addr, prom.Handler(), health.Handler(), log)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	report, runErr := runner.Run(ctx, profile)
	if report == nil {
		return runErr
	}
	if err := writeReport(cmd.OutOrStdout(), report, format); err != nil {
		return err
	}
	return runErr
}

func serveMetrics(addr string, metrics, health http.Handler, log *logger.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics)
	mux.Handle("/healthz", health)

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(context.Background(), "metrics server stopped", logger.Attr("error", err))
		}
	}()

	log.Info(context.Background(), "serving metrics", logger.Attr("addr", ln.Addr().String()))
	return srv, nil
}

func shutdownTracer(tp observability.TracerProvider, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tp.Shutdown(ctx); err != nil {
		log.Warn(ctx, "trace flush failed", logger.Attr("error", err))
	}
}

func writeReport(w io.Writer, report *scenario.Report, format string) error {
	var (
		data []byte
		err  error
	)
	if format == "yaml" {
		data, err = yaml.Marshal(report)
	} else {
		data, err = json.MarshalIndent(report, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", strings.TrimRight(string(data), "\n"))
	return err
}
