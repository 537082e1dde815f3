// Command dbask answers questions about a database table, from the command
// line or as an MCP tool server over stdio.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dbask/dbask/adapters"
	"github.com/dbask/dbask/ask"
	"github.com/dbask/dbask/config"
	"github.com/dbask/dbask/core"
	"github.com/dbask/dbask/llm"
	"github.com/dbask/dbask/tool"
)

var version = "dev"

const usage = `usage: dbask <command> [flags]

commands:
  ask     answer a single question
  serve   run the MCP tool server on stdio
  version print the version
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		fmt.Fprint(stderr, usage)
		return errors.New("no command given")
	}

	switch args[0] {
	case "ask":
		opts, err := parseAskFlags(args[1:], stderr)
		if err != nil {
			return err
		}
		return runAsk(ctx, opts, stdout, stderr)
	case "serve":
		opts, err := parseCommonFlags("serve", args[1:], stderr)
		if err != nil {
			return err
		}
		return runServe(ctx, opts, stderr)
	case "version":
		fmt.Fprintf(stdout, "dbask version %s\n", version)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// commonOptions are shared by every command that talks to a data source.
type commonOptions struct {
	configPath  string
	metricsAddr string
	conn        config.Connection
}

type askOptions struct {
	commonOptions
	question string
	table    string
	glossary string
	simplify bool
	format   string
}

func bindCommon(fs *flag.FlagSet, opts *commonOptions) {
	fs.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address")
	fs.StringVar(&opts.conn.Dialect, "dialect", "", "SQLITE, POSTGRESQL, MYSQL or MSSQL")
	fs.StringVar(&opts.conn.Database, "database", "", "Database name or SQLite file")
	fs.StringVar(&opts.conn.User, "user", "", "Database user")
	fs.StringVar(&opts.conn.Password, "password", "", "Database password")
	fs.StringVar(&opts.conn.Host, "host", "", "Database host")
	fs.StringVar(&opts.conn.Port, "port", "", "Database port")
}

func parseCommonFlags(name string, args []string, stderr io.Writer) (commonOptions, error) {
	var opts commonOptions
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	bindCommon(fs, &opts)
	if err := fs.Parse(args); err != nil {
		return commonOptions{}, err
	}
	return opts, nil
}

func parseAskFlags(args []string, stderr io.Writer) (askOptions, error) {
	var opts askOptions
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	fs.SetOutput(stderr)
	bindCommon(fs, &opts.commonOptions)
	fs.StringVar(&opts.question, "question", "", "The question to answer")
	fs.StringVar(&opts.table, "table", "", "The table to query")
	fs.StringVar(&opts.glossary, "glossary", "", "Column glossary: inline JSON or a .json/.yaml file")
	fs.BoolVar(&opts.simplify, "simplify", false, "Reply with the bare conclusion")
	fs.StringVar(&opts.format, "format", formatText, "Output format: text, json, table or csv (rows only)")
	if err := fs.Parse(args); err != nil {
		return askOptions{}, err
	}

	// positional question: dbask ask -table daily "how much?"
	if opts.question == "" && fs.NArg() > 0 {
		opts.question = fs.Arg(0)
	}
	if opts.question == "" {
		return askOptions{}, errors.New("a question is required")
	}
	if opts.table == "" {
		return askOptions{}, errors.New("a table is required")
	}
	if !validFormat(opts.format) {
		return askOptions{}, fmt.Errorf("unknown format %q", opts.format)
	}
	return opts, nil
}

// loadConfig reads the config file, if any, and applies the flag overrides.
func loadConfig(opts commonOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		cfg, err = config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
	}

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.Connection.Dialect, opts.conn.Dialect)
	override(&cfg.Connection.Database, opts.conn.Database)
	override(&cfg.Connection.User, opts.conn.User)
	override(&cfg.Connection.Password, opts.conn.Password)
	override(&cfg.Connection.Host, opts.conn.Host)
	override(&cfg.Connection.Port, opts.conn.Port)

	return cfg, nil
}

// environment is what every command is built from.
type environment struct {
	log   *slog.Logger
	conn  core.ConnectionConfig
	asker *ask.Asker
	stop  func()
}

func setup(ctx context.Context, opts commonOptions, stderr io.Writer) (*environment, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	log, err := cfg.Logger(stderr)
	if err != nil {
		return nil, err
	}

	conn, err := cfg.ConnectionConfig()
	if err != nil {
		return nil, err
	}

	genCfg, err := cfg.OpenAIConfig()
	if err != nil {
		return nil, err
	}
	gen, err := llm.NewOpenAI(genCfg)
	if err != nil {
		return nil, fmt.Errorf("llm.NewOpenAI: %w", err)
	}

	askOpts := []ask.Option{
		ask.WithLogger(log),
		ask.WithStrictConclusion(cfg.Answer.StrictConclusion),
	}

	stop := func() {}
	if opts.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		askOpts = append(askOpts, ask.WithMetrics(reg))
		stop = serveMetrics(ctx, log, opts.metricsAddr, reg)
	}

	asker, err := ask.New(adapters.NewSource(nil), gen, askOpts...)
	if err != nil {
		stop()
		return nil, err
	}

	return &environment{log: log, conn: conn, asker: asker, stop: stop}, nil
}

func serveMetrics(ctx context.Context, log *slog.Logger, addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorContext(ctx, "metrics server stopped", slog.String("error", err.Error()))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}

func runAsk(ctx context.Context, opts askOptions, stdout, stderr io.Writer) error {
	env, err := setup(ctx, opts.commonOptions, stderr)
	if err != nil {
		return err
	}
	defer env.stop()

	var gloss any
	if opts.glossary != "" {
		gloss = opts.glossary
	}

	out, err := env.asker.Run(ctx, ask.Params{
		Question:   opts.question,
		Table:      opts.table,
		Glossary:   gloss,
		Simplify:   opts.simplify,
		Connection: env.conn,
	})
	if err != nil {
		return err
	}

	return writeOutcome(stdout, opts.format, out)
}

func runServe(ctx context.Context, opts commonOptions, stderr io.Writer) error {
	env, err := setup(ctx, opts, stderr)
	if err != nil {
		return err
	}
	defer env.stop()

	env.log.InfoContext(ctx, "serving MCP on stdio", slog.String("dialect", string(env.conn.Dialect)))

	server := tool.NewServer(env.asker, env.conn, version)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server.Run: %w", err)
	}
	return nil
}
