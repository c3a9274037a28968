// Command woundcli runs the analysis workflow against a local wound photo:
// initial analysis, then plan expansion, then a product revision.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/woundlens-ai/cmd/mainconfig"
	"github.com/wolfman30/woundlens-ai/internal/analysis"
	"github.com/wolfman30/woundlens-ai/internal/assessment"
	appconfig "github.com/wolfman30/woundlens-ai/internal/config"
	"github.com/wolfman30/woundlens-ai/internal/history"
	"github.com/wolfman30/woundlens-ai/internal/provider"
	"github.com/wolfman30/woundlens-ai/pkg/logging"
)

type options struct {
	image    string
	location string
	model    string
	flags    []string
	info     string
	reason   provider.RevisionReason
	timeout  time.Duration
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: could not read .env: %v\n", err)
	}

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	if opts.model == "" {
		opts.model = cfg.DefaultModel
	}
	creds := mainconfig.ProviderCredentials(cfg, mainconfig.NewBedrockClient(awsCfg, cfg), awsCfg.Credentials)
	registry := provider.NewRegistry(provider.NewSelector(creds, provider.Options{
		Logger:            logger,
		RequestsPerSecond: cfg.ProviderRateLimit,
	}), []string{opts.model})
	defer registry.Close()

	client, err := registry.Client(ctx, opts.model)
	if err != nil {
		logger.Error("failed to build provider client", "model", opts.model, "error", err)
		os.Exit(1)
	}

	coord := analysis.NewCoordinator(client,
		analysis.WithLogger(logger),
		analysis.WithHistoryBuilder(history.NewBuilder(cfg.DocumentDir, logger)),
	)
	if err := run(ctx, coord, opts, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseFlags(args []string, errOut io.Writer) (options, error) {
	fs := flag.NewFlagSet("woundcli", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var opts options
	var flagList, reason string
	fs.StringVar(&opts.image, "image", "", "path to the wound photo (required)")
	fs.StringVar(&opts.location, "location", "Lower Left Leg/Shin", "wound location")
	fs.StringVar(&opts.model, "model", "", "model name (defaults to DEFAULT_MODEL)")
	fs.StringVar(&flagList, "flags", "", "comma separated clinical flags that are true, e.g. diabetes,odor_present")
	fs.StringVar(&opts.info, "info", "", "other clinical information")
	fs.StringVar(&reason, "reason", string(provider.ReasonTooCostly), "product revision reason")
	fs.DurationVar(&opts.timeout, "timeout", 5*time.Minute, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if strings.TrimSpace(opts.image) == "" {
		return options{}, errors.New("woundcli: -image is required")
	}
	known := make(map[string]bool)
	for _, f := range assessment.KnownFlags() {
		known[f] = true
	}
	for _, f := range strings.Split(flagList, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if !known[f] {
			return options{}, fmt.Errorf("woundcli: unknown clinical flag %q", f)
		}
		opts.flags = append(opts.flags, f)
	}
	opts.reason = provider.RevisionReason(reason)
	if !opts.reason.Valid() {
		return options{}, fmt.Errorf("woundcli: invalid revision reason %q", reason)
	}
	return opts, nil
}

// run executes the three steps and prints each result as indented JSON.
// Follow-up failures are printed but do not stop the next step.
func run(ctx context.Context, coord *analysis.Coordinator, opts options, out io.Writer) error {
	in := assessment.ClinicalAssessment{Flags: make(map[string]bool), OtherInformation: opts.info}
	for _, f := range opts.flags {
		in.Flags[f] = true
	}

	banner(out, "STEP 1: INITIAL ANALYSIS")
	initial := coord.AnalyzeFile(ctx, opts.image, opts.location, in)
	if err := printJSON(out, initial); err != nil {
		return err
	}
	if !initial.Success {
		return fmt.Errorf("woundcli: analysis failed: %s", initial.Error)
	}

	banner(out, "STEP 2: EXPAND TREATMENT PLAN")
	if err := printJSON(out, coord.ExpandPlan(ctx, opts.location)); err != nil {
		return err
	}

	banner(out, "STEP 3: REVISE PRODUCTS ("+string(opts.reason)+")")
	return printJSON(out, coord.ReviseProducts(ctx, opts.reason))
}

func banner(out io.Writer, title string) {
	line := strings.Repeat("=", 25)
	fmt.Fprintf(out, "\n%s %s %s\n", line, title, line)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
