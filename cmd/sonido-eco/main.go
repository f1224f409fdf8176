package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/RyanBlaney/sonido-eco/comparison"
	"github.com/RyanBlaney/sonido-eco/comparison/config"
	"github.com/RyanBlaney/sonido-eco/internal/cli"
	"github.com/RyanBlaney/sonido-eco/logging"
	"github.com/alecthomas/kong"
)

var (
	version = "0.1.0"
)

// CLI defines the command-line interface
type CLI struct {
	Version        bool     `short:"v" help:"Show version information"`
	Config         string   `short:"c" type:"path" help:"Path to a TOML, YAML or JSON config file (optional)"`
	LogLevel       string   `help:"Log level: debug, info, warn, error" placeholder:"level"`
	JSON           bool     `help:"Print the full result, alignment path included, as JSON"`
	Diagnostics    bool     `short:"d" help:"Also compare file hashes and raw waveforms"`
	FFmpeg         bool     `help:"Decode non-WAV/MP3 inputs with ffmpeg"`
	BandRadius     int      `help:"Sakoe-Chiba band radius in frames, 0 disables" default:"-1" placeholder:"frames"`
	MaxDTWDistance float64  `help:"Report DTW similarity against this cost ceiling" placeholder:"cost"`
	TrimSilence    bool     `help:"Trim leading and trailing silence before comparing"`
	Files          []string `arg:"" name:"files" help:"Reference file followed by one or more candidates" type:"existingfile" optional:""`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code. Results go to
// stdout; logs and errors go to stderr so --json output stays parseable.
func run(args []string, stdout, stderr io.Writer) int {
	cliArgs := &CLI{}
	parser, err := kong.New(cliArgs,
		kong.Name("sonido-eco"),
		kong.Description("MFCC and DTW similarity between audio recordings"),
		kong.Writers(stdout, stderr),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)
	if err != nil {
		cli.PrintError(stderr, err.Error())
		return 1
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		cli.PrintError(stderr, err.Error())
		var parseErr *kong.ParseError
		if errors.As(err, &parseErr) && parseErr.Context != nil {
			_ = parseErr.Context.PrintUsage(false)
		}
		return 1
	}

	if cliArgs.Version {
		cli.PrintVersion(stdout, version)
		return 0
	}

	if len(cliArgs.Files) < 2 {
		cli.PrintError(stderr, "A reference and at least one candidate file are required")
		_ = kctx.PrintUsage(false)
		return 1
	}

	cfg, err := loadConfig(cliArgs)
	if err != nil {
		cli.PrintError(stderr, err.Error())
		return 1
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		cli.PrintError(stderr, err.Error())
		return 1
	}
	logging.SetGlobalLogger(logging.NewConsoleLogger(stderr))
	logging.SetLevel(level)

	comparator, err := comparison.NewComparator(cfg)
	if err != nil {
		cli.PrintError(stderr, err.Error())
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reference := cliArgs.Files[0]
	pairs := make([]comparison.Pair, 0, len(cliArgs.Files)-1)
	for _, candidate := range cliArgs.Files[1:] {
		pairs = append(pairs, comparison.Pair{Reference: reference, Candidate: candidate})
	}

	results := comparator.CompareBatch(ctx, pairs)

	failed := false
	output := make([]jsonResult, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			failed = true
		}

		var diag *cli.Diagnostics
		if cliArgs.Diagnostics && res.Err == nil {
			diag = diagnostics(ctx, comparator, res.Pair)
		}

		if cliArgs.JSON {
			output = append(output, jsonResult{BatchResult: res, Diagnostics: diag})
			continue
		}
		if res.Err != nil {
			cli.RenderBatchError(stderr, res)
			continue
		}
		cli.RenderReport(stdout, res.Report, diag)
	}

	if cliArgs.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(output); err != nil {
			cli.PrintError(stderr, fmt.Sprintf("failed to encode results: %v", err))
			return 1
		}
	}

	if failed {
		return 1
	}
	return 0
}

type jsonResult struct {
	comparison.BatchResult
	Diagnostics *cli.Diagnostics `json:"diagnostics,omitempty"`
}

// loadConfig layers command-line overrides over the config file or defaults
func loadConfig(args *CLI) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if args.Config != "" {
		loaded, err := config.Load(args.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if args.LogLevel != "" {
		cfg.LogLevel = args.LogLevel
	}
	if args.FFmpeg {
		cfg.Loader.EnableFFmpeg = true
	}
	if args.BandRadius >= 0 {
		cfg.Comparison.BandRadius = args.BandRadius
	}
	if args.MaxDTWDistance > 0 {
		cfg.Comparison.MaxDTWDistance = args.MaxDTWDistance
	}
	if args.TrimSilence {
		cfg.Comparison.TrimSilence = true
	}

	return cfg, cfg.Validate()
}

// diagnostics runs the hash and raw waveform checks for one pair. Failures
// are logged and leave the corresponding field empty.
func diagnostics(ctx context.Context, c *comparison.Comparator, pair comparison.Pair) *cli.Diagnostics {
	logger := logging.WithContext(ctx).WithFields(logging.Fields{
		"component": "cli",
		"function":  "diagnostics",
	})

	diag := &cli.Diagnostics{}
	if hash, err := comparison.HashFiles(pair.Reference, pair.Candidate); err != nil {
		logger.Warn("Hash comparison failed", logging.Fields{"error": err.Error()})
	} else {
		diag.Hash = hash
	}

	ref, err := c.Loader().LoadFile(ctx, pair.Reference)
	if err != nil {
		logger.Warn("Reload of reference failed", logging.Fields{"error": err.Error()})
		return diag
	}
	cand, err := c.Loader().LoadFile(ctx, pair.Candidate)
	if err != nil {
		logger.Warn("Reload of candidate failed", logging.Fields{"error": err.Error()})
		return diag
	}

	if diff, err := comparison.WaveformDifference(ref, cand); err != nil {
		logger.Warn("Waveform difference skipped", logging.Fields{"error": err.Error()})
	} else {
		diag.WaveformDifference = &diff
	}
	return diag
}
