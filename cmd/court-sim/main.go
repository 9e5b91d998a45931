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

	"github.com/spf13/pflag"

	"github.com/okian/courtside/internal/simulator"
	"github.com/okian/courtside/pkg/logger"
)

const runTimeout = 10 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "court-sim: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg := simulator.Config{}

	flagSet := pflag.NewFlagSet("court-sim", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&cfg.BaseURL, "url", simulator.DefaultBaseURL, "base URL of the scoreboard server")
	flagSet.IntVar(&cfg.Referees, "referees", simulator.DefaultReferees, "number of referees on the simulated panel")
	flagSet.IntVar(&cfg.Votes, "votes", simulator.DefaultVotes, "votes submitted by each referee")
	flagSet.Uint64Var(&cfg.Seed, "seed", uint64(time.Now().UnixNano()), "seed for vote generation")
	flagSet.DurationVar(&cfg.Timeout, "timeout", simulator.DefaultTimeout, "HTTP request timeout")
	flagSet.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log every vote")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stderr, flagSet)
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	if err := logger.InitWithWriter(stderr, logger.FormatText); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if cfg.Verbose {
		if err := logger.SetLevelString("debug"); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	_, err := simulator.Run(ctx, &cfg, stdout)
	return err
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `court-sim drives a scoreboard server with simulated referees and checks
that the server's total score matches a local replay of the court ledger.

Usage:
  court-sim [flags]

Flags:
%s
Examples:
  court-sim --referees 3 --votes 500
  court-sim --url http://localhost:8080 --seed 7 --verbose
`, flagSet.FlagUsages())
}
