package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tokenops/quotaguard/internal/config"
	"github.com/tokenops/quotaguard/internal/domain"
	domadm "github.com/tokenops/quotaguard/internal/domain/admission"
	"github.com/tokenops/quotaguard/internal/domain/registry"
	logpkg "github.com/tokenops/quotaguard/internal/logger"
	"github.com/tokenops/quotaguard/internal/repository/state"
	admissionuc "github.com/tokenops/quotaguard/internal/usecase/admission"
	"github.com/tokenops/quotaguard/internal/version"
)

const usage = `quotaguard gates a privileged OpenAI credential behind daily free-tier token quotas.

Usage:
  quotaguard <command> [flags]

Commands:
  status     Show remaining tokens and plan state (--allowlist adds the model list)
  set-plan   Set how many paid-plan tokens remain, e.g. quotaguard set-plan 50000
  reset      Reset daily buckets (the date rollover happens automatically)
  request    Check a request before using the key: quotaguard request --model gpt-5 --tokens 1200
  serve      Run the admission HTTP API
  version    Print build information
  help       Print this message

Exit codes: 0 allowed/ok, 1 denied or failed, 2 usage error.
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "status":
		return cmdStatus(rest)
	case "set-plan":
		return cmdSetPlan(rest)
	case "reset":
		return cmdReset(rest)
	case "request":
		return cmdRequest(rest)
	case "serve":
		return cmdServe(rest)
	case "version":
		fmt.Printf("quotaguard %s (commit %s, built %s)\n", version.Version, version.Commit, version.Date)
		return 0
	case "help", "-h", "--help":
		fmt.Print(usage)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
}

// newEngine builds the one-shot command engine: config, a quiet stderr
// logger, and the state store at the resolved directory.
func newEngine() (*admissionuc.Service, config.Config, error) {
	cfg, err := config.Load(config.GetEnv())
	if err != nil {
		return nil, config.Config{}, err
	}

	log, err := logpkg.NewCLILogger(cfg.Logging.Level)
	if err != nil {
		return nil, config.Config{}, err
	}

	dir, err := state.ResolveDir(cfg.Storage.StateDir)
	if err != nil {
		return nil, config.Config{}, err
	}

	return admissionuc.New(state.New(dir, log)), cfg, nil
}

func cmdStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	allowlist := fs.Bool("allowlist", false, "also print the allowed models")
	_ = fs.Parse(args)

	svc, _, err := newEngine()
	if err != nil {
		return fail(err)
	}

	rec, _ := svc.Status(context.Background())
	fmt.Printf("Date: %s\n", rec.Date())
	fmt.Printf("Plan tokens left: %d\n", rec.PlanTokensLeft())
	for _, b := range registry.Buckets() {
		fmt.Printf("%s: %d tokens remaining of %d\n", b, rec.Remaining(b), b.DailyLimit())
	}
	if *allowlist {
		fmt.Println()
		printAllowlist(os.Stdout)
	}
	return 0
}

func cmdSetPlan(args []string) int {
	fs := flag.NewFlagSet("set-plan", flag.ExitOnError)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: quotaguard set-plan <tokens>")
		return 2
	}
	tokens, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid token count %q\n", fs.Arg(0))
		return 2
	}

	svc, _, err := newEngine()
	if err != nil {
		return fail(err)
	}

	if _, err := svc.SetPlanTokens(context.Background(), tokens); err != nil {
		if errors.Is(err, domain.ErrNegativePlanTokens) {
			fmt.Fprintln(os.Stderr, "Plan tokens cannot be negative")
			return 1
		}
		return fail(err)
	}

	fmt.Printf("Set plan tokens left to %d\n", tokens)
	return 0
}

func cmdReset(args []string) int {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	_ = fs.Parse(args)

	svc, _, err := newEngine()
	if err != nil {
		return fail(err)
	}

	if _, err := svc.ResetBuckets(context.Background()); err != nil {
		return fail(err)
	}

	fmt.Println("Token buckets reset to daily limits")
	return 0
}

func cmdRequest(args []string) int {
	fs := flag.NewFlagSet("request", flag.ExitOnError)
	model := fs.String("model", "", "model name (lowercase, e.g. gpt-5.1)")
	tokens := fs.Int64("tokens", 0, "estimated token usage for the request")
	_ = fs.Parse(args)

	provided := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { provided[f.Name] = true })
	if !provided["model"] || !provided["tokens"] {
		fmt.Fprintln(os.Stderr, "usage: quotaguard request --model <name> --tokens <count>")
		return 2
	}

	svc, cfg, err := newEngine()
	if err != nil {
		return fail(err)
	}

	d, err := svc.Request(context.Background(), *model, *tokens)
	if err != nil {
		return fail(err)
	}

	switch d.Outcome() {
	case domadm.OutcomeDeniedByPlan:
		fmt.Println("Plan tokens still available; continue using your plan before hitting OpenAI.")
		return 1
	case domadm.OutcomeDeniedUnknownModel:
		fmt.Printf("Model '%s' is not on the free-tier allowlist. Use one of these:\n", d.Model())
		printAllowlist(os.Stdout)
		return 1
	case domadm.OutcomeDeniedInvalidCost:
		fmt.Fprintln(os.Stderr, "Requested token count must be positive")
		return 1
	case domadm.OutcomeDeniedOverLimit:
		fmt.Fprintf(os.Stderr, "Not enough tokens remaining in %s (%d left, %d requested)\n",
			d.Bucket(), d.Remaining(), d.Tokens())
		return 1
	}

	fmt.Println("OpenAI free-tier guard allowed this request.")
	fmt.Printf("Tokens consumed: %d; %d remaining in %s.\n", d.Tokens(), d.Remaining(), d.Bucket())
	fmt.Println()
	fmt.Println("Run the following to expose the key, then make your OpenAI call:")
	fmt.Printf("  export %s=\"$(security find-generic-password -s '%s' -w)\"\n",
		cfg.Credential.EnvVar, cfg.Credential.KeychainService)
	return 0
}

func printAllowlist(w io.Writer) {
	fmt.Fprintln(w, "250k-token models (per day):")
	fmt.Fprintln(w, "  "+strings.Join(registry.ModelsFor(registry.BucketTokens250K), ", "))
	fmt.Fprintln(w, "2.5M-token models (per day):")
	fmt.Fprintln(w, "  "+strings.Join(registry.ModelsFor(registry.BucketTokens2p5M), ", "))
}

// fail prints the error and maps it to the generic failure exit code.
func fail(err error) int {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}
