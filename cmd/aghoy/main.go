// aghoy - scam-check broker
// Serves the provider-failover completion API behind per-client rate limiting.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/projectaghoy/aghoy/internal/api"
	"github.com/projectaghoy/aghoy/internal/app"
	"github.com/projectaghoy/aghoy/internal/infra/config"
	"github.com/projectaghoy/aghoy/internal/server"
	"github.com/projectaghoy/aghoy/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	if len(args) > 0 && args[0] == "serve" {
		return serve(ctx, args[1:], errOut)
	}

	fs := flag.NewFlagSet("aghoy", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showHelp {
		printHelp(out)
		return 0
	}

	if *showVersion || fs.NArg() == 0 {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	fmt.Fprintf(errOut, "unknown command %q\n", fs.Arg(0)) //nolint:errcheck
	printHelp(errOut)
	return 2
}

// serve runs the HTTP server until ctx is cancelled (SIGINT/SIGTERM).
func serve(ctx context.Context, args []string, errOut io.Writer) int {
	cfg := config.Load()

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(errOut)
	port := fs.Int("port", 0, "Listen port (overrides PORT)")
	host := fs.String("host", "0.0.0.0", "Listen host")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	srvCfg := server.DefaultConfig()
	srvCfg.Host = *host
	if p, err := strconv.Atoi(cfg.Port); err == nil && p > 0 {
		srvCfg.Port = p
	}
	if *port > 0 {
		srvCfg.Port = *port
	}

	a, err := app.New(cfg, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "aghoy: %v\n", err) //nolint:errcheck
		return 1
	}
	defer a.Close() //nolint:errcheck

	srvCfg = srvCfg.WithFailoverBudget(a.FailoverBudget())
	srv := server.NewServer(api.NewRouter(a.Deps), srvCfg, a.Logger)
	ln, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		a.Logger.WithError(err).Error("Listen failed")
		return 1
	}
	if err := srv.Run(ctx, ln); err != nil {
		a.Logger.WithError(err).Error("Server stopped")
		return 1
	}
	return 0
}

func printHelp(out io.Writer) {
	helpText := `aghoy - scam-check broker

Usage:
  aghoy [options]
  aghoy serve [--port N] [--host H]

Options:
  --version    Show version information
  --help       Show this help message

Commands:
  serve        Start the HTTP server

Environment:
  CEREBRAS_API_KEY, GROQ_API_KEY    provider credentials
  CF_ACCOUNT_ID, CF_GATEWAY_ID      route providers through Cloudflare AI Gateway
  PROVIDERS_FILE                    YAML provider catalog
  RATE_STORE=memory|sqlite          rate-limit counter store
  LOG_LEVEL, LOG_FORMAT=json        logging

Examples:
  aghoy --version
  aghoy serve --port 8080`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
