package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/automaxprocs/maxprocs"

	lark2html "github.com/alnah/go-lark2html"
	"github.com/alnah/go-lark2html/internal/assets"
	"github.com/alnah/go-lark2html/internal/config"
	"github.com/alnah/go-lark2html/internal/hints"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if hasVerboseFlag(os.Args) {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	ctx, stop := notifyContext(context.Background())
	code := runMain(ctx, os.Args, DefaultEnv())
	stop()
	os.Exit(code)
}

// runMain dispatches to a command and returns the process exit code.
func runMain(ctx context.Context, args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[1], args[2:]
	var err error
	switch cmd {
	case "extract":
		err = runExtractCmd(ctx, rest, env)
	case "media":
		err = runMediaCmd(ctx, rest, env)
	case "serve":
		err = runServeCmd(ctx, rest, env)
	case "doctor":
		return runDoctorCmd(ctx, rest, env)
	case "completion":
		err = runCompletion(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "lark2html %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		return runHelpCmd(rest, env)
	default:
		fmt.Fprintf(env.Stderr, "unknown command %q\n\n", cmd)
		printUsage(env.Stderr)
		return ExitUsage
	}

	if err != nil {
		if errors.Is(err, errHelpShown) {
			return ExitSuccess
		}
		fmt.Fprintf(env.Stderr, "error: %v%s\n", err, errorHint(err, env.Config))
	}
	return exitCodeFor(err)
}

// errorHint picks the actionable hint for err, if any.
func errorHint(err error, cfg *config.Config) string {
	var apiErr *lark2html.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.IsPermissionDenied():
		return hints.ForPermissionDenied()
	case errors.Is(err, lark2html.ErrAuthCredential):
		return hints.ForCredentials()
	case errors.Is(err, lark2html.ErrInvalidURL):
		return hints.ForInvalidURL()
	case errors.Is(err, context.DeadlineExceeded):
		return hints.ForTimeout()
	case errors.Is(err, lark2html.ErrPaginationOverflow):
		return hints.ForPagination()
	case errors.Is(err, ErrTokenCache):
		addr := ""
		if cfg != nil {
			addr = cfg.TokenCache.RedisAddr
		}
		return hints.ForRedis(addr)
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(searchedConfigPaths(err))
	case errors.Is(err, ErrCreateOutputDir):
		return hints.ForOutputDirectory()
	case errors.Is(err, lark2html.ErrStyleNotFound):
		return hints.ForStyleNotFound(assets.StyleNames())
	}
	return ""
}

// hasVerboseFlag reports whether -v/--verbose appears before any "--".
func hasVerboseFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--" {
			return false
		}
		if arg == "-v" || arg == "--verbose" {
			return true
		}
	}
	return false
}
