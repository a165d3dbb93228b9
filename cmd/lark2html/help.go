package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: lark2html <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  extract     Convert Feishu/Lark documents to HTML, JSON or text")
	fmt.Fprintln(w, "  media       Download a drive media file by token")
	fmt.Fprintln(w, "  serve       Run the HTTP extraction API")
	fmt.Fprintln(w, "  doctor      Check configuration, credentials and token cache")
	fmt.Fprintln(w, "  completion  Generate shell completion script")
	fmt.Fprintln(w, "  version     Show version information")
	fmt.Fprintln(w, "  help        Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'lark2html help <command>' for details on a specific command.")
}

// printExtractUsage prints usage for the extract command.
func printExtractUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: lark2html extract <url>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fetch documents through the Open API and write them as HTML, JSON or text.")
	fmt.Fprintln(w, "A single URL without --output is written to stdout.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  url    https://<tenant>.feishu.cn/docx/<token> or .../wiki/<token>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <dir>        Output directory")
	fmt.Fprintln(w, "  -f, --format <s>          Format: html, json, text (default: html)")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel extractions (0 = auto)")
	fmt.Fprintln(w, "  -t, --timeout <dur>       Per-document timeout (default: 30s)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "      --no-standalone       Emit the content fragment only")
	fmt.Fprintln(w, "      --inline-images       Embed images as data URLs")
	fmt.Fprintln(w, "      --sanitize            Run the allow-list sanitizer")
	fmt.Fprintln(w, "      --highlight           Syntax-highlight code blocks")
	fmt.Fprintln(w, "      --highlight-style <s> Chroma style (implies --highlight)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Styling:")
	fmt.Fprintln(w, "      --style <s>           Style name, CSS file path, or inline CSS")
	fmt.Fprintln(w, "      --asset-path <dir>    Directory overriding embedded styles/templates")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show details and debug logs")
	fmt.Fprintln(w)
	printEnvUsage(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  lark2html extract https://acme.feishu.cn/docx/doxcnAbC123 > doc.html")
	fmt.Fprintln(w, "  lark2html extract -o out/ -f json URL1 URL2")
	fmt.Fprintln(w, "  lark2html extract --inline-images --style minimal URL")
}

// printMediaUsage prints usage for the media command.
func printMediaUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: lark2html media <token> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Download a drive media file (e.g. an image token from the JSON manifest).")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -o, --output <file>       Output file (default: stdout)")
	fmt.Fprintln(w, "  -t, --timeout <dur>       Download timeout")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs")
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: lark2html serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run the HTTP API until interrupted.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Endpoints:")
	fmt.Fprintln(w, "  POST /v1/extract          {\"url\": ..., \"standalone\": bool, \"inline_images\": bool}")
	fmt.Fprintln(w, "  GET  /v1/media/{token}    Raw media bytes")
	fmt.Fprintln(w, "  GET  /healthz             Liveness")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -a, --addr <host:port>    Listen address (default: 127.0.0.1:8080)")
	fmt.Fprintln(w, "  -t, --timeout <dur>       Per-request extraction timeout")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Disable request logs")
	fmt.Fprintln(w, "      --no-standalone, --inline-images, --sanitize, --highlight, --style")
	fmt.Fprintln(w, "                            Same as extract; request fields override them")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: lark2html doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check the configuration, issue a tenant token, ping the token cache")
	fmt.Fprintln(w, "and verify the output directory is writable.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --json                Print the report as JSON")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -v, --verbose             Also print the effective configuration (secret masked)")
}

// printEnvUsage lists the environment variables.
func printEnvUsage(w io.Writer) {
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  LARK2HTML_APP_ID, LARK2HTML_APP_SECRET   App credentials")
	fmt.Fprintln(w, "  LARK2HTML_CONFIG                         Config file name or path")
	fmt.Fprintln(w, "  LARK2HTML_BASE_URL                       Open API base URL")
	fmt.Fprintln(w, "  LARK2HTML_TIMEOUT, LARK2HTML_WORKERS     Timeout and parallelism")
	fmt.Fprintln(w, "  LARK2HTML_OUTPUT_DIR, LARK2HTML_STYLE    Output defaults")
	fmt.Fprintln(w, "  LARK2HTML_REDIS_ADDR                     Enables the redis token cache")
	fmt.Fprintln(w, "  LARK2HTML_LOG_MODE                       dev or prod")
}

// runHelpCmd prints help for the named command.
func runHelpCmd(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "extract":
		printExtractUsage(env.Stdout)
	case "media":
		printMediaUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: lark2html version")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: lark2html help [command]")
	default:
		fmt.Fprintf(env.Stderr, "unknown command %q\n\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
