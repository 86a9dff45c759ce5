// Command strategieclub runs the Maure Strategie Club debate engine: a CLI
// one-shot mode, an HTTP job API, and a stdio MCP server.
package main

import (
	"fmt"
	"os"
)

const usage = `Usage: strategieclub <command> [flags]

Commands:
  run    run one debate over a local document and write the result
  serve  start the HTTP job API
  mcp    serve debate tools over stdio (Model Context Protocol)

Run "strategieclub <command> -h" for command flags.`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = runCmd(os.Args[2:])
	case "serve":
		err = serveCmd()
	case "mcp":
		err = mcpCmd()
	case "-h", "--help", "help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "strategieclub: %v\n", err)
		os.Exit(1)
	}
}
