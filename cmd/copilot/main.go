package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
)

func main() {
	// Handle subcommands before flag parsing.
	if len(os.Args) > 1 {
		var err error

		switch os.Args[1] {
		case "init":
			err = runInit(os.Args[2:])
		case "models":
			err = runModels(os.Args[2:])
		case "mcp":
			err = runMCP(os.Args[2:])
		default:
			err = runComplete(os.Args[1:])
		}

		exitOnError(err)
		return
	}

	exitOnError(runComplete(nil))
}

func exitOnError(err error) {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return
	}

	fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
	os.Exit(1)
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "Usage: copilot [flags] [user text]\n       copilot <command> [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nCommands:\n"+
			"  init    Write a config file interactively\n"+
			"  models  List supported providers and models\n"+
			"  mcp     Serve completions as an MCP tool over stdio\n")
	}
}
