// Package main is the entry point for the tasktracker CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Phoethar22452/supabase-task-tracker/internal/app"
	"github.com/Phoethar22452/supabase-task-tracker/internal/cli"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	opts := containerOptions(os.Args[1:])
	opts.Dir = cwd

	// Backend adapters are connected lazily by the commands that need them.
	container, err := app.Load(opts)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() { _ = container.Close() }()

	rootCmd := cli.NewRootCommand(container, version)
	return rootCmd.ExecuteContext(context.Background())
}

// containerOptions picks the persistent flags that select the backend and
// config file out of args before cobra parses them.
func containerOptions(args []string) app.Options {
	var opts app.Options
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		for _, name := range []string{cli.FlagBackend, cli.FlagConfig} {
			var value string
			switch {
			case arg == "--"+name && i+1 < len(args):
				i++
				value = args[i]
			case strings.HasPrefix(arg, "--"+name+"="):
				value = strings.TrimPrefix(arg, "--"+name+"=")
			default:
				continue
			}
			if name == cli.FlagBackend {
				opts.Backend = value
			} else {
				opts.ConfigPath = value
			}
		}
	}
	return opts
}
