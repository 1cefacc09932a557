package main

import (
	appiCli "github.com/urfave/cli/v3"
)

// globalFlags returns all global flags for the application.
// Note: --version is provided automatically by urfave/cli via Command.Version
func globalFlags() []appiCli.Flag {
	return []appiCli.Flag{
		&appiCli.StringFlag{
			Name:    "repo",
			Aliases: []string{"r"},
			Usage:   "Repository to browse (defaults to the current directory)",
		},
		&appiCli.StringFlag{
			Name:  "debug-log",
			Usage: "Path to debug log file",
		},
		&appiCli.StringFlag{
			Name:    "theme",
			Aliases: []string{"t"},
			Usage:   "Override the UI theme",
		},
		&appiCli.BoolFlag{
			Name:  "show-themes",
			Usage: "List available UI themes",
		},
		&appiCli.StringFlag{
			Name:  "config-file",
			Usage: "Path to configuration file",
		},
		&appiCli.StringSliceFlag{
			Name:    "config",
			Aliases: []string{"C"},
			Usage:   "Override config values (repeatable): --config=ld.key=value",
		},
	}
}
