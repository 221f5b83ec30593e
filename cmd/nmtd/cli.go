package main

import "flag"

var (
	flagServer, flagGops, flagDev, flagLogDateTime bool
	flagConfigFile, flagLogLevel                   string
)

func cliInit() {
	flag.BoolVar(&flagServer, "server", true, "Start the HTTP reporter and keep listening after initialization")
	flag.BoolVar(&flagGops, "gops", false, "Listen via github.com/google/gops/agent (for debugging)")
	flag.BoolVar(&flagDev, "dev", false, "Run in summary-only mode and disable the detail-report auth guard")
	flag.BoolVar(&flagLogDateTime, "logdate", false, "Add date and time to log messages")
	flag.StringVar(&flagConfigFile, "config", "", "Path to `config.json` (defaults built in if omitted)")
	flag.StringVar(&flagLogLevel, "loglevel", "info", "Sets the logging level: `[debug, info, warn, err]`")
	flag.Parse()
}
