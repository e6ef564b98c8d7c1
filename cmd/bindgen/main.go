package main

import (
	"strings"

	"go-bindgen/pkg/lib"
)

var (
	flagFiles        []string
	flagTemplateDirs []string
	flagConfigDir    string
	flagJobs         int
	flagLogLevel     string
	flagLogFormat    string
	flagLogFile      string
)

func main() {
	rootCmd.AddCommand(generateCmd, checkCmd, listCmd, targetsCmd, showCmd, browseCmd, shellCmd, initCmd, exampleCmd, configCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringArrayVarP(&flagFiles, "file", "f", nil,
		"template YAML file (repeatable; default: ~/.config/"+appName+"/templates/**/*.yml)")
	pf.StringArrayVar(&flagTemplateDirs, "template-dir", nil,
		"additional directory to scan for template files (repeatable)")
	pf.StringVar(&flagConfigDir, "config-dir", "", "config directory (default: auto-resolved)")
	pf.IntVarP(&flagJobs, "jobs", "j", 0, "modules processed concurrently (default: config, then CPU count)")
	pf.StringVar(&flagLogLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&flagLogFormat, "log-format", "", "text or json")
	pf.StringVar(&flagLogFile, "log-file", "", "append logs to this file instead of stderr")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		var hints []string
		if isFlagInterceptError(err) {
			hints = append(hints, "\nhint: run `"+appName+" <command> --help` for the flags a command accepts")
		}
		lib.Exit(err, hints...)
	}
}

// isFlagInterceptError reports whether the error is cobra rejecting a flag.
func isFlagInterceptError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "unknown flag:") || strings.Contains(msg, "unknown shorthand flag:")
}
