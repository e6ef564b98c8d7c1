package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the " + appName + " config directory",
	Long:  "Commands for initialising and inspecting the " + appName + " config directory.",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	Long: "Print the configuration after layering config.yml, $" + strings.ToUpper(appName) + "_*\n" +
		"environment variables and flags, followed by the template files it resolves to.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# config dir: %s\n", cfg.dir)
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
		files, err := resolveTemplateFiles(cfg, flagTemplateDirs, flagFiles)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "# templates (%d):\n", len(files))
		for _, f := range files {
			fmt.Fprintf(out, "#   %s\n", f)
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialise the config directory",
	Long: "Create the config directory with a default config.yml and an empty\n" +
		"templates/ directory. Use `" + appName + " init` afterwards to add a module.\n\n" +
		"The config directory resolves as:\n" +
		"  $" + envConfigDir + " > $XDG_CONFIG_HOME/" + appName + " > ~/.config/" + appName,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = cfg.dir
		}

		templatesDir := filepath.Join(dir, "templates")
		if err := os.MkdirAll(templatesDir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", templatesDir, err)
		}
		conf, err := yaml.Marshal(defaultConfig(dir))
		if err != nil {
			return err
		}
		confPath := filepath.Join(dir, "config.yml")
		if err := writeInitFile(confPath, configHeader, conf, force); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "initialised %s\n", dir)
		fmt.Fprintf(os.Stderr, "  %s\n", confPath)
		fmt.Fprintf(os.Stderr, "  %s/\n", templatesDir)
		fmt.Fprintf(os.Stderr, "\nRun `%s init` to create a template.\n", appName)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configInitCmd)
	configInitCmd.Flags().Bool("force", false, "overwrite existing files")
	configInitCmd.Flags().String("dir", "", "target config directory (default: auto-resolved)")
}
