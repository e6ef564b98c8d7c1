package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

//go:embed example.yml
var exampleYAML []byte

const exampleHeader = "# " + appName + " reference template\n" +
	"# Covers every declaration kind and parameter annotation.\n" +
	"# Check it with:    " + appName + " --file <this-file> check\n" +
	"# Generate with:    " + appName + " --file <this-file> generate --dry-run\n\n"

var exampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print a reference template covering every declaration feature",
	Long: "Print an annotated template that declares types, enums, constants and\n" +
		"functions using every parameter annotation. Use --output to write it to a\n" +
		"file instead of stdout.",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		w := os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			defer f.Close()
			w = f
		}

		fmt.Fprint(w, exampleHeader)
		if _, err := w.Write(exampleYAML); err != nil {
			return err
		}
		if output != "" {
			fmt.Fprintf(os.Stderr, "written to %s\n", output)
		}
		return nil
	},
}

func init() {
	exampleCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
}
