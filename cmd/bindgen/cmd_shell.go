package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go-bindgen/cmd/bindgen/decl"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Explore the loaded templates in an interactive shell",
	Long: "Start a line-editing shell over the validated templates. Templates are\n" +
		"loaded once; `reload` picks up edits. Type `help` for the commands.",
	RunE: func(cmd *cobra.Command, args []string) error {
		mods, err := loadModules(cmd.Context(), cfg, flagTemplateDirs, flagFiles)
		if err != nil {
			return err
		}
		sh := &shell{mods: mods, out: os.Stdout, reload: func() ([]*decl.ValidatedModule, error) {
			return loadModules(cmd.Context(), cfg, flagTemplateDirs, flagFiles)
		}}

		rl, err := readline.NewEx(&readline.Config{
			Prompt:          appName + "> ",
			HistoryFile:     filepath.Join(cfg.dir, "history"),
			AutoComplete:    sh.completer(),
			InterruptPrompt: "^C",
			EOFPrompt:       "exit",
		})
		if err != nil {
			return err
		}
		defer rl.Close()

		for {
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			if done := sh.exec(line); done {
				return nil
			}
			rl.Config.AutoComplete = sh.completer()
		}
	},
}

// shell holds the state of one interactive session.
type shell struct {
	mods   []*decl.ValidatedModule
	out    io.Writer
	reload func() ([]*decl.ValidatedModule, error)
}

const shellHelp = `commands:
  list [module ...]   list functions
  show <function>     describe a function (Module.Function or a unique name)
  modules             summarize each module
  reload              re-read the templates
  help                this text
  exit                leave the shell`

// exec runs one command line and reports whether the shell should exit.
func (s *shell) exec(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "exit", "quit":
		return true
	case "help", "?":
		fmt.Fprintln(s.out, shellHelp)
	case "list", "ls":
		mods, err := selectModules(s.mods, fields[1:])
		if err != nil {
			s.fail(err)
			return false
		}
		printEntries(s.out, collectEntries(mods))
	case "modules":
		for _, m := range s.mods {
			fmt.Fprintln(s.out, styleModule.Render(m.Name), styleDim.Render(moduleSummary(m)))
		}
	case "show":
		if len(fields) != 2 {
			s.fail(errors.New("usage: show <function>"))
			return false
		}
		mod, fn, err := findFunction(s.mods, fields[1])
		if err != nil {
			s.fail(err)
			return false
		}
		if err := showFunction(s.out, funcRef{mod: mod, fn: fn}); err != nil {
			s.fail(err)
		}
	case "reload":
		mods, err := s.reload()
		if err != nil {
			s.fail(err)
			return false
		}
		s.mods = mods
		fmt.Fprintf(s.out, "%d modules loaded\n", len(mods))
	default:
		s.fail(fmt.Errorf("unknown command %q (try help)", fields[0]))
	}
	return false
}

func (s *shell) fail(err error) {
	fmt.Fprintln(s.out, styleFail.Render("error:"), err)
}

// completer offers commands, module names after list, and qualified
// function names after show.
func (s *shell) completer() *readline.PrefixCompleter {
	var modules, functions []readline.PrefixCompleterInterface
	for _, m := range s.mods {
		modules = append(modules, readline.PcItem(m.Name))
		for _, fn := range m.Functions {
			functions = append(functions, readline.PcItem(m.Name+"."+fn.Name))
		}
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("list", modules...),
		readline.PcItem("show", functions...),
		readline.PcItem("modules"),
		readline.PcItem("reload"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}
