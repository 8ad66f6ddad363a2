package commands

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"martianoff/enumwrap/internal/build"
	"martianoff/enumwrap/internal/logger"
)

var (
	generateStdout bool
	generateCheck  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [dirs...]",
	Short: "Expand union declarations into companion files",
	Long: `Expand every //enumwrap:union declaration in the given package
directories (default: the current directory).

Interfaces annotated with //enumwrap:impl are collected from every .go file of
a directory first, so a union may implement interfaces declared anywhere in its
package. Each declaration file then gets a companion file with the unions
replaced by their generated code.

Examples:
  enumwrap generate                  # current directory
  enumwrap generate ./pets ./shapes  # several packages
  enumwrap generate --stdout         # print instead of writing
  enumwrap generate --check ./pets   # fail if companion files are stale`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().BoolVar(&generateStdout, "stdout", false, "Print the generated code instead of writing files")
	generateCmd.Flags().BoolVar(&generateCheck, "check", false, "Only verify that companion files are up to date")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	dirs := dirsOrCurrent(args)
	cfg, err := setup(cmd, dirs)
	if err != nil {
		return err
	}

	b := build.NewBuilder(cfg)
	outputs, err := b.Generate(cmd.Context(), dirs...)
	if err != nil {
		return err
	}
	if len(outputs) == 0 {
		logger.Infow("no union declarations found", "dirs", dirs)
		return nil
	}

	if generateCheck {
		stale, err := b.Stale(outputs)
		if err != nil {
			return err
		}
		if len(stale) > 0 {
			return errors.Newf("%d companion file(s) out of date: %s", len(stale), strings.Join(stale, ", "))
		}
		okColor.Fprintf(cmd.OutOrStdout(), "%d companion file(s) up to date\n", len(outputs))
		return nil
	}

	if generateStdout {
		w := cmd.OutOrStdout()
		for _, out := range outputs {
			if len(outputs) > 1 {
				fmt.Fprintf(w, "// %s\n", out.Path)
			}
			if _, err := w.Write(out.Code); err != nil {
				return err
			}
		}
		return nil
	}

	if err := b.Write(outputs); err != nil {
		return err
	}
	okColor.Fprintf(cmd.OutOrStdout(), "generated %d file(s)\n", len(outputs))
	return nil
}
