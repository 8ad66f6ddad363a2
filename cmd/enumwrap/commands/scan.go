package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"martianoff/enumwrap/internal/build"
)

var scanCmd = &cobra.Command{
	Use:   "scan [dirs...]",
	Short: "List registered interfaces and union declarations",
	Long: `List what generate would work with, without writing anything: the
interfaces annotated with //enumwrap:impl and the union declarations of each
directory, flagging declaration files that lack the build constraint.`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	dirs := dirsOrCurrent(args)
	cfg, err := setup(cmd, dirs)
	if err != nil {
		return err
	}

	results, err := build.NewBuilder(cfg).Scan(cmd.Context(), dirs...)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, res := range results {
		if res.ImportPath != "" {
			fmt.Fprintf(w, "%s (%s)\n", res.Dir, res.ImportPath)
		} else {
			fmt.Fprintf(w, "%s\n", res.Dir)
		}
		for _, rec := range res.Interfaces {
			fmt.Fprintf(w, "  interface %s (%s)\n", rec.Name, strings.Join(rec.Methods, ", "))
		}
		for _, u := range res.Unions {
			fmt.Fprintf(w, "  union %s [%s] in %s", u.Name, strings.Join(u.Variants, ", "), filepath.Base(u.File))
			if len(u.Interfaces) > 0 {
				fmt.Fprintf(w, " implements %s", strings.Join(u.Interfaces, ", "))
			}
			fmt.Fprintln(w)
			if !u.Excluded {
				hintColor.Fprintf(w, "    missing //go:build %s\n", cfg.BuildTag)
			}
		}
	}
	return nil
}
