package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/AnatoleLucet/turn/internal/cdgen"
	"github.com/AnatoleLucet/turn/internal/metadata"
	"github.com/spf13/cobra"
)

func newGenerateCmd(opts *options) *cobra.Command {
	var (
		out   string
		pkg   string
		debug bool
	)

	cmd := &cobra.Command{
		Use:   "generate [flags] metadata.yaml...",
		Short: "Write a change detector for every eligible directive",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("out") {
				cfg.Generator.OutputDir = out
			}
			if cmd.Flags().Changed("package") {
				cfg.Generator.Package = pkg
			}
			if cmd.Flags().Changed("debug") {
				cfg.Generator.DebugComparisons = debug
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			gen := cfg.Generator

			dir, err := filepath.Abs(gen.OutputDir)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			importPath, err := moduleImportPath(dir)
			if err != nil {
				return err
			}
			if gen.Package == "" {
				gen.Package = cdgen.PackageName(filepath.Base(dir))
			}
			logger.Debug("output package", "dir", dir, "package", gen.Package, "import", importPath)

			render := cdgen.RenderOptions{Package: gen.Package, ImportPath: importPath}
			for _, file := range args {
				directives, err := metadata.LoadFile(file)
				if err != nil {
					return err
				}

				for _, m := range directives {
					if reason := cdgen.IneligibleReason(m); reason != "" {
						logger.Debug("skipping directive", "directive", m.Type, "reason", reason)
						continue
					}

					src, err := cdgen.Render(cdgen.Generate(m, cdgen.Options{DebugComparisons: gen.DebugComparisons}), render)
					if err != nil {
						return fmt.Errorf("%s: %w", m.Type, err)
					}

					target := filepath.Join(dir, snakeCase(m.Type.Name)+gen.FileSuffix)
					if err := os.WriteFile(target, src, 0o644); err != nil {
						return fmt.Errorf("write %s: %w", target, err)
					}

					logger.Info("generated", "directive", m.Type, "file", target)
					fmt.Fprintln(cmd.OutOrStdout(), target)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "override generator.output_dir")
	cmd.Flags().StringVar(&pkg, "package", "", "override generator.package")
	cmd.Flags().BoolVar(&debug, "debug", false, "override generator.debug_comparisons")

	return cmd
}

func snakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			// split before an upper case rune that starts a word
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
