package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/AnatoleLucet/turn/internal/cdgen"
	"github.com/AnatoleLucet/turn/internal/metadata"
	"github.com/spf13/cobra"
)

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check metadata.yaml...",
		Short: "Report which directives get a change detector",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, file := range args {
				directives, err := metadata.LoadFile(file)
				if err != nil {
					return err
				}
				logger.Debug("loaded metadata", "file", file, "directives", len(directives))

				for _, m := range directives {
					status := "generate"
					if reason := cdgen.IneligibleReason(m); reason != "" {
						status = "skip: " + reason
					}
					fmt.Fprintf(w, "%s\t%d inputs\t%s\n", m.Type, len(m.Inputs), status)
				}
			}

			return w.Flush()
		},
	}
}
