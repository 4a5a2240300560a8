package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"example.com/ndagate"
	"example.com/ndagate/internal/check"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var jsonlOut string

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Decode a cycler file and run structural diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ndagate.Read(args[0], decodeOptions(ctx.cfg, "", false))
			if err != nil {
				return err
			}

			rep := check.Run(f.Table)

			if jsonlOut != "" {
				out, err := os.Create(jsonlOut)
				if err != nil {
					return err
				}
				if err := check.WriteJSONL(out, rep.Findings); err != nil {
					out.Close()
					return err
				}
				if err := out.Close(); err != nil {
					return err
				}
			}

			w := cmd.OutOrStdout()
			for _, d := range rep.Findings {
				fmt.Fprintf(w, "%-5s %-24s row=%d index=%d %s\n",
					d.Severity, d.RuleId, d.Row, d.Index, d.Message)
			}
			fmt.Fprintf(w, "%d findings (%d errors, %d warnings)\n",
				rep.Summary.Total, rep.Summary.Errors, rep.Summary.Warnings)

			if !rep.Summary.Pass {
				return fmt.Errorf("check failed with %d errors", rep.Summary.Errors)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&jsonlOut, "jsonl", "", "Write findings as JSON lines to this path")

	return cmd
}
