package main

import (
	"time"

	"github.com/spf13/cobra"

	"example.com/ndagate"
	"example.com/ndagate/internal/check"
	"example.com/ndagate/internal/common"
	"example.com/ndagate/internal/report"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var pdfOut string
	var jsonOut string

	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Decode a cycler file and render a PDF decode report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if pdfOut == "" {
				pdfOut = replaceExt(input, ".report.pdf")
			}

			f, err := ndagate.Read(input, decodeOptions(ctx.cfg, "", false))
			if err != nil {
				return err
			}

			sum := report.Summary{
				File:        input,
				Format:      f.Format,
				Version:     f.Version,
				Records:     len(f.Table.Records),
				Cycles:      countCycles(f.Table),
				Steps:       countSteps(f.Table),
				AuxChannels: countAuxChannels(f.Table),
				CreatedAt:   time.Now().UTC(),
				Checks:      check.Run(f.Table),
			}
			if hex, _, err := common.Sha256OfFile(input); err == nil {
				sum.OutputSha256 = hex
			}

			if jsonOut != "" {
				if err := report.SaveJSON(sum, jsonOut); err != nil {
					return err
				}
			}
			return report.SavePDF(sum, pdfOut)
		},
	}

	cmd.Flags().StringVarP(&pdfOut, "output", "o", "", "Output PDF path (default: input with .report.pdf)")
	cmd.Flags().StringVar(&jsonOut, "json", "", "Also save the report summary as JSON to this path")

	return cmd
}
