package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"example.com/ndagate"
	"example.com/ndagate/internal/common"
	"example.com/ndagate/internal/manifest"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var output string
	var cycleMode string
	var rawCycles bool
	var manifestOut string

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Decode a cycler file and write it as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := args[0]
			if output == "" {
				output = replaceExt(input, ".csv")
			}

			var metrics common.Metrics
			opts := decodeOptions(ctx.cfg, cycleMode, rawCycles)
			opts.Metrics = &metrics

			f, err := ndagate.Read(input, opts)
			if err != nil {
				return err
			}

			out, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := f.Table.WriteCSV(out); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}

			snap := metrics.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records, %d aux rows in %s\n",
				output, snap.Records, snap.AuxRows, snap.Duration.Round(time.Millisecond))

			if manifestOut != "" {
				m, err := manifest.Build([]string{input, output})
				if err != nil {
					return err
				}
				if err := manifest.Save(m, manifestOut); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output CSV path (default: input with .csv)")
	cmd.Flags().StringVar(&cycleMode, "cycle-mode", "", "Cycle counting mode: chg, dchg or auto")
	cmd.Flags().BoolVar(&rawCycles, "raw-cycles", false, "Keep the cycle numbers stored in the file")
	cmd.Flags().StringVar(&manifestOut, "manifest", "", "Write a sha256 manifest of input and output to this path")

	return cmd
}

func replaceExt(path, ext string) string {
	if i := strings.LastIndexByte(path, '.'); i > 0 {
		return path[:i] + ext
	}
	return path + ext
}
