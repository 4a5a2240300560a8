package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"example.com/ndagate"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Decode a cycler file and print its metadata and counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ndagate.Read(args[0], decodeOptions(ctx.cfg, "", false))
			if err != nil {
				return err
			}

			info := inspectInfo(args[0], f)
			if asJSON {
				b, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "File:         %s\n", info.File)
			fmt.Fprintf(w, "Format:       %s\n", info.Format)
			if info.Version != 0 {
				fmt.Fprintf(w, "Version:      %d\n", info.Version)
			}
			if info.Server != "" {
				fmt.Fprintf(w, "Server:       %s\n", info.Server)
			}
			if info.Client != "" {
				fmt.Fprintf(w, "Client:       %s\n", info.Client)
			}
			if info.ActiveMass != 0 {
				fmt.Fprintf(w, "Active mass:  %g mg\n", info.ActiveMass)
			}
			if info.Remarks != "" {
				fmt.Fprintf(w, "Remarks:      %s\n", info.Remarks)
			}
			fmt.Fprintf(w, "Records:      %d\n", info.Records)
			fmt.Fprintf(w, "Cycles:       %d\n", info.Cycles)
			fmt.Fprintf(w, "Steps:        %d\n", info.Steps)
			fmt.Fprintf(w, "Aux channels: %d\n", info.AuxChannels)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")

	return cmd
}

type fileInfo struct {
	File        string  `json:"file"`
	Format      string  `json:"format"`
	Version     int     `json:"version,omitempty"`
	Server      string  `json:"server,omitempty"`
	Client      string  `json:"client,omitempty"`
	ActiveMass  float64 `json:"activeMass,omitempty"`
	Remarks     string  `json:"remarks,omitempty"`
	Records     int     `json:"records"`
	Cycles      int     `json:"cycles"`
	Steps       int     `json:"steps"`
	AuxChannels int     `json:"auxChannels"`
}

func inspectInfo(path string, f *ndagate.File) fileInfo {
	return fileInfo{
		File:        path,
		Format:      f.Format,
		Version:     f.Version,
		Server:      f.Server,
		Client:      f.Client,
		ActiveMass:  f.ActiveMass,
		Remarks:     f.Remarks,
		Records:     len(f.Table.Records),
		Cycles:      countCycles(f.Table),
		Steps:       countSteps(f.Table),
		AuxChannels: countAuxChannels(f.Table),
	}
}

func countCycles(t *ndagate.Table) int {
	seen := make(map[uint16]struct{})
	for _, r := range t.Records {
		seen[r.Cycle] = struct{}{}
	}
	return len(seen)
}

func countSteps(t *ndagate.Table) int {
	seen := make(map[uint32]struct{})
	for _, r := range t.Records {
		seen[r.Step] = struct{}{}
	}
	return len(seen)
}

func countAuxChannels(t *ndagate.Table) int {
	seen := make(map[int]struct{})
	for _, c := range t.Aux {
		seen[c.Channel] = struct{}{}
	}
	return len(seen)
}
