package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spachava753/smscview/csvexport"
)

func newExportCommand(a *app) *cobra.Command {
	var (
		search string
		dir    string
	)
	cmd := &cobra.Command{
		Use:   "export [filename]",
		Short: "Export the current message list to CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.export(cmd, search, dir, args)
			if err != nil {
				return err
			}
			return reportExport(cmd, result)
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "only export messages whose number or text contains this")
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default export.dir or ~/Downloads)")
	return cmd
}

func (a *app) export(cmd *cobra.Command, search string, dir string, args []string) (csvexport.Result, error) {
	filename := a.cfg.Export.Filename
	if len(args) > 0 {
		filename = args[0]
	}
	if filename == "" {
		filename = csvexport.DefaultFilename
	}

	exporter, err := a.exporter(dir)
	if err != nil {
		return csvexport.Result{}, err
	}
	records, _, err := a.records(cmd.Context(), search)
	if err != nil {
		return csvexport.Result{}, err
	}

	result := exporter.Export(records, filename)
	a.log.Debug().Str("status", string(result.Status)).Str("path", result.Path).Int("records", len(records)).Msg("export finished")
	return result, nil
}

func reportExport(cmd *cobra.Command, result csvexport.Result) error {
	if !result.OK() {
		fmt.Fprintln(cmd.OutOrStdout(), "Export failed!")
		return fmt.Errorf("export %s: %w", result.Status, result.Err)
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "Saved to %s\n", result.Path)
	return err
}
