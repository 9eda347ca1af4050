package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spachava753/smscview/mailshare"
)

func newMailCommand(a *app) *cobra.Command {
	var (
		to     []string
		search string
		dir    string
	)
	cmd := &cobra.Command{
		Use:   "mail --to address [filename]",
		Short: "Export to CSV and mail the file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.export(cmd, search, dir, args)
			if err != nil {
				return err
			}
			if err := reportExport(cmd, result); err != nil {
				return err
			}

			err = mailshare.Send(mailshare.Config{
				Addr:     a.cfg.SMTP.Addr,
				Username: a.cfg.SMTP.Username,
				Password: a.cfg.SMTP.Password,
				From:     a.cfg.SMTP.From,
				Insecure: a.cfg.SMTP.Insecure,
			}, to, result.Path)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Mailed %s to %d recipient(s)\n", result.Path, len(mailshare.Recipients(to)))
			return err
		},
	}
	cmd.Flags().StringSliceVar(&to, "to", nil, "recipient address (repeatable)")
	cmd.Flags().StringVar(&search, "search", "", "only export messages whose number or text contains this")
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default export.dir or ~/Downloads)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
