package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/spachava753/smscview/csvexport"
	"github.com/spachava753/smscview/sms"
)

const emptyListText = "No messages / no permission."

func newListCommand(a *app) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show recent messages with their SMSC",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, status, err := a.records(cmd.Context(), search)
			if err != nil {
				return err
			}
			loc, err := a.location()
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), records, status, loc)
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "only messages whose number or text contains this (case-insensitive)")
	return cmd
}

func render(w io.Writer, records []sms.Record, status sms.AuthStatus, loc *time.Location) error {
	if len(records) == 0 {
		if status != "" && status != sms.AuthStatusAuthorized {
			_, err := fmt.Fprintf(w, "%s (store %s)\n", emptyListText, status)
			return err
		}
		_, err := fmt.Fprintln(w, emptyListText)
		return err
	}

	for i, record := range records {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "From: %s\nSMSC: %s\n%s\n%s\n",
			record.Address,
			record.ServiceCenter,
			record.Time().In(loc).Format(csvexport.DateLayout),
			record.Body,
		); err != nil {
			return err
		}
	}
	return nil
}
