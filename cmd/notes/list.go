package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nikhilbhutani/audionotes/internal/models"
)

func newListCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved notes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := a.controller(cmd, nil, "")
			if err := c.FetchNotes(cmd.Context()); err != nil {
				return userError(c, err)
			}
			list := c.Snapshot().Notes

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			return printNotes(cmd, list)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print notes as JSON")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <note-id>",
		Short: "Delete a note and its recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid note ID %q", args[0])
			}

			c := a.controller(cmd, nil, "")
			if err := c.DeleteNote(cmd.Context(), id); err != nil {
				return userError(c, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "deleted note %s\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&a.yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func printNotes(cmd *cobra.Command, list []models.AudioNote) error {
	if len(list) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "no notes")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tTRANSCRIPTION\tAUDIO")
	for _, n := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			n.ID, n.CreatedAt.Local().Format(time.DateTime), truncate(n.Transcription, 60), n.AudioURL)
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
