package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"frontdesk/internal/repository"
)

func newLeadsCommand() *cobra.Command {
	var (
		from  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Print logged SMS exchanges",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			awsCfg, err := awsConfig(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			leads, err := openLeads(cfg, awsCfg, false)
			if err != nil {
				return err
			}
			recs, err := leads.Read(cmd.Context(), from, limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIMESTAMP\tSENDER\tINCOMING\tREPLY")
			for _, r := range recs {
				fmt.Fprintf(w, "%s\t%s\t%q\t%q\n", r.Timestamp.Format(repository.TimestampLayout), r.Sender, r.Incoming, r.Reply)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "only show exchanges with this sender (all senders when empty)")
	cmd.Flags().IntVar(&limit, "limit", 20, "show at most this many recent exchanges (0 for all)")
	return cmd
}
