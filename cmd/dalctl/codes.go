package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/digitaladdress/locator/internal/building"
)

type codeOutput struct {
	Code      string    `json:"code"`
	OSMWayID  int64     `json:"osmWayId"`
	CreatedAt time.Time `json:"createdAt"`
}

func codesCmd(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "codes",
		Short: "List registered building codes, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}

			c, err := opts.components(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			regs, err := c.Buildings.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := codesFrom(regs)
			return opts.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				printCodes(w, out)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of codes to list")

	return cmd
}

func codesFrom(regs []*building.Registration) []codeOutput {
	out := make([]codeOutput, 0, len(regs))
	for _, r := range regs {
		out = append(out, codeOutput{Code: r.Code, OSMWayID: int64(r.WayID), CreatedAt: r.CreatedAt})
	}
	return out
}

func printCodes(w io.Writer, codes []codeOutput) {
	if len(codes) == 0 {
		fmt.Fprintln(w, "no building codes registered")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tOSM WAY\tREGISTERED")
	for _, c := range codes {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", c.Code, c.OSMWayID, c.CreatedAt.UTC().Format(time.RFC3339))
	}
	_ = tw.Flush()
}
