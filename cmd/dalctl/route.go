package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/digitaladdress/locator/internal/api/models"
	"github.com/digitaladdress/locator/internal/planner"
)

func routeCmd(opts *globalOptions) *cobra.Command {
	var (
		pos      positionFlags
		from, to string
		mode     string
	)

	cmd := &cobra.Command{
		Use:   "route",
		Short: "Plan a route with turn-by-turn directions",
		Example: `  dalctl route --from "my location" --lat 10.5276 --lon 76.2144 --to DAL-042
  dalctl route --from DAL-042 --to "Swaraj Round" --mode driving`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			travelMode, err := planner.ParseTravelMode(mode)
			if err != nil {
				return fmt.Errorf("--mode %q: %w", mode, err)
			}
			if err := pos.attach(cmd); err != nil {
				return err
			}

			c, err := opts.components(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			plan, err := c.Planner.PlanRoute(cmd.Context(), from, to, travelMode)
			if err != nil {
				return fmt.Errorf("%s: %w", planner.ReasonFor(err), err)
			}

			out := models.RoutePlanResponseFrom(plan)
			return opts.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				printPlan(w, out)
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Origin query")
	cmd.Flags().StringVar(&to, "to", "", "Destination query")
	cmd.Flags().StringVar(&mode, "mode", string(planner.ModeWalking), "Travel mode (walking, driving)")
	pos.register(cmd)
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func printPlan(w io.Writer, p models.RoutePlanResponse) {
	fmt.Fprintf(w, "%s -> %s\n", p.Origin.Label, p.Destination.Label)
	fmt.Fprintf(w, "%s · %s · %s\n\n", p.Summary.ModeLabel, p.Summary.DistanceDisplay, p.Summary.DurationDisplay)
	for i, in := range p.Instructions {
		if in.DistanceDisplay != "" {
			fmt.Fprintf(w, "%2d. %s %s (%s)\n", i+1, in.Glyph, in.Text, in.DistanceDisplay)
			continue
		}
		fmt.Fprintf(w, "%2d. %s %s\n", i+1, in.Glyph, in.Text)
	}
}
