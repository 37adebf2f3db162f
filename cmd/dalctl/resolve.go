package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/digitaladdress/locator/internal/api/models"
	"github.com/digitaladdress/locator/internal/location"
	"github.com/digitaladdress/locator/pkg/geo"
)

// positionFlags carry the caller's fix for "my location" queries.
type positionFlags struct {
	lat, lon float64
}

func (p *positionFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&p.lat, "lat", 0, "Latitude of the current position")
	cmd.Flags().Float64Var(&p.lon, "lon", 0, "Longitude of the current position")
}

// attach puts the fix into the command context when both flags were given.
func (p *positionFlags) attach(cmd *cobra.Command) error {
	if !cmd.Flags().Changed("lat") && !cmd.Flags().Changed("lon") {
		return nil
	}
	if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
		return fmt.Errorf("--lat and --lon must be given together")
	}

	c := geo.Coordinate{Lat: p.lat, Lon: p.lon}
	if err := c.Validate(); err != nil {
		return err
	}
	cmd.SetContext(location.WithReportedPosition(commandContext(cmd), c))
	return nil
}

func resolveCmd(opts *globalOptions) *cobra.Command {
	var pos positionFlags

	cmd := &cobra.Command{
		Use:   "resolve <query>",
		Short: "Resolve a building code, place name or \"my location\"",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pos.attach(cmd); err != nil {
				return err
			}

			c, err := opts.components(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			resolved, err := c.Resolver.Resolve(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := models.ResolvedLocationFrom(*resolved)
			return opts.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				printResolved(w, out)
			})
		},
	}

	pos.register(cmd)
	return cmd
}

func printResolved(w io.Writer, l models.ResolvedLocation) {
	fmt.Fprintf(w, "%s\n", l.Label)
	fmt.Fprintf(w, "  point:  %.6f, %.6f\n", l.Point.Lat, l.Point.Lon)
	fmt.Fprintf(w, "  source: %s\n", l.Source)
	if l.BuildingCode != "" {
		fmt.Fprintf(w, "  code:   %s\n", l.BuildingCode)
	}
	if len(l.BuildingOutline) > 0 {
		fmt.Fprintf(w, "  outline: %d vertices\n", len(l.BuildingOutline))
	}
}
