package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/digitaladdress/locator/internal/api/models"
	"github.com/digitaladdress/locator/pkg/geo"
)

func identifyCmd(opts *globalOptions) *cobra.Command {
	var lat, lon float64

	cmd := &cobra.Command{
		Use:   "identify",
		Short: "Identify the building at a point, registering its code on first use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			point := geo.Coordinate{Lat: lat, Lon: lon}
			if err := point.Validate(); err != nil {
				return err
			}

			c, err := opts.components(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			b, err := c.Buildings.LookupByCoordinate(cmd.Context(), point)
			if err != nil {
				return err
			}

			out := models.BuildingFrom(b)
			return opts.print(cmd.OutOrStdout(), out, func(w io.Writer) {
				printBuilding(w, out)
			})
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")

	return cmd
}

func printBuilding(w io.Writer, b models.Building) {
	fmt.Fprintf(w, "%s\n", b.Code)
	if b.Name != "" {
		fmt.Fprintf(w, "  name:     %s\n", b.Name)
	}
	fmt.Fprintf(w, "  osm way:  %d\n", b.OSMWayID)
	fmt.Fprintf(w, "  centroid: %.6f, %.6f\n", b.Centroid.Lat, b.Centroid.Lon)
	fmt.Fprintf(w, "  outline:  %d vertices\n", len(b.Outline))
}
