package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rackgrid/pkg/grid"
	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

func (a *app) newLocationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "location",
		Aliases: []string{"loc"},
		Short:   "Manage storage locations",
	}
	cmd.AddCommand(a.newLocationCreateCmd(), a.newLocationListCmd(), a.newLocationShowCmd(), a.newLocationDeleteCmd())
	return cmd
}

func (a *app) newLocationCreateCmd() *cobra.Command {
	var (
		rows, cols, capacity int
		scheme, direction    string
	)
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a location",
		Long: `Create a storage location. A location with rows and cols is a grid whose
slots are labeled with the alpha (A1) or num (1-1) scheme. A location
without a grid uses the none scheme: containers there are ordered but have
no fixed slot.

Example:
  rackgrid location create rack-1 --rows 8 --cols 12
  rackgrid location create box-7 --rows 9 --cols 9 --scheme num --direction top_bottom
  rackgrid location create shelf --scheme none --capacity 40`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := types.ParseScheme(scheme)
			if err != nil {
				return err
			}
			loc := &types.Location{
				Name:     args[0],
				Rows:     rows,
				Cols:     cols,
				Scheme:   s,
				Capacity: capacity,
			}
			if direction != "" {
				if loc.DefaultDirection, err = types.ParseDirection(direction); err != nil {
					return err
				}
			}
			return a.withStore(func(store types.Store) error {
				locations, err := store.GetTable(types.TableLocations)
				if err != nil {
					return sysErr(err)
				}
				id, err := locations.Set("", loc)
				if err != nil {
					return err
				}
				a.log.Info("location created", "id", id, "name", loc.Name)
				if a.jsonMode {
					return printJSON(out(cmd), loc)
				}
				printSuccess(out(cmd), "created location %s (%s)", loc.Name, id)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 0, "grid rows (0 for an unstructured location)")
	cmd.Flags().IntVar(&cols, "cols", 0, "grid columns (0 for an unstructured location)")
	cmd.Flags().IntVar(&capacity, "capacity", 0, "maximum number of containers (0 = no limit)")
	cmd.Flags().StringVar(&scheme, "scheme", "", "labeling scheme: alpha, num, none (default alpha)")
	cmd.Flags().StringVar(&direction, "direction", "", "default travel direction: left_right, top_bottom, pattern")
	return cmd
}

func (a *app) newLocationListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store types.Store) error {
				locations, err := store.GetTable(types.TableLocations)
				if err != nil {
					return sysErr(err)
				}
				all, err := locations.Fetch(nil)
				if err != nil {
					return err
				}

				var locs []*types.Location
				for _, e := range all {
					snap, err := store.Snapshot(e.(*types.Location).LocationID)
					if err != nil {
						return err
					}
					locs = append(locs, snap)
				}
				if a.jsonMode {
					return printJSON(out(cmd), locs)
				}
				if len(locs) == 0 {
					fmt.Fprintln(out(cmd), "No locations found.")
					return nil
				}
				rows := make([][]string, len(locs))
				for i, l := range locs {
					rows[i] = []string{
						shortID(l.LocationID),
						l.Name,
						geometry(l),
						string(l.Scheme),
						string(l.Direction()),
						strconv.Itoa(len(l.Containers)),
					}
				}
				printTable(out(cmd), []string{"ID", "NAME", "GRID", "SCHEME", "DIRECTION", "STORED"}, rows)
				return nil
			})
		},
	}
}

func geometry(l *types.Location) string {
	g := "-"
	if l.Bounded() {
		g = fmt.Sprintf("%dx%d", l.Rows, l.Cols)
	}
	if l.Capacity > 0 {
		g += fmt.Sprintf(" (cap %d)", l.Capacity)
	}
	return g
}

func (a *app) newLocationShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show LOCATION",
		Short: "Draw a location and its occupied slots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store types.Store) error {
				loc, err := findLocation(store, args[0])
				if err != nil {
					return err
				}
				snap, err := store.Snapshot(loc.LocationID)
				if err != nil {
					return err
				}
				idx, issues, err := grid.BuildIndex(snap)
				if err != nil {
					return err
				}
				if a.jsonMode {
					return printJSON(out(cmd), occupancyOf(idx))
				}

				printHeader(out(cmd), fmt.Sprintf("%s  %s  %s", snap.Name, geometry(snap), snap.Scheme))
				renderIndex(out(cmd), idx, nil)
				for _, issue := range issues {
					a.log.Warn("container not placed", "location", snap.Name, "container", issue.ContainerID, "err", issue.Err)
					printWarning(out(cmd), "%s", issue.Error())
				}
				return nil
			})
		},
	}
}

// slotJSON is one occupied slot in JSON output.
type slotJSON struct {
	Position    int    `json:"position"`
	Label       string `json:"label"`
	ContainerID string `json:"container_id"`
	Kind        string `json:"kind"`
}

func occupancyOf(idx *grid.Index) []slotJSON {
	out := []slotJSON{}
	for _, pos := range idx.Positions() {
		c, _ := idx.At(pos)
		out = append(out, slotJSON{
			Position:    pos,
			Label:       slotLabel(idx.Location(), pos),
			ContainerID: c.ContainerID,
			Kind:        c.Kind,
		})
	}
	return out
}

func (a *app) newLocationDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete LOCATION",
		Short: "Delete an empty location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store types.Store) error {
				loc, err := findLocation(store, args[0])
				if err != nil {
					return err
				}
				locations, err := store.GetTable(types.TableLocations)
				if err != nil {
					return sysErr(err)
				}
				if err := locations.Delete(loc.LocationID); err != nil {
					return err
				}
				printSuccess(out(cmd), "deleted location %s", loc.Name)
				return nil
			})
		},
	}
}
