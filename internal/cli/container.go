package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rackgrid/pkg/grid"
	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

func (a *app) newContainerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "container",
		Aliases: []string{"ct"},
		Short:   "Manage containers",
	}
	cmd.AddCommand(a.newContainerAddCmd(), a.newContainerListCmd(), a.newContainerRemoveCmd())
	return cmd
}

func (a *app) newContainerAddCmd() *cobra.Command {
	var (
		locationRef, slot, label, kind string
		samples                        int
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a container",
		Long: `Add a container, optionally stored in a location. The slot is given with
--position as a label of the location's scheme (A1, 1-1) or as #N for the
0-based index. With --label the slot is taken from a label scanned off the
rack. Without either the container takes the first free slot in the
location's travel direction.

Example:
  rackgrid container add --location rack-1 --position B3
  rackgrid container add --location rack-1 --kind plate --samples 96
  rackgrid container add --kind tube`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := &types.Container{Kind: kind, SampleCount: samples}
			if err := c.Validate(); err != nil {
				return err
			}
			if locationRef == "" && (slot != "" || label != "") {
				return fmt.Errorf("%w: --position and --label need --location", types.ErrInvalidData)
			}
			return a.withStore(func(store types.Store) error {
				if locationRef != "" {
					loc, err := findLocation(store, locationRef)
					if err != nil {
						return err
					}
					if err := placeNew(store, loc, c, slot, label); err != nil {
						return err
					}
				}

				containers, err := store.GetTable(types.TableContainers)
				if err != nil {
					return sysErr(err)
				}
				id, err := containers.Set("", c)
				if err != nil {
					return err
				}
				a.log.Info("container added", "id", id, "location", c.LocationID)
				if a.jsonMode {
					return printJSON(out(cmd), c)
				}
				printSuccess(out(cmd), "added %s %s", c.Kind, id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&locationRef, "location", "", "location ID or name")
	cmd.Flags().StringVar(&slot, "position", "", "slot label or #index")
	cmd.Flags().StringVar(&label, "label", "", "scanned slot label")
	cmd.Flags().StringVar(&kind, "kind", types.KindTube, "container kind: tube, plate, cassette, slide")
	cmd.Flags().IntVar(&samples, "samples", 1, "number of biosamples held")
	return cmd
}

// placeNew sets the location and slot of a container about to be created
// in loc.
func placeNew(store types.Store, loc *types.Location, c *types.Container, slot, label string) error {
	c.LocationID = loc.LocationID
	switch {
	case slot != "" && label != "":
		return fmt.Errorf("%w: use either --position or --label", types.ErrInvalidData)
	case label != "":
		c.ScannedLabel = label
		return nil
	case slot != "":
		pos, err := parseSlot(loc, slot)
		if err != nil {
			return err
		}
		c.Position = &pos
		return nil
	}

	snap, err := store.Snapshot(loc.LocationID)
	if err != nil {
		return err
	}
	pos, err := firstFree(snap)
	if err != nil {
		return err
	}
	c.Position = &pos
	return nil
}

// firstFree returns the slot a new container takes in loc: the first free
// slot in the travel direction for a grid, one past the last raw position
// for an unstructured location.
func firstFree(loc *types.Location) (int, error) {
	if loc.Scheme == types.SchemeNone {
		if loc.Capacity > 0 && len(loc.Containers) >= loc.Capacity {
			return 0, fmt.Errorf("%w: location %s is full", types.ErrOutOfBounds, loc.Name)
		}
		next := 0
		for _, c := range loc.Containers {
			if p, ok := c.StoredPosition(); ok && p >= next {
				next = p + 1
			}
		}
		return next, nil
	}

	idx, _, err := grid.BuildIndex(loc)
	if err != nil {
		return 0, err
	}
	shape := idx.Shape()
	dir := loc.Direction()
	for pos, ok := 0, shape.Contains(0); ok; pos, ok = grid.Advance(shape, pos, dir, 1) {
		if pos >= loc.Limit() {
			continue
		}
		if _, taken := idx.At(pos); !taken {
			return pos, nil
		}
	}
	return 0, fmt.Errorf("%w: location %s is full", types.ErrOutOfBounds, loc.Name)
}

func (a *app) newContainerListCmd() *cobra.Command {
	var locationRef, kind string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List containers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store types.Store) error {
				filter := map[string]any{}
				locs := map[string]*types.Location{}
				if locationRef != "" {
					loc, err := findLocation(store, locationRef)
					if err != nil {
						return err
					}
					filter["location_id"] = loc.LocationID
					locs[loc.LocationID] = loc
				}
				if kind != "" {
					filter["kind"] = kind
				}

				containers, err := store.GetTable(types.TableContainers)
				if err != nil {
					return sysErr(err)
				}
				all, err := containers.Fetch(filter)
				if err != nil {
					return err
				}
				cs := make([]*types.Container, len(all))
				for i, e := range all {
					cs[i] = e.(*types.Container)
				}
				if a.jsonMode {
					return printJSON(out(cmd), cs)
				}
				if len(cs) == 0 {
					fmt.Fprintln(out(cmd), "No containers found.")
					return nil
				}

				rows := make([][]string, len(cs))
				for i, c := range cs {
					where, slot := "-", "-"
					if c.LocationID != "" {
						loc, ok := locs[c.LocationID]
						if !ok {
							if loc, err = findLocation(store, c.LocationID); err != nil {
								return err
							}
							locs[c.LocationID] = loc
						}
						where = loc.Name
						slot = containerSlot(loc, c)
					}
					rows[i] = []string{shortID(c.ContainerID), c.Kind, strconv.Itoa(c.SampleCount), where, slot}
				}
				printTable(out(cmd), []string{"ID", "KIND", "SAMPLES", "LOCATION", "SLOT"}, rows)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&locationRef, "location", "", "only containers stored in this location")
	cmd.Flags().StringVar(&kind, "kind", "", "only containers of this kind")
	return cmd
}

// containerSlot renders where c sits in loc. Unstructured locations show
// the raw ordering value.
func containerSlot(loc *types.Location, c *types.Container) string {
	if loc.Scheme == types.SchemeNone {
		if p, ok := c.StoredPosition(); ok {
			return "#" + strconv.Itoa(p)
		}
		return "-"
	}
	pos, err := grid.SlotOf(c, loc)
	if err != nil {
		return "?"
	}
	return slotLabel(loc, pos)
}

func (a *app) newContainerRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Remove a container",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store types.Store) error {
				containers, err := store.GetTable(types.TableContainers)
				if err != nil {
					return sysErr(err)
				}
				if err := containers.Delete(args[0]); err != nil {
					return err
				}
				printSuccess(out(cmd), "removed container %s", args[0])
				return nil
			})
		},
	}
}
