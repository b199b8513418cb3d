package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rackgrid/pkg/events"
	"github.com/mesh-intelligence/rackgrid/pkg/relocation"
	"github.com/mesh-intelligence/rackgrid/pkg/selection"
	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

type moveOptions struct {
	from      string
	to        string
	slots     []string
	at        string
	direction string
	offsets   map[string]int
	dryRun    bool
}

func (a *app) newMoveCmd() *cobra.Command {
	var opts moveOptions
	cmd := &cobra.Command{
		Use:   "move",
		Short: "Relocate a batch of containers",
		Long: `Pick up the containers at the selected slots and drop them on a target
slot. Targets follow the travel direction: pattern keeps the batch's shape,
left_right and top_bottom fill consecutive slots from the target. The batch
moves only if every container gets a free, in-bounds and distinct slot;
otherwise nothing changes.

Example:
  rackgrid move --from rack-1 --select A1,A2,B1 --at C5
  rackgrid move --from rack-1 --to box-7 --select A1,A2 --at 1-1 --direction top_bottom
  rackgrid move --from rack-1 --select A1 --at H12 --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runMove(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.from, "from", "", "source location ID or name")
	cmd.Flags().StringVar(&opts.to, "to", "", "target location ID or name (default: the source)")
	cmd.Flags().StringSliceVar(&opts.slots, "select", nil, "slots to pick up (labels or #index)")
	cmd.Flags().StringVar(&opts.at, "at", "", "target slot the batch is dropped on")
	cmd.Flags().StringVar(&opts.direction, "direction", "", "travel direction: left_right, top_bottom, pattern")
	cmd.Flags().StringToIntVar(&opts.offsets, "offset", nil, "explicit container offsets from the target slot (ID=N)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "show the plan without moving anything")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("select")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func (a *app) runMove(cmd *cobra.Command, opts moveOptions) error {
	dir, err := a.direction(opts.direction)
	if err != nil {
		return err
	}

	return a.withStore(func(store types.Store) error {
		from, err := findLocation(store, opts.from)
		if err != nil {
			return err
		}
		to := from
		if opts.to != "" {
			if to, err = findLocation(store, opts.to); err != nil {
				return err
			}
		}

		bus := events.NewBus()
		bus.Subscribe(func(e events.Event) {
			a.log.Debug("event", "kind", e.Kind, "location", e.LocationID, "positions", e.Positions, "err", e.Err)
		})
		session := relocation.NewSession(store, bus, relocation.Options{Direction: dir, Logger: a.log})

		for _, id := range uniqueIDs(from.LocationID, to.LocationID) {
			snap, err := store.Snapshot(id)
			if err != nil {
				return err
			}
			issues, err := session.Load(snap)
			if err != nil {
				return err
			}
			for _, issue := range issues {
				printWarning(cmd.ErrOrStderr(), "%s: %s", snap.Name, issue.Error())
			}
		}

		source, err := session.Index(from.LocationID)
		if err != nil {
			return err
		}
		positions := make([]int, 0, len(opts.slots))
		for _, s := range opts.slots {
			pos, err := parseSlot(from, s)
			if err != nil {
				return err
			}
			positions = append(positions, pos)
		}
		if len(positions) == 0 {
			return fmt.Errorf("%w: nothing selected", types.ErrNilContainer)
		}
		sel := selection.New(from.LocationID, source.Shape(), bus)
		if err := sel.Set(positions, positions[0]); err != nil {
			return err
		}
		if err := session.Begin(sel); err != nil {
			return err
		}

		anchor, err := parseSlot(to, opts.at)
		if err != nil {
			_ = session.Cancel()
			return err
		}
		plan, err := session.Hover(to.LocationID, anchor, opts.offsets)
		if err != nil {
			_ = session.Cancel()
			return err
		}

		if opts.dryRun {
			if err := session.Cancel(); err != nil {
				return err
			}
			if err := a.reportPlan(cmd, session, from, to, plan); err != nil {
				return err
			}
			return plan.Err()
		}

		if _, err := session.Drop(sel); err != nil {
			if rerr := a.reportPlan(cmd, session, from, to, plan); rerr != nil {
				return rerr
			}
			return err
		}
		if err := a.reportPlan(cmd, session, from, to, plan); err != nil {
			return err
		}
		if !a.jsonMode {
			printSuccess(out(cmd), "moved %d container(s) to %s", len(plan.Moves()), to.Name)
		}
		return nil
	})
}

// moveJSON is the JSON form of a plan.
type moveJSON struct {
	Status      relocation.Status `json:"status"`
	Direction   types.Direction   `json:"direction"`
	From        string            `json:"from"`
	To          string            `json:"to"`
	Assignments []assignmentJSON  `json:"assignments"`
}

type assignmentJSON struct {
	ContainerID string            `json:"container_id"`
	From        string            `json:"from"`
	To          string            `json:"to"`
	Reason      relocation.Reason `json:"reason,omitempty"`
	ConflictID  string            `json:"conflict_id,omitempty"`
	NoOp        bool              `json:"no_op,omitempty"`
}

// reportPlan prints the target location with the plan's preview and one
// row per container.
func (a *app) reportPlan(cmd *cobra.Command, session *relocation.Session, from, to *types.Location, plan *relocation.Plan) error {
	res := moveJSON{
		Status:    plan.Status,
		Direction: plan.Direction,
		From:      from.Name,
		To:        to.Name,
	}
	for _, as := range plan.Assignments {
		target := "-"
		if as.Target >= 0 {
			target = slotLabel(to, as.Target)
		}
		res.Assignments = append(res.Assignments, assignmentJSON{
			ContainerID: as.Container.ContainerID,
			From:        slotLabel(from, as.FromPosition),
			To:          target,
			Reason:      as.Reason,
			ConflictID:  as.ConflictID,
			NoOp:        as.NoOp,
		})
	}
	if a.jsonMode {
		return printJSON(out(cmd), res)
	}

	idx, err := session.Index(to.LocationID)
	if err != nil {
		return err
	}
	printHeader(out(cmd), fmt.Sprintf("%s  %s  %s", to.Name, plan.Direction, plan.Status))
	renderIndex(out(cmd), idx, plan.Preview())

	rows := make([][]string, len(res.Assignments))
	for i, as := range res.Assignments {
		status := "ok"
		switch {
		case as.Reason != relocation.ReasonNone:
			status = string(as.Reason)
			if as.ConflictID != "" {
				status += " (" + shortID(as.ConflictID) + ")"
			}
		case as.NoOp:
			status = "unchanged"
		}
		rows[i] = []string{shortID(as.ContainerID), as.From, as.To, status}
	}
	printTable(out(cmd), []string{"CONTAINER", "FROM", "TO", "STATUS"}, rows)
	return nil
}

func uniqueIDs(ids ...string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
