package grid

import (
	"encoding/hex"
	"fmt"
	"sort"

	"lukechampine.com/blake3"

	"github.com/mesh-intelligence/rackgrid/pkg/types"
)

// Fingerprint hashes the geometry and container placement of loc with
// BLAKE3. Two snapshots with equal fingerprints index identically, so a
// committer can detect that a location changed after a plan was computed.
func Fingerprint(loc *types.Location) string {
	if loc == nil {
		return ""
	}
	h := blake3.New(32, nil)
	fmt.Fprintf(h, "%s\x00%d\x00%d\x00%s\x00%d\n", loc.LocationID, loc.Rows, loc.Cols, loc.Scheme, loc.Capacity)

	lines := make([]string, 0, len(loc.Containers))
	for _, c := range loc.Containers {
		if c == nil {
			continue
		}
		pos := "-"
		if p, ok := c.StoredPosition(); ok {
			pos = fmt.Sprint(p)
		}
		lines = append(lines, c.ContainerID+"\x00"+pos+"\x00"+c.ScannedLabel)
	}
	sort.Strings(lines)
	for _, line := range lines {
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
