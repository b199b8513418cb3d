package types

// Move relocates one container from its origin slot to a target slot,
// possibly in another location.
type Move struct {
	ContainerID  string `json:"container_id"`
	FromLocation string `json:"from_location"`
	FromPosition int    `json:"from_position"`
	ToLocation   string `json:"to_location"`
	ToPosition   int    `json:"to_position"`
}

// SameLocation reports whether the move stays inside one location.
func (m Move) SameLocation() bool {
	return m.FromLocation == m.ToLocation
}

// CommitRequest is the batch a relocation session hands to the Committer.
// Fingerprints maps each involved location ID to the fingerprint of the
// snapshot the plan was computed against; the committer compares them with
// its current state before applying anything.
type CommitRequest struct {
	Moves        []Move            `json:"moves"`
	Fingerprints map[string]string `json:"fingerprints"`
}

// LocationIDs returns the distinct location IDs touched by the request, in
// first-seen order.
func (r CommitRequest) LocationIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, m := range r.Moves {
		for _, id := range []string{m.FromLocation, m.ToLocation} {
			if id != "" && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}
