package trainings

import (
	"github.com/2beens/fittrack/internal/apperr"
)

// Plan is the outcome of comparing the stored sets of a training with the list a client sent.
// Deletes, Inserts and Updates never overlap.
type Plan struct {
	// Deletes holds ids of stored sets missing from the incoming list.
	Deletes []int
	// Inserts holds incoming items without a set id.
	Inserts []SetItem
	// Updates holds incoming items referencing a stored set.
	Updates []SetItem
}

func (p Plan) Empty() bool {
	return len(p.Deletes) == 0 && len(p.Inserts) == 0 && len(p.Updates) == 0
}

// Diff computes the reconciliation plan. It fails when an incoming set id is repeated
// or does not belong to the stored sets, so nothing gets written for such a list.
func Diff(existingIDs []int, incoming []SetItem) (Plan, error) {
	existing := make(map[int]struct{}, len(existingIDs))
	for _, id := range existingIDs {
		existing[id] = struct{}{}
	}

	plan := Plan{}
	kept := make(map[int]struct{}, len(incoming))
	for _, item := range incoming {
		if item.SetID == nil {
			plan.Inserts = append(plan.Inserts, item)
			continue
		}

		setID := *item.SetID
		if _, ok := kept[setID]; ok {
			return Plan{}, apperr.InvalidArgument("Set %d is listed more than once.", setID)
		}
		if _, ok := existing[setID]; !ok {
			return Plan{}, apperr.NotFound("Set %d does not belong to this training.", setID)
		}
		kept[setID] = struct{}{}
		plan.Updates = append(plan.Updates, item)
	}

	for _, id := range existingIDs {
		if _, ok := kept[id]; !ok {
			plan.Deletes = append(plan.Deletes, id)
		}
	}

	return plan, nil
}
