package operation

// reconcilePlan is the outcome of matching a submitted item list against
// stored rows: stored rows missing from the submission are deleted,
// matched rows are updated in place, id-less entries become inserts.
type reconcilePlan struct {
	deleteIDs []string
	updates   []ItemInput
	inserts   []ItemInput
}

// reconcileItems computes the plan for one item collection. It rejects an
// empty submission (collections must stay non-empty), duplicate submitted
// ids and ids that target no stored row.
func reconcileItems(existingIDs []string, submitted []ItemInput) (*reconcilePlan, error) {
	if len(submitted) == 0 {
		return nil, ErrItemsRequired
	}

	existing := make(map[string]struct{}, len(existingIDs))
	for _, id := range existingIDs {
		existing[id] = struct{}{}
	}

	plan := &reconcilePlan{}
	seen := make(map[string]struct{}, len(submitted))

	for _, item := range submitted {
		if item.ID == "" {
			plan.inserts = append(plan.inserts, item)
			continue
		}
		if _, dup := seen[item.ID]; dup {
			return nil, ErrDuplicateItemID
		}
		seen[item.ID] = struct{}{}

		if _, ok := existing[item.ID]; !ok {
			return nil, ErrItemNotFound
		}
		plan.updates = append(plan.updates, item)
	}

	for _, id := range existingIDs {
		if _, ok := seen[id]; !ok {
			plan.deleteIDs = append(plan.deleteIDs, id)
		}
	}

	return plan, nil
}
