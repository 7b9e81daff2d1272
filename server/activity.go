package main

import "kanbanlite/model"

// diffField describes one field group worth logging: a change predicate and
// a formatter for the human-readable summary. Field groups fire
// independently, so a single update touching several of them yields several
// activity rows.
type diffField[T any] struct {
	typ      string
	changed  func(prev, next T) bool
	describe func(prev, next T) string
}

// deriveActivities compares old and new through the field mapping and
// returns one activity row per changed field group.
func deriveActivities[T any](boardID int64, itemID, accountID *int64, prev, next T, fields []diffField[T]) []model.Activity {
	var out []model.Activity
	for _, f := range fields {
		if !f.changed(prev, next) {
			continue
		}
		out = append(out, model.Activity{
			BoardID:   boardID,
			ItemID:    itemID,
			AccountID: accountID,
			Type:      f.typ,
			Content:   f.describe(prev, next),
		})
	}
	return out
}

func strPtrEq(a, b *string) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

func int64PtrEq(a, b *int64) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

// itemActivities derives the audit rows for an item update. columnName and
// assigneeName resolve ids to display names for the summaries; they get the
// post-update value.
func itemActivities(prev, next model.Item, accountID int64, columnName func(int64) string, assigneeName func(int64) string) []model.Activity {
	fields := []diffField[model.Item]{
		{
			typ:      model.ActivityItemUpdated,
			changed:  func(o, n model.Item) bool { return o.Title != n.Title },
			describe: func(o, n model.Item) string { return "Renamed to " + n.Title },
		},
		{
			typ:      model.ActivityItemUpdated,
			changed:  func(o, n model.Item) bool { return !strPtrEq(o.Content, n.Content) },
			describe: func(o, n model.Item) string { return "Updated the description" },
		},
		{
			typ:      model.ActivityItemMoved,
			changed:  func(o, n model.Item) bool { return o.ColumnID != n.ColumnID },
			describe: func(o, n model.Item) string { return "Moved to " + columnName(n.ColumnID) },
		},
		{
			typ:     model.ActivityItemAssigned,
			changed: func(o, n model.Item) bool { return !int64PtrEq(o.AssigneeID, n.AssigneeID) },
			describe: func(o, n model.Item) string {
				if n.AssigneeID == nil {
					return "Unassigned"
				}
				return "Assigned to " + assigneeName(*n.AssigneeID)
			},
		},
	}
	itemID := next.ID
	return deriveActivities(next.BoardID, &itemID, &accountID, prev, next, fields)
}
