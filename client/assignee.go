package client

import (
	"sort"
	"strings"

	"kanbanlite/model"
)

// AssigneeOption is one entry in the assignment picker: either a board
// member or a standalone assignee, with a stable key for selection state.
type AssigneeOption struct {
	Ref  model.AssigneeRef
	Name string
	// AssigneeID is the assignees row backing this option, zero when the
	// member has no linked assignee row yet.
	AssigneeID int64
}

// AssigneeOptions joins members and assignees for one board into a single
// deduplicated picker list. A member whose account is linked to an assignee
// row appears once, as a member ref carrying that row's id. Sorted by name.
func (c *Collections) AssigneeOptions(boardID int64) *JoinQuery[model.BoardMember, model.Assignee, AssigneeOption] {
	return NewJoinQuery(c.Members, c.Assignees,
		func(members []model.BoardMember, assignees []model.Assignee) []AssigneeOption {
			byAccount := make(map[int64]model.Assignee)
			var virtual []model.Assignee
			for _, as := range assignees {
				if as.BoardID != boardID {
					continue
				}
				if as.AccountID != nil {
					byAccount[*as.AccountID] = as
				} else {
					virtual = append(virtual, as)
				}
			}
			var out []AssigneeOption
			for _, m := range members {
				if m.BoardID != boardID {
					continue
				}
				opt := AssigneeOption{Ref: model.MemberRef(m.AccountID, boardID, m.Name), Name: m.Name}
				if as, ok := byAccount[m.AccountID]; ok {
					opt.AssigneeID = as.ID
				}
				out = append(out, opt)
			}
			for _, as := range virtual {
				out = append(out, AssigneeOption{Ref: model.VirtualRef(as.ID, as.Name), Name: as.Name, AssigneeID: as.ID})
			}
			sort.Slice(out, func(i, j int) bool {
				a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
				if a != b {
					return a < b
				}
				return out[i].Ref.Key() < out[j].Ref.Key()
			})
			return out
		})
}

// AssigneeName resolves an assignee id to its display name, or "Unknown"
// when the row is not cached.
func (c *Collections) AssigneeName(id int64) string {
	if as, ok := c.Assignees.Get(idKey(id)); ok {
		return as.Name
	}
	return "Unknown"
}
