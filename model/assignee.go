package model

import "strconv"

// AssigneeRef addresses either a real board member or a free-text "virtual"
// assignee row through one value. The two kinds never share an id space; the
// variant tag keeps them apart instead of a string-encoded composite key.
type AssigneeRefKind int

const (
	AssigneeMember AssigneeRefKind = iota
	AssigneeVirtual
)

type AssigneeRef struct {
	Kind AssigneeRefKind
	// Member variant
	AccountID int64
	BoardID   int64
	// Virtual variant
	AssigneeID int64
	// DisplayName is resolved at the read boundary.
	DisplayName string
}

func MemberRef(accountID, boardID int64, name string) AssigneeRef {
	return AssigneeRef{Kind: AssigneeMember, AccountID: accountID, BoardID: boardID, DisplayName: name}
}

func VirtualRef(assigneeID int64, name string) AssigneeRef {
	return AssigneeRef{Kind: AssigneeVirtual, AssigneeID: assigneeID, DisplayName: name}
}

// Key is stable across both variants and usable as a map key in UI state.
func (r AssigneeRef) Key() string {
	if r.Kind == AssigneeMember {
		return "member-" + strconv.FormatInt(r.AccountID, 10) + "-" + strconv.FormatInt(r.BoardID, 10)
	}
	return "assignee-" + strconv.FormatInt(r.AssigneeID, 10)
}
