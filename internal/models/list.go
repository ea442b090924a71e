package models

import "time"

// List is a named, owned collection of media record ids.
// Member ids are unique and kept in insertion order.
type List struct {
	ID      string `boltholdKey:"ID" json:"id"`
	OwnerID string `boltholdIndex:"OwnerID" json:"ownerId"`

	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
	IsPublic    bool   `json:"isPublic"`

	// Members may transiently reference deleted records; reads resolve
	// lazily and drop ids that no longer exist.
	MemberIDs []uint64 `json:"memberIds"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Contains reports whether id is already a member of the list
func (l *List) Contains(id uint64) bool {
	for _, m := range l.MemberIDs {
		if m == id {
			return true
		}
	}
	return false
}
