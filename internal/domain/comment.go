package domain

import "time"

// SortOrder controls the order in which a storage backend returns comments
// for a scope. Ordering is established by the backend's row key (relational)
// or creation timestamp (append log), never by the threader.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder maps a query parameter to a SortOrder.
// Unknown values fall back to ascending.
func ParseSortOrder(s string) SortOrder {
	if s == string(SortDesc) {
		return SortDesc
	}
	return SortAsc
}

// Comment is a fully-formed comment ready for persistence. The backend row
// identifier is not part of it; backends assign one on Store.
type Comment struct {
	ItemID     string    `json:"itemId"`
	CommentID  string    `json:"commentId"`
	ParentID   string    `json:"parentId,omitempty"` // empty for top-level comments
	Username   string    `json:"username,omitempty"`
	UserEmail  string    `json:"userEmail,omitempty"`
	Message    string    `json:"message"`
	PageURL    string    `json:"pageUrl,omitempty"`
	PageTitle  string    `json:"pageTitle,omitempty"`
	CommentURL string    `json:"commentUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	Hidden     bool      `json:"hidden"`
}

// StoredComment is a Comment together with its backend-assigned row
// identifier. The row id is used only for deletion and admin token
// derivation; it never appears in the public API payload.
type StoredComment struct {
	Comment
	RowID int64 `json:"rowId"`
}

// PublicComment is the wire shape returned to clients. The raw message and
// its rendered HTML are both included; user email and row id are not.
// Nested carries direct replies in backend order.
type PublicComment struct {
	ItemID      string           `json:"itemId"`
	CommentID   string           `json:"commentId"`
	ParentID    string           `json:"parentId,omitempty"`
	CommentURL  string           `json:"commentUrl,omitempty"`
	Username    string           `json:"username,omitempty"`
	Message     string           `json:"message"`
	HTMLMessage string           `json:"htmlMessage"`
	CreatedAt   time.Time        `json:"createdAt"`
	Hidden      bool             `json:"hidden"`
	Nested      []*PublicComment `json:"nested"`
}
