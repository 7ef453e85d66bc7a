package domain

import "time"

// Key identifies a single line item. An owner holds at most one live
// record per product.
type Key struct {
	OwnerID   string
	ProductID string
}

// LineItem is one product entry within an owner's cart. ItemID is
// assigned on first insert and never changes across partial updates.
type LineItem struct {
	ItemID    string
	OwnerID   string
	ProductID string
	Quantity  int64
	UnitPrice int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (li LineItem) Key() Key {
	return Key{OwnerID: li.OwnerID, ProductID: li.ProductID}
}

type ChangeKind string

const (
	ChangeInsert ChangeKind = "insert"
	ChangeModify ChangeKind = "modify"
	ChangeRemove ChangeKind = "remove"
)

// ChangeEvent is emitted by the store after a committed write. Before
// is nil on insert, After is nil on remove.
type ChangeEvent struct {
	Kind   ChangeKind
	Key    Key
	Before *LineItem
	After  *LineItem
}
