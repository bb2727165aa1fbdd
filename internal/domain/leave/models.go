package leave

import "time"

const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

const (
	TypePaid   = "Paid"
	TypeSick   = "Sick"
	TypeUnpaid = "Unpaid"
)

const Collection = "leaves"

// Request is a leave request. Status moves from Pending to exactly one
// terminal state and never changes again.
type Request struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	Type          string    `json:"type"`
	From          time.Time `json:"from"`
	To            time.Time `json:"to"`
	Remarks       string    `json:"remarks,omitempty"`
	Status        string    `json:"status"`
	ApprovedBy    string    `json:"approvedBy,omitempty"`
	AdminComments string    `json:"adminComments,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}
