package models

import "time"

// TicketType groups participants under a pricing/capacity class and owns the
// authorization grants that decide which access points admit its holders.
type TicketType struct {
	ID                  int64      `db:"id" json:"id"`
	EventID             int64      `db:"event_id" json:"event_id"`
	Name                string     `db:"name" json:"name"`
	Description         *string    `db:"description" json:"description,omitempty"`
	Price               float64    `db:"price" json:"price"`
	IsFree              bool       `db:"is_free" json:"is_free"`
	IsCapacityUnlimited bool       `db:"is_capacity_unlimited" json:"is_capacity_unlimited"`
	MinCapacity         *int       `db:"min_capacity" json:"min_capacity,omitempty"`
	MaxCapacity         *int       `db:"max_capacity" json:"max_capacity,omitempty"`
	SalesEndDate        *time.Time `db:"sales_end_date" json:"sales_end_date,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// AuthorizationGrant links a ticket type to an access point its holders may
// pass. A ticket type with zero grants is unrestricted.
type AuthorizationGrant struct {
	TicketTypeID  int64     `db:"ticket_type_id" json:"ticket_type_id"`
	AccessPointID int64     `db:"access_point_id" json:"access_point_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	CreatedBy     *string   `db:"created_by" json:"created_by,omitempty"`
}
