package tenant

import (
	"time"
)

// Tenant is a customer organization (a school). Identity and profile data
// are owned by an external system; the billing core only needs the id and
// enough to iterate active tenants during scheduled runs.
type Tenant struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
