package domain

import (
	"fmt"
	"strings"
)

// Raw order log columns.
const (
	ColID             = "id"
	ColOrderDate      = "orderDate"
	ColDeliveryDate   = "deliveryDate"
	ColItemID         = "itemID"
	ColSize           = "size"
	ColColor          = "color"
	ColPrice          = "price"
	ColCustomerID     = "customerID"
	ColSalutation     = "salutation"
	ColDateOfBirth    = "dateOfBirth"
	ColState          = "state"
	ColCreationDate   = "creationDate"
	ColManufacturerID = "manufacturerID"
	ColReturn         = "return"
)

// Derived feature columns.
const (
	ColCustomerAge      = "customer_age_at_order"
	ColAccountAgeMonths = "account_age_months"
	ColOrderMonth       = "order_month"
	ColDaysToDeliver    = "days_to_deliver"
	ColIsDelivered      = "is_delivered"
	ColCustomerClass    = "customer_class"
	ColTotalSales       = "total_sales"
	ColTotalReturns     = "total_returns"
	ColTotalOrders      = "total_orders"
	ColReturnRate       = "return_rate"
)

const (
	DefaultMissingColor     = "No Color"
	DefaultSentinelDate     = "1990-12-31"
	DefaultTrainingMaxPrice = 600.0

	// Average Gregorian year and month lengths in days.
	DaysPerYear  = 365.2425
	DaysPerMonth = 30.436875
)

// DateColumns are the order log columns holding calendar dates.
var DateColumns = []string{ColOrderDate, ColDeliveryDate, ColDateOfBirth, ColCreationDate}

// IdentifierColumns are the order log columns joined against lookup tables.
var IdentifierColumns = []string{ColItemID, ColCustomerID, ColManufacturerID}

// PrunedColumns are dropped once every derived feature has been computed.
var PrunedColumns = []string{
	ColOrderDate, ColDeliveryDate, ColCreationDate, ColDateOfBirth,
	ColItemID, ColManufacturerID, ColCustomerID,
}

// Entity identifies one of the grouping keys a return history is kept for.
type Entity string

const (
	EntityCustomer     Entity = "customer"
	EntityItem         Entity = "item"
	EntityManufacturer Entity = "manufacturer"
)

// Entities lists every entity in join order.
func Entities() []Entity {
	return []Entity{EntityCustomer, EntityItem, EntityManufacturer}
}

// ParseEntity converts a name such as "customer" into an Entity.
func ParseEntity(s string) (Entity, error) {
	e := Entity(strings.ToLower(strings.TrimSpace(s)))
	if err := e.Validate(); err != nil {
		return "", err
	}
	return e, nil
}

// Validate checks that e is a known entity.
func (e Entity) Validate() error {
	switch e {
	case EntityCustomer, EntityItem, EntityManufacturer:
		return nil
	}
	return fmt.Errorf("unknown entity %q", string(e))
}

// KeyColumn is the order log column holding the entity identifier, e.g. customerID.
func (e Entity) KeyColumn() string { return string(e) + "ID" }

// ReturnRateColumn is the feature column the entity's return rate is joined into.
func (e Entity) ReturnRateColumn() string { return string(e) + "_return_rate" }

// OrderCountColumn is the feature column the entity's order count is joined into.
func (e Entity) OrderCountColumn() string { return string(e) + "_order_count" }

// CategoryColumn is the lookup column holding the entity's return category.
func (e Entity) CategoryColumn() string { return string(e) + "_return_category" }

// JoinsOrderCount reports whether the order count is carried into the feature table.
// Only the customer join brings the count along with the rate.
func (e Entity) JoinsOrderCount() bool { return e == EntityCustomer }

// Prediction is one row of a submission file.
type Prediction struct {
	ID     string `json:"id" db:"id"`
	Return int    `json:"return" db:"return" validate:"oneof=0 1"`
}
