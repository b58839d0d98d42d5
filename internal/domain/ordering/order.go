package ordering

import (
	"github.com/bloomshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderStatus represents the internal lifecycle state of an order
type OrderStatus string

const (
	OrderStatusNew          OrderStatus = "NEW"
	OrderStatusPaid         OrderStatus = "PAID"
	OrderStatusAccepted     OrderStatus = "ACCEPTED"
	OrderStatusInProduction OrderStatus = "IN_PRODUCTION"
	OrderStatusInDelivery   OrderStatus = "IN_DELIVERY"
	OrderStatusDelivered    OrderStatus = "DELIVERED"
	OrderStatusCancelled    OrderStatus = "CANCELLED"
)

// IsValid returns true if the status is a known lifecycle state
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusNew, OrderStatusPaid, OrderStatusAccepted,
		OrderStatusInProduction, OrderStatusInDelivery,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// History entry origins
const (
	HistoryOriginCRM   = "crm"
	HistoryOriginLocal = "local"
)

// Order represents a customer order. For CRM-backed tenants the CRM is
// the system of record; its status updates are applied unconditionally.
type Order struct {
	shared.TenantAggregateRoot
	Number          string      `gorm:"type:varchar(50);not null;uniqueIndex:idx_order_tenant_number,priority:2"`
	ExternalOrderID *int64      `gorm:"uniqueIndex:idx_order_tenant_external,priority:2"`
	Status          OrderStatus `gorm:"type:varchar(20);not null;default:'NEW'"`
	CustomerName    string      `gorm:"type:varchar(200)"`
	CustomerPhone   string      `gorm:"type:varchar(50)"`
	History         []OrderHistoryEntry `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// OrderHistoryEntry is an append-only record of a status transition.
// Every transition, local or CRM-driven, appends exactly one entry.
type OrderHistoryEntry struct {
	shared.BaseEntity
	OrderID   uuid.UUID   `gorm:"type:uuid;not null;index"`
	Status    OrderStatus `gorm:"type:varchar(20);not null"`
	ChangedBy string      `gorm:"type:varchar(100);not null"`
	Origin    string      `gorm:"type:varchar(20);not null"`
	Note      string      `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (OrderHistoryEntry) TableName() string {
	return "order_history"
}

// NewOrder creates a new order in the NEW state with an initial history entry
func NewOrder(tenantID uuid.UUID, number, customerName, customerPhone, createdBy string) (*Order, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Order number cannot be empty")
	}

	order := &Order{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              number,
		Status:              OrderStatusNew,
		CustomerName:        customerName,
		CustomerPhone:       customerPhone,
	}
	order.appendHistory(OrderStatusNew, createdBy, HistoryOriginLocal, "")
	return order, nil
}

// LinkExternalOrder binds the order to its CRM counterpart
func (o *Order) LinkExternalOrder(externalOrderID int64) error {
	if o.ExternalOrderID != nil && *o.ExternalOrderID != externalOrderID {
		return shared.NewDomainError("ALREADY_LINKED", "Order is already linked to a different CRM order")
	}
	o.ExternalOrderID = &externalOrderID
	o.Touch()
	o.IncrementVersion()
	return nil
}

// ApplyCRMStatus sets the status from a CRM event and appends one
// history entry tagged with the CRM origin.
//
// The CRM is the declared source of truth for orders: the incoming
// status is applied even when it is not a forward transition, and no
// monotonicity check is enforced on this path.
func (o *Order) ApplyCRMStatus(status OrderStatus, changedBy, note string) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown order status")
	}

	o.Status = status
	o.appendHistory(status, changedBy, HistoryOriginCRM, note)
	o.Touch()
	o.IncrementVersion()
	return nil
}

// Transition applies a locally initiated status change and appends one
// history entry tagged with the local origin
func (o *Order) Transition(status OrderStatus, actor, note string) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown order status")
	}
	if o.Status == status {
		return shared.NewDomainError("INVALID_STATE", "Order is already in this status")
	}

	o.Status = status
	o.appendHistory(status, actor, HistoryOriginLocal, note)
	o.Touch()
	o.IncrementVersion()
	return nil
}

func (o *Order) appendHistory(status OrderStatus, changedBy, origin, note string) {
	o.History = append(o.History, OrderHistoryEntry{
		BaseEntity: shared.NewBaseEntity(),
		OrderID:    o.ID,
		Status:     status,
		ChangedBy:  changedBy,
		Origin:     origin,
		Note:       note,
	})
}
