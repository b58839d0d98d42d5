package sync

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/bloomshop/backend/internal/domain/ordering"
	"github.com/google/uuid"
)

// EventKind identifies the tagged variant of an inbound webhook event
type EventKind string

const (
	EventProductCreated     EventKind = "product.created"
	EventProductUpdated     EventKind = "product.updated"
	EventProductDeleted     EventKind = "product.deleted"
	EventOrderStatusChanged EventKind = "order.status_changed"
)

// IsValid returns true if the kind is a known event variant
func (k EventKind) IsValid() bool {
	switch k {
	case EventProductCreated, EventProductUpdated, EventProductDeleted, EventOrderStatusChanged:
		return true
	default:
		return false
	}
}

// String returns the string representation of EventKind
func (k EventKind) String() string {
	return string(k)
}

// ProductPayload is the normalized product content of a sync event.
// All CRM locale representations are already converted to canonical
// typed values; downstream code never sees raw strings.
type ProductPayload struct {
	ExternalID  string
	Name        string
	Price       int64
	DimensionCM int
	Enabled     bool
	ImageURL    string
}

// OrderStatusPayload is the normalized order-status content of a sync
// event. Status carries the mapped internal state, CRMCode the original
// code for logging.
type OrderStatusPayload struct {
	ExternalOrderID int64
	Status          ordering.OrderStatus
	CRMCode         string
	ChangedByID     int64
	Note            string
}

// SyncEvent is the parsed, normalized representation of one inbound
// webhook call. It is ephemeral: not persisted beyond processing.
type SyncEvent struct {
	TenantID   uuid.UUID
	Kind       EventKind
	Product    *ProductPayload
	Order      *OrderStatusPayload
	ReceivedAt time.Time
}

// IsProductEvent returns true for the product.* variants
func (e *SyncEvent) IsProductEvent() bool {
	return e.Product != nil
}

// EntityKey returns the serialization key for the entity this event
// targets. All mutations sharing a key are mutually exclusive.
func (e *SyncEvent) EntityKey() string {
	if e.Product != nil {
		return e.TenantID.String() + "|product|" + e.Product.ExternalID
	}
	if e.Order != nil {
		return e.TenantID.String() + "|order|" + strconv.FormatInt(e.Order.ExternalOrderID, 10)
	}
	return e.TenantID.String() + "|" + string(e.Kind)
}

// externalID tolerates the CRM sending product IDs as either JSON
// numbers or strings
type externalID string

// UnmarshalJSON implements json.Unmarshaler
func (id *externalID) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		*id = externalID(asString)
		return nil
	}
	var asNumber json.Number
	if err := json.Unmarshal(data, &asNumber); err != nil {
		return err
	}
	*id = externalID(asNumber.String())
	return nil
}

// productEnvelope mirrors the CRM's product webhook wire format
type productEnvelope struct {
	Event   string `json:"event"`
	Product *struct {
		ID          externalID `json:"id"`
		Name        string     `json:"name"`
		Price       string     `json:"price"`
		Size        string     `json:"size"`
		IsAvailable bool       `json:"isAvailable"`
		ImageURL    string     `json:"image_url"`
	} `json:"product"`
}

// orderEnvelope mirrors the CRM's order-status webhook wire format
type orderEnvelope struct {
	OrderID     *int64 `json:"order_id"`
	Status      string `json:"status"`
	ChangedByID int64  `json:"changed_by_id"`
	Notes       string `json:"notes"`
}

// ParseProductEvent matches raw webhook bytes against the product
// envelope shape and normalizes the payload into a tagged SyncEvent.
//
// A payload that does not match the envelope shape fails with
// ErrInvalidEnvelope (malformed, 400-class). A payload that matches the
// shape but carries unparsable field values fails with a ParseError
// (semantic rejection, 422-class). No partial result is returned.
func ParseProductEvent(tenantID uuid.UUID, raw []byte) (*SyncEvent, error) {
	var env productEnvelope
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&env); err != nil {
		return nil, ErrInvalidEnvelope
	}

	kind := EventKind(env.Event)
	if !kind.IsValid() || kind == EventOrderStatusChanged {
		return nil, ErrInvalidEnvelope
	}
	if env.Product == nil || env.Product.ID == "" {
		return nil, ErrInvalidEnvelope
	}

	payload := &ProductPayload{
		ExternalID: string(env.Product.ID),
		ImageURL:   env.Product.ImageURL,
	}

	// Deletion only needs the external ID; the remaining fields are
	// whatever the CRM last had and must not gate the soft delete.
	if kind != EventProductDeleted {
		if env.Product.Name == "" {
			return nil, ErrInvalidEnvelope
		}
		price, err := ParsePrice(env.Product.Price)
		if err != nil {
			return nil, err
		}
		dimension, err := ParseDimension(env.Product.Size)
		if err != nil {
			return nil, err
		}
		payload.Name = env.Product.Name
		payload.Price = price
		payload.DimensionCM = dimension
		payload.Enabled = EnabledFromFlag(env.Product.IsAvailable)
	}

	return &SyncEvent{
		TenantID:   tenantID,
		Kind:       kind,
		Product:    payload,
		ReceivedAt: time.Now(),
	}, nil
}

// ParseOrderStatusEvent matches raw webhook bytes against the
// order-status envelope shape and maps the CRM status code through the
// status table. Unknown codes fail with ErrUnknownStatusCode.
func ParseOrderStatusEvent(tenantID uuid.UUID, raw []byte) (*SyncEvent, error) {
	var env orderEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, ErrInvalidEnvelope
	}
	if env.OrderID == nil || *env.OrderID <= 0 || env.Status == "" {
		return nil, ErrInvalidEnvelope
	}

	status, err := StatusFromCRMCode(env.Status)
	if err != nil {
		return nil, err
	}

	return &SyncEvent{
		TenantID: tenantID,
		Kind:     EventOrderStatusChanged,
		Order: &OrderStatusPayload{
			ExternalOrderID: *env.OrderID,
			Status:          status,
			CRMCode:         env.Status,
			ChangedByID:     env.ChangedByID,
			Note:            env.Notes,
		},
		ReceivedAt: time.Now(),
	}, nil
}
