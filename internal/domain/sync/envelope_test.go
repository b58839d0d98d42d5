package sync

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloomshop/backend/internal/domain/ordering"
)

// ---------------------------------------------------------------------------
// Product Envelope Tests
// ---------------------------------------------------------------------------

func TestParseProductEvent(t *testing.T) {
	tenantID := uuid.New()

	t.Run("Valid created event", func(t *testing.T) {
		raw := []byte(`{
			"event": "product.created",
			"product": {
				"id": 4521,
				"name": "Букет «Весна»",
				"price": "5 000 ₸",
				"size": "65 см",
				"isAvailable": true,
				"image_url": "https://crm.example/img/4521.jpg"
			}
		}`)

		event, err := ParseProductEvent(tenantID, raw)
		require.NoError(t, err)

		assert.Equal(t, tenantID, event.TenantID)
		assert.Equal(t, EventProductCreated, event.Kind)
		assert.True(t, event.IsProductEvent())
		require.NotNil(t, event.Product)
		assert.Equal(t, "4521", event.Product.ExternalID)
		assert.Equal(t, "Букет «Весна»", event.Product.Name)
		assert.Equal(t, int64(500000), event.Product.Price)
		assert.Equal(t, 65, event.Product.DimensionCM)
		assert.True(t, event.Product.Enabled)
		assert.Equal(t, "https://crm.example/img/4521.jpg", event.Product.ImageURL)
		assert.False(t, event.ReceivedAt.IsZero())
	})

	t.Run("External ID as string", func(t *testing.T) {
		raw := []byte(`{"event":"product.updated","product":{"id":"sku-77","name":"Роза","price":"750","size":"40 см","isAvailable":false}}`)

		event, err := ParseProductEvent(tenantID, raw)
		require.NoError(t, err)
		assert.Equal(t, EventProductUpdated, event.Kind)
		assert.Equal(t, "sku-77", event.Product.ExternalID)
		assert.False(t, event.Product.Enabled)
	})

	t.Run("Deleted event needs only the ID", func(t *testing.T) {
		raw := []byte(`{"event":"product.deleted","product":{"id":4521}}`)

		event, err := ParseProductEvent(tenantID, raw)
		require.NoError(t, err)
		assert.Equal(t, EventProductDeleted, event.Kind)
		assert.Equal(t, "4521", event.Product.ExternalID)
		assert.Zero(t, event.Product.Price)
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		_, err := ParseProductEvent(tenantID, []byte(`{"event":`))
		assert.ErrorIs(t, err, ErrInvalidEnvelope)
	})

	t.Run("Unknown event kind", func(t *testing.T) {
		raw := []byte(`{"event":"product.archived","product":{"id":1,"name":"x","price":"1","size":"1"}}`)
		_, err := ParseProductEvent(tenantID, raw)
		assert.ErrorIs(t, err, ErrInvalidEnvelope)
	})

	t.Run("Order kind on the product path", func(t *testing.T) {
		raw := []byte(`{"event":"order.status_changed","product":{"id":1}}`)
		_, err := ParseProductEvent(tenantID, raw)
		assert.ErrorIs(t, err, ErrInvalidEnvelope)
	})

	t.Run("Missing product block", func(t *testing.T) {
		_, err := ParseProductEvent(tenantID, []byte(`{"event":"product.created"}`))
		assert.ErrorIs(t, err, ErrInvalidEnvelope)
	})

	t.Run("Missing ID", func(t *testing.T) {
		raw := []byte(`{"event":"product.created","product":{"name":"x","price":"1","size":"1"}}`)
		_, err := ParseProductEvent(tenantID, raw)
		assert.ErrorIs(t, err, ErrInvalidEnvelope)
	})

	t.Run("Missing name on non-delete", func(t *testing.T) {
		raw := []byte(`{"event":"product.updated","product":{"id":1,"price":"1","size":"1"}}`)
		_, err := ParseProductEvent(tenantID, raw)
		assert.ErrorIs(t, err, ErrInvalidEnvelope)
	})

	t.Run("Unparsable price is a semantic error, not a shape error", func(t *testing.T) {
		raw := []byte(`{"event":"product.created","product":{"id":1,"name":"x","price":"дорого","size":"65 см"}}`)
		_, err := ParseProductEvent(tenantID, raw)
		require.Error(t, err)
		assert.True(t, IsParseError(err))
		assert.NotErrorIs(t, err, ErrInvalidEnvelope)
	})

	t.Run("Unparsable size", func(t *testing.T) {
		raw := []byte(`{"event":"product.created","product":{"id":1,"name":"x","price":"750","size":"большой"}}`)
		_, err := ParseProductEvent(tenantID, raw)
		require.Error(t, err)
		assert.True(t, IsParseError(err))
	})
}

// ---------------------------------------------------------------------------
// Order Envelope Tests
// ---------------------------------------------------------------------------

func TestParseOrderStatusEvent(t *testing.T) {
	tenantID := uuid.New()

	t.Run("Valid status change", func(t *testing.T) {
		raw := []byte(`{"order_id":9912,"status":"DE","changed_by_id":31,"notes":"курьер выехал"}`)

		event, err := ParseOrderStatusEvent(tenantID, raw)
		require.NoError(t, err)

		assert.Equal(t, EventOrderStatusChanged, event.Kind)
		assert.False(t, event.IsProductEvent())
		require.NotNil(t, event.Order)
		assert.Equal(t, int64(9912), event.Order.ExternalOrderID)
		assert.Equal(t, ordering.OrderStatusInDelivery, event.Order.Status)
		assert.Equal(t, "DE", event.Order.CRMCode)
		assert.Equal(t, int64(31), event.Order.ChangedByID)
		assert.Equal(t, "курьер выехал", event.Order.Note)
	})

	t.Run("Missing order ID", func(t *testing.T) {
		_, err := ParseOrderStatusEvent(tenantID, []byte(`{"status":"DE"}`))
		assert.ErrorIs(t, err, ErrInvalidEnvelope)
	})

	t.Run("Non-positive order ID", func(t *testing.T) {
		_, err := ParseOrderStatusEvent(tenantID, []byte(`{"order_id":0,"status":"DE"}`))
		assert.ErrorIs(t, err, ErrInvalidEnvelope)
	})

	t.Run("Missing status", func(t *testing.T) {
		_, err := ParseOrderStatusEvent(tenantID, []byte(`{"order_id":1}`))
		assert.ErrorIs(t, err, ErrInvalidEnvelope)
	})

	t.Run("Unknown status code", func(t *testing.T) {
		_, err := ParseOrderStatusEvent(tenantID, []byte(`{"order_id":1,"status":"ZZ"}`))
		assert.ErrorIs(t, err, ErrUnknownStatusCode)
	})
}

// ---------------------------------------------------------------------------
// Entity Key Tests
// ---------------------------------------------------------------------------

func TestSyncEventEntityKey(t *testing.T) {
	tenantID := uuid.New()

	t.Run("Product events key on the external ID", func(t *testing.T) {
		event := &SyncEvent{
			TenantID: tenantID,
			Kind:     EventProductUpdated,
			Product:  &ProductPayload{ExternalID: "4521"},
		}
		assert.Equal(t, tenantID.String()+"|product|4521", event.EntityKey())
	})

	t.Run("Order events key on the external order ID", func(t *testing.T) {
		event := &SyncEvent{
			TenantID: tenantID,
			Kind:     EventOrderStatusChanged,
			Order:    &OrderStatusPayload{ExternalOrderID: 9912},
		}
		assert.Equal(t, tenantID.String()+"|order|9912", event.EntityKey())
	})

	t.Run("Same entity from different tenants never collides", func(t *testing.T) {
		other := &SyncEvent{
			TenantID: uuid.New(),
			Kind:     EventProductUpdated,
			Product:  &ProductPayload{ExternalID: "4521"},
		}
		mine := &SyncEvent{
			TenantID: tenantID,
			Kind:     EventProductUpdated,
			Product:  &ProductPayload{ExternalID: "4521"},
		}
		assert.NotEqual(t, mine.EntityKey(), other.EntityKey())
	})
}
