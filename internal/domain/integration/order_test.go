package integration

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// NormalizeOrderPayload Tests
// ---------------------------------------------------------------------------

func TestNormalizeOrderPayload(t *testing.T) {
	t.Run("Full envelope", func(t *testing.T) {
		payload := []byte(`{
			"order_id": "O1",
			"order": {
				"items": [
					{"product_id": "P1", "quantity": 2, "price": 10.0},
					{"product_id": "P2", "quantity": 1, "price": 5.0}
				],
				"pricing": {"total": 25.0}
			}
		}`)

		order, err := NormalizeOrderPayload(PlatformCodeCareem, payload)
		require.NoError(t, err)
		assert.Equal(t, "O1", order.OrderID)
		assert.Equal(t, PlatformCodeCareem, order.PlatformCode)
		require.Len(t, order.Items, 2)
		assert.Equal(t, "P1", order.Items[0].ProductID)
		assert.True(t, order.Items[0].Quantity.Equal(decimal.NewFromInt(2)))
		require.NotNil(t, order.Items[0].UnitPrice)
		assert.True(t, order.Items[0].UnitPrice.Equal(decimal.NewFromFloat(10.0)))
		require.NotNil(t, order.Total)
		assert.True(t, order.Total.Equal(decimal.NewFromFloat(25.0)))
	})

	t.Run("Bare order object", func(t *testing.T) {
		payload := []byte(`{"items": [{"id": "P9", "quantity": 3, "unit_price": 4.5}]}`)

		order, err := NormalizeOrderPayload(PlatformCodeTalabat, payload)
		require.NoError(t, err)
		assert.Empty(t, order.OrderID)
		require.Len(t, order.Items, 1)
		assert.Equal(t, "P9", order.Items[0].ProductID)
		require.NotNil(t, order.Items[0].UnitPrice)
		assert.True(t, order.Items[0].UnitPrice.Equal(decimal.NewFromFloat(4.5)))
	})

	t.Run("product_id preferred over id", func(t *testing.T) {
		payload := []byte(`{"items": [{"product_id": "P1", "id": "legacy", "quantity": 1}]}`)

		order, err := NormalizeOrderPayload(PlatformCodeCareem, payload)
		require.NoError(t, err)
		assert.Equal(t, "P1", order.Items[0].ProductID)
	})

	t.Run("Modifiers and instructions", func(t *testing.T) {
		payload := []byte(`{"items": [{
			"product_id": "P1",
			"quantity": 1,
			"special_instructions": "no onions",
			"modifiers": [{"name": "Extra cheese"}, {"name": "Spicy"}]
		}]}`)

		order, err := NormalizeOrderPayload(PlatformCodeCareem, payload)
		require.NoError(t, err)
		assert.Equal(t, "no onions", order.Items[0].SpecialInstructions)
		assert.Equal(t, []string{"Extra cheese", "Spicy"}, order.Items[0].ModifierNames)
	})

	t.Run("Missing quantity defaults to one", func(t *testing.T) {
		payload := []byte(`{"items": [{"product_id": "P1"}]}`)

		order, err := NormalizeOrderPayload(PlatformCodeCareem, payload)
		require.NoError(t, err)
		assert.True(t, order.Items[0].Quantity.Equal(decimal.NewFromInt(1)))
	})

	t.Run("Missing items rejected", func(t *testing.T) {
		_, err := NormalizeOrderPayload(PlatformCodeCareem, []byte(`{"order_id": "O1", "order": {}}`))
		assert.ErrorIs(t, err, ErrInvalidOrderPayload)
	})

	t.Run("Empty items rejected", func(t *testing.T) {
		_, err := NormalizeOrderPayload(PlatformCodeCareem, []byte(`{"items": []}`))
		assert.ErrorIs(t, err, ErrInvalidOrderPayload)
	})

	t.Run("Items not an array rejected", func(t *testing.T) {
		_, err := NormalizeOrderPayload(PlatformCodeCareem, []byte(`{"items": {"product_id": "P1"}}`))
		assert.ErrorIs(t, err, ErrInvalidOrderPayload)
	})

	t.Run("Malformed JSON rejected", func(t *testing.T) {
		_, err := NormalizeOrderPayload(PlatformCodeCareem, []byte(`{not json`))
		assert.ErrorIs(t, err, ErrInvalidOrderPayload)
	})
}

// ---------------------------------------------------------------------------
// PlatformAPIError Tests
// ---------------------------------------------------------------------------

func TestPlatformAPIError_Retryable(t *testing.T) {
	t.Run("5xx is retryable", func(t *testing.T) {
		err := NewPlatformAPIError(PlatformCodeCareem, 503, "unavailable")
		assert.True(t, err.Retryable())
	})

	t.Run("Timeout is retryable", func(t *testing.T) {
		err := NewPlatformTimeoutError(PlatformCodeTalabat, "context deadline exceeded")
		assert.True(t, err.Retryable())
	})

	t.Run("4xx is not retryable", func(t *testing.T) {
		err := NewPlatformAPIError(PlatformCodeCareem, 401, "unauthorized")
		assert.False(t, err.Retryable())
	})
}

func TestPlatformCode(t *testing.T) {
	assert.True(t, PlatformCodeCareem.IsValid())
	assert.True(t, PlatformCodeTalabat.IsValid())
	assert.False(t, PlatformCode("UBER").IsValid())

	assert.Equal(t, "Careem", PlatformCodeCareem.DisplayName())
	assert.Equal(t, "Talabat", PlatformCodeTalabat.DisplayName())

	code, err := ParsePlatformCode("careem")
	require.NoError(t, err)
	assert.Equal(t, PlatformCodeCareem, code)

	_, err = ParsePlatformCode("deliveroo")
	assert.ErrorIs(t, err, ErrMappingInvalidPlatform)
}
