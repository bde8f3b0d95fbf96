package assembly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mfps/internal/pkg/errs"
)

func Test_OrderPayload(t *testing.T) {
	t.Run("should round-trip an order", func(t *testing.T) {
		order, err := NewOrder(testBlueprint(), LineC)
		require.NoError(t, err)

		raw, err := EncodeOrder(order)
		require.NoError(t, err)
		assert.Contains(t, raw, `"orderId":"`+order.ID()+`"`)
		assert.Contains(t, raw, `"deliveryLocation":"ASSEMBLY_LINE_C"`)

		decoded, err := DecodeOrder(raw)
		require.NoError(t, err)
		assert.True(t, order.IsEqual(decoded))
		assert.Equal(t, order.Components(), decoded.Components())
		assert.Equal(t, LineC, decoded.DeliveryLocation())
	})

	t.Run("should reject malformed json", func(t *testing.T) {
		_, err := DecodeOrder("{not json")

		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("should reject unknown delivery location", func(t *testing.T) {
		_, err := DecodeOrder(`{"orderId":"order-1","components":[{"id":"c","name":"n"}],"deliveryLocation":"NOWHERE"}`)

		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}

func Test_SignalPayloads(t *testing.T) {
	t.Run("should round-trip a confirmation", func(t *testing.T) {
		raw, err := EncodeConfirmation("order-7", true)
		require.NoError(t, err)

		orderID, accepted, err := DecodeConfirmation(raw)
		require.NoError(t, err)
		assert.Equal(t, "order-7", orderID)
		assert.True(t, accepted)
	})

	t.Run("should carry denial as accepted false", func(t *testing.T) {
		raw, err := EncodeConfirmation("order-7", false)
		require.NoError(t, err)

		_, accepted, err := DecodeConfirmation(raw)
		require.NoError(t, err)
		assert.False(t, accepted)
	})

	t.Run("should round-trip an arrival", func(t *testing.T) {
		raw, err := EncodeArrival("order-9")
		require.NoError(t, err)

		orderID, err := DecodeArrival(raw)
		require.NoError(t, err)
		assert.Equal(t, "order-9", orderID)
	})

	t.Run("should round-trip a validation verdict", func(t *testing.T) {
		raw, err := EncodeValidation("order-11", false)
		require.NoError(t, err)

		orderID, valid, err := DecodeValidation(raw)
		require.NoError(t, err)
		assert.Equal(t, "order-11", orderID)
		assert.False(t, valid)
	})
}

func Test_ReportedStateFromString(t *testing.T) {
	t.Run("should parse every valid wire value", func(t *testing.T) {
		for state, str := range getValidReportedStateStrings() {
			parsed, err := ReportedStateFromString(str)

			require.NoError(t, err)
			assert.Equal(t, state, parsed)
		}
	})

	t.Run("should reject unknown values", func(t *testing.T) {
		_, err := ReportedStateFromString("CANCELLED")

		assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}
