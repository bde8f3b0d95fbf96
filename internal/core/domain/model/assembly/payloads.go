package assembly

import (
	"encoding/json"

	"mfps/internal/pkg/errs"
)

// Wire payloads carried inside communication messages. Every payload is a
// flat JSON object keyed by orderId so that any consumer can correlate a
// message back to its order without decoding the full shape.

type orderPayload struct {
	OrderID          string      `json:"orderId"`
	Components       []Component `json:"components"`
	DeliveryLocation string      `json:"deliveryLocation"`
}

type confirmationPayload struct {
	OrderID  string `json:"orderId"`
	Accepted bool   `json:"accepted"`
}

type arrivalPayload struct {
	OrderID string `json:"orderId"`
}

type validationPayload struct {
	OrderID string `json:"orderId"`
	Valid   bool   `json:"valid"`
}

// EncodeOrder serializes an order into a TRANSPORT_ORDER payload.
func EncodeOrder(order *Order) (string, error) {
	if err := order.Validate(); err != nil {
		return "", err
	}
	raw, err := json.Marshal(orderPayload{
		OrderID:          order.ID(),
		Components:       order.Components(),
		DeliveryLocation: order.DeliveryLocation().String(),
	})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeOrder reconstructs an order from a TRANSPORT_ORDER payload.
func DecodeOrder(raw string) (*Order, error) {
	var payload orderPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("order payload", err)
	}
	location, err := LocationFromString(payload.DeliveryLocation)
	if err != nil {
		return nil, err
	}
	return RestoreOrder(payload.OrderID, payload.Components, location)
}

// EncodeConfirmation serializes an ORDER_CONFIRMED payload.
func EncodeConfirmation(orderID string, accepted bool) (string, error) {
	raw, err := json.Marshal(confirmationPayload{OrderID: orderID, Accepted: accepted})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeConfirmation parses an ORDER_CONFIRMED payload.
func DecodeConfirmation(raw string) (orderID string, accepted bool, err error) {
	var payload confirmationPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return "", false, errs.NewValueIsInvalidErrorWithCause("confirmation payload", err)
	}
	return payload.OrderID, payload.Accepted, nil
}

// EncodeArrival serializes a TRANSPORT_ARRIVED payload.
func EncodeArrival(orderID string) (string, error) {
	raw, err := json.Marshal(arrivalPayload{OrderID: orderID})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeArrival parses a TRANSPORT_ARRIVED payload.
func DecodeArrival(raw string) (string, error) {
	var payload arrivalPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return "", errs.NewValueIsInvalidErrorWithCause("arrival payload", err)
	}
	return payload.OrderID, nil
}

// EncodeValidation serializes an ASSEMBLY_VALIDATED payload.
func EncodeValidation(orderID string, valid bool) (string, error) {
	raw, err := json.Marshal(validationPayload{OrderID: orderID, Valid: valid})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeValidation parses an ASSEMBLY_VALIDATED payload.
func DecodeValidation(raw string) (orderID string, valid bool, err error) {
	var payload validationPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return "", false, errs.NewValueIsInvalidErrorWithCause("validation payload", err)
	}
	return payload.OrderID, payload.Valid, nil
}
