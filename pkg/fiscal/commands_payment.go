package fiscal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type executePaymentRequest struct {
	Amount float64 `json:"amount"`
	Type   string  `json:"type"`
}

// paymentShape вариант ответа executePayment
type paymentShape int

const (
	// paymentShapeEmpty пустое тело, считается успехом
	paymentShapeEmpty paymentShape = iota
	// paymentShapeRootStatus {"status": 0, "id": ..., "reason": ...}
	paymentShapeRootStatus
	// paymentShapeEnveloped стандартный конверт с data
	paymentShapeEnveloped
)

// paymentBody поля ответа терминала
type paymentBody struct {
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type rootStatusPayment struct {
	Status Status `json:"status"`
	paymentBody
	Message string `json:"message,omitempty"`
}

// paymentResponse разобранный ответ executePayment
type paymentResponse struct {
	Shape    paymentShape
	Root     rootStatusPayment
	Envelope envelope
	Body     paymentBody
}

var errUnknownPaymentShape = errors.New("unrecognized payment response")

// decodePaymentResponse разбирает ответ терминала, пробуя варианты по порядку:
// пустое тело, статус в корне, стандартный конверт.
func decodePaymentResponse(raw []byte) (paymentResponse, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte("{}")) {
		return paymentResponse{Shape: paymentShapeEmpty}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return paymentResponse{}, fmt.Errorf("%w: %v", errUnknownPaymentShape, err)
	}
	if _, ok := fields["status"]; !ok {
		return paymentResponse{}, errUnknownPaymentShape
	}

	_, hasData := fields["data"]
	_, hasMessage := fields["errorMessage"]
	if !hasData && !hasMessage {
		var root rootStatusPayment
		if err := json.Unmarshal(raw, &root); err == nil {
			return paymentResponse{Shape: paymentShapeRootStatus, Root: root, Body: root.paymentBody}, nil
		}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return paymentResponse{}, fmt.Errorf("%w: %v", errUnknownPaymentShape, err)
	}
	resp := paymentResponse{Shape: paymentShapeEnveloped, Envelope: env}
	if len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		if err := json.Unmarshal(env.Data, &resp.Body); err != nil {
			return paymentResponse{}, fmt.Errorf("%w: %v", errUnknownPaymentShape, err)
		}
	}
	return resp, nil
}

// ExecutePayment проводит оплату на POS-терминале
func (c *fiscalClient) ExecutePayment(ctx context.Context, amount float64, paymentType string) (*PaymentResult, error) {
	raw, err := c.transport.Post(ctx, endpointExecutePayment, executePaymentRequest{
		Amount: RoundMoney(amount),
		Type:   paymentType,
	})
	if err != nil {
		return nil, err
	}

	resp, err := decodePaymentResponse(raw)
	if err != nil {
		observeRequest(endpointExecutePayment, StatusJSONParseError)
		return nil, &Error{
			Status:   StatusInternalServiceError,
			Message:  "invalid payment response",
			Endpoint: endpointExecutePayment,
			Err:      err,
		}
	}

	switch resp.Shape {
	case paymentShapeEmpty:
		observeRequest(endpointExecutePayment, StatusSuccess)
		return &PaymentResult{Status: PaymentStatusSuccess, ID: uuid.NewString()}, nil

	case paymentShapeRootStatus:
		if resp.Root.Status != StatusSuccess {
			return nil, c.paymentError(resp.Root.Status, firstNonEmpty(resp.Root.Reason, resp.Root.Message), 0, 0)
		}

	case paymentShapeEnveloped:
		if resp.Envelope.Status != StatusSuccess {
			return nil, c.paymentError(resp.Envelope.Status, resp.Envelope.ErrorMessage, resp.Envelope.ExtCode, resp.Envelope.ExtCode2)
		}
	}

	observeRequest(endpointExecutePayment, StatusSuccess)
	id := resp.Body.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &PaymentResult{Status: PaymentStatusSuccess, ID: id, Reason: resp.Body.Reason}, nil
}

func (c *fiscalClient) paymentError(status Status, message string, ext, ext2 int) error {
	observeRequest(endpointExecutePayment, status)
	c.log.Warn().Stringer("status", status).Str("message", message).Msg("payment declined")
	return &Error{
		Status:   status,
		Message:  message,
		ExtCode:  ext,
		ExtCode2: ext2,
		Endpoint: endpointExecutePayment,
	}
}

// CancelPayment терминалы не поддерживают программную отмену оплаты.
// Отмена фиксируется локально, деньги возвращаются на терминале вручную.
func (c *fiscalClient) CancelPayment(ctx context.Context, paymentID string) (*PaymentResult, error) {
	c.log.Warn().Str("payment_id", paymentID).Msg("payment cancelled locally, cancel it on the POS terminal manually")
	return &PaymentResult{Status: PaymentStatusSuccess, Result: "cancelled_locally"}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
