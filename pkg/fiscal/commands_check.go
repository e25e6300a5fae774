package fiscal

import (
	"context"
	"errors"
	"fmt"
)

// OpenAndCloseRec открывает, заполняет и закрывает чек одним запросом
func (c *fiscalClient) OpenAndCloseRec(ctx context.Context, req ReceiptRequest) (*ReceiptResult, error) {
	if req.CashierName == "" {
		req.CashierName = c.config.CashierName
	}
	var res ReceiptResult
	if err := c.transport.Call(ctx, endpointOpenAndCloseRec, req, &res); err != nil {
		// Чек мог быть сформирован до срабатывания таймаута
		if fe, ok := AsError(err); ok && errors.Is(err, ErrTimeout) {
			fe.Err = fmt.Errorf("%w: %w", ErrOutcomeUnknown, ErrTimeout)
			c.log.Error().Str("endpoint", endpointOpenAndCloseRec).Msg("receipt submission timed out, device outcome unknown")
		}
		return nil, err
	}
	return &res, nil
}

// VoidReceipt аннулирует последний чек. Для ошибок печати не применяется:
// документ уже зафиксирован в фискальном накопителе.
func (c *fiscalClient) VoidReceipt(ctx context.Context) error {
	return c.transport.Call(ctx, endpointRecVoid, nil, nil)
}
