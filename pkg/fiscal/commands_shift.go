package fiscal

import "context"

type openDayRequest struct {
	CashierName  string `json:"cashierName,omitempty"`
	IgnoreIfOpen bool   `json:"ignoreIfOpen"`
}

type closeDayRequest struct {
	CashierName string `json:"cashierName,omitempty"`
	PrintBitmap bool   `json:"printBitmap"`
}

// OpenDay открывает смену
func (c *fiscalClient) OpenDay(ctx context.Context, cashier string) error {
	return c.transport.Call(ctx, endpointOpenDay, openDayRequest{
		CashierName:  c.cashier(cashier),
		IgnoreIfOpen: true,
	}, nil)
}

// CloseDay закрывает смену
func (c *fiscalClient) CloseDay(ctx context.Context, cashier string) error {
	return c.transport.Call(ctx, endpointCloseDay, closeDayRequest{
		CashierName: c.cashier(cashier),
		PrintBitmap: false,
	}, nil)
}

// EnsureShift см. ShiftController.Ensure
func (c *fiscalClient) EnsureShift(ctx context.Context, state *State) error {
	return c.shift.Ensure(ctx, state)
}

// CheckShift см. ShiftController.Check
func (c *fiscalClient) CheckShift(ctx context.Context) error {
	return c.shift.Check(ctx)
}

// StartShiftKeeper см. ShiftController.Start
func (c *fiscalClient) StartShiftKeeper(ctx context.Context) *KeeperHandle {
	return c.shift.Start(ctx)
}

// StopShiftKeeper см. ShiftController.Stop
func (c *fiscalClient) StopShiftKeeper(h *KeeperHandle) {
	c.shift.Stop(h)
}

func (c *fiscalClient) cashier(name string) string {
	if name != "" {
		return name
	}
	return c.config.CashierName
}
