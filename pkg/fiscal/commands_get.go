package fiscal

import "context"

// GetVersion запрашивает версию фискального сервиса
func (c *fiscalClient) GetVersion(ctx context.Context) (*VersionInfo, error) {
	var v VersionInfo
	if err := c.transport.Call(ctx, endpointVersion, nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// GetRegistrationStatus запрашивает статус регистрации ККТ
func (c *fiscalClient) GetRegistrationStatus(ctx context.Context) (*RegistrationStatus, error) {
	var r RegistrationStatus
	if err := c.transport.Call(ctx, endpointRegistrationStatus, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetState запрашивает состояние ККТ и смены
func (c *fiscalClient) GetState(ctx context.Context) (*State, error) {
	var s State
	if err := c.transport.Call(ctx, endpointGetState, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
