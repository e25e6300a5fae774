package fiscal

import (
	"context"
	"math"
	"strings"
)

const (
	// MaxExpiredShiftRetries сколько раз повторить чек после переоткрытия просроченной смены
	MaxExpiredShiftRetries = 1

	// TaxiServiceName наименование услуги в чеке
	TaxiServiceName = "Услуга такси"
	// VatNone код ставки "Без НДС"
	VatNone = 6
)

// Подстроки сообщения устройства об истечении 24 часов смены (в нижнем регистре)
var shiftExpiredMarkers = []string{
	"превысила 24 час",
	"более 24 час",
	"exceeded 24 hours",
	"exceeds 24 hours",
}

// IsShiftExpiredError сообщает, что устройство отказало из-за смены старше 24 часов
func IsShiftExpiredError(err error) bool {
	fe, ok := AsError(err)
	if !ok {
		return false
	}
	msg := strings.ToLower(fe.Message)
	for _, marker := range shiftExpiredMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// RoundMoney округляет сумму до копеек
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// BuildTaxiReceipt формирует чек с одной услугой и одной безналичной оплатой
func BuildTaxiReceipt(data TaxiReceiptData) ReceiptRequest {
	price := RoundMoney(data.Price)
	return ReceiptRequest{
		CashierName: data.CashierName,
		RecType:     RecSale,
		Goods: []GoodsLine{{
			Name:      TaxiServiceName,
			Count:     1,
			Price:     price,
			Sum:       price,
			VatCode:   VatNone,
			GoodsType: GoodsService,
		}},
		Payments: []PaymentLine{{
			PaymentType: PaymentTypeNonCash,
			Sum:         price,
			Paid:        data.PaymentMethod.Prepaid(),
		}},
	}
}

// CreateTaxiReceipt пробивает чек за поездку:
// состояние ККТ -> контроль смены -> openAndCloseRec.
// Если устройство отказало из-за смены старше 24 часов, смена закрывается,
// открывается и чек повторяется не более MaxExpiredShiftRetries раз.
// Ошибки печати возвращаются как есть: чек уже зафиксирован, аннулировать его нельзя.
func (c *fiscalClient) CreateTaxiReceipt(ctx context.Context, data TaxiReceiptData) (*ReceiptResult, error) {
	req := BuildTaxiReceipt(data)
	log := c.log.With().Str("order", data.OrderNumber).Float64("sum", req.Goods[0].Sum).Logger()

	for attempt := 0; ; attempt++ {
		state, err := c.GetState(ctx)
		if err != nil {
			observeReceipt("failure")
			return nil, err
		}
		if state.Status != StatusSuccess {
			observeReceipt("failure")
			return nil, &Error{
				Status:   StatusFiscalCoreError,
				Message:  "device not ready: " + state.ErrorMessage,
				ExtCode:  state.ExtCode,
				ExtCode2: state.ExtCode2,
			}
		}

		if err := c.shift.Ensure(ctx, state); err != nil {
			observeReceipt("failure")
			return nil, err
		}

		res, err := c.OpenAndCloseRec(ctx, req)
		if err == nil {
			observeReceipt("success")
			log.Info().Int("document", res.DocumentNumber).Int("attempt", attempt).Msg("receipt created")
			return res, nil
		}

		switch {
		case IsShiftExpiredError(err) && attempt < MaxExpiredShiftRetries:
			observeReceipt("expired_retry")
			log.Warn().Err(err).Msg("shift exceeded 24 hours, reopening and retrying")
			if rerr := c.recoverExpiredShift(ctx); rerr != nil {
				observeReceipt("failure")
				return nil, &Error{
					Status:  StatusFiscalCoreError,
					Message: "failed to recover expired shift",
					Err:     rerr,
				}
			}
			continue

		case IsPrintError(StatusOf(err)):
			observeReceipt("print_error")
			log.Warn().Err(err).Msg("receipt committed but printing failed")
			return nil, err

		default:
			observeReceipt("failure")
			log.Error().Err(err).Msg("receipt creation failed")
			return nil, err
		}
	}
}

func (c *fiscalClient) recoverExpiredShift(ctx context.Context) error {
	if err := c.CloseDay(ctx, ""); err != nil {
		return err
	}
	return c.OpenDay(ctx, "")
}
