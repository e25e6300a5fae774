// Package cashdesk связывает экраны оплаты с фискальным клиентом: флаг
// включения фискализации, защита от повторного пробития и разбор исходов.
package cashdesk

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"taxifiscal/pkg/fiscal"
)

// ErrBusy чек по предыдущему запросу ещё пробивается
var ErrBusy = errors.New("cashdesk: receipt creation already in progress")

// Outcome итог пробития чека для экрана
type Outcome struct {
	Receipt *fiscal.ReceiptResult
	// Committed чек зафиксирован в ФН (или фискализация выключена)
	Committed bool
	// PrintFailed чек пробит, но бумажная копия не напечатана
	PrintFailed bool
	// Skipped фискализация выключена, устройство не вызывалось
	Skipped bool
	Error   error
}

// Readiness готовность ККТ к работе
type Readiness struct {
	Enabled            bool
	Version            string
	Registered         bool
	RegistrationNumber string
	ShiftOpen          bool
	ShiftExpired       bool
	ShiftNumber        int
}

// Service фасад фискальных операций для экранов заказа и оплаты
type Service struct {
	client   fiscal.Client
	enabled  bool
	rasterW  int
	creating atomic.Bool
	log      zerolog.Logger
}

// Options параметры сервиса
type Options struct {
	Enabled     bool
	RasterWidth int // ширина печати изображения в точках
	Logger      zerolog.Logger
}

// NewService создаёт сервис. При Enabled=false все операции сразу
// возвращают успех без обращения к устройству.
func NewService(client fiscal.Client, opts Options) *Service {
	if opts.RasterWidth <= 0 {
		opts.RasterWidth = fiscal.Dots58mm
	}
	return &Service{
		client:  client,
		enabled: opts.Enabled,
		rasterW: opts.RasterWidth,
		log:     opts.Logger.With().Str("component", "cashdesk").Logger(),
	}
}

// Enabled включена ли фискализация
func (s *Service) Enabled() bool {
	return s.enabled
}

// CreateTaxiReceipt пробивает чек за поездку. Ошибка печати не считается
// неудачей продажи: Outcome.Committed=true, Outcome.PrintFailed=true.
func (s *Service) CreateTaxiReceipt(ctx context.Context, data fiscal.TaxiReceiptData) (*Outcome, error) {
	if !s.enabled {
		return &Outcome{Committed: true, Skipped: true}, nil
	}
	if !s.creating.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.creating.Store(false)

	res, err := s.client.CreateTaxiReceipt(ctx, data)
	if err == nil {
		return &Outcome{Receipt: res, Committed: true}, nil
	}

	if fiscal.IsPrintError(fiscal.StatusOf(err)) {
		s.log.Warn().Err(err).Str("order", data.OrderNumber).Msg("receipt committed, print failed")
		return &Outcome{Committed: true, PrintFailed: true, Error: err}, nil
	}
	if fiscal.IsCritical(fiscal.StatusOf(err)) {
		s.log.Error().Err(err).Str("order", data.OrderNumber).Msg("critical fiscal error")
	} else {
		s.log.Warn().Err(err).Str("order", data.OrderNumber).Msg("receipt not created")
	}
	return nil, err
}

// CheckReadiness опрашивает версию, регистрацию и смену
func (s *Service) CheckReadiness(ctx context.Context) (*Readiness, error) {
	if !s.enabled {
		return &Readiness{Enabled: false}, nil
	}

	ver, err := s.client.GetVersion(ctx)
	if err != nil {
		return nil, err
	}
	reg, err := s.client.GetRegistrationStatus(ctx)
	if err != nil {
		return nil, err
	}
	state, err := s.client.GetState(ctx)
	if err != nil {
		return nil, err
	}
	return &Readiness{
		Enabled:            true,
		Version:            ver.Version,
		Registered:         reg.Registered,
		RegistrationNumber: reg.RegistrationNumber,
		ShiftOpen:          state.DayState == fiscal.DayOpen,
		ShiftExpired:       state.IsShiftExpired,
		ShiftNumber:        state.ShiftNumber,
	}, nil
}

// VoidLastReceipt аннулирует последний чек
func (s *Service) VoidLastReceipt(ctx context.Context) error {
	if !s.enabled {
		return nil
	}
	return s.client.VoidReceipt(ctx)
}

// PrintReceiptImage печатает изображение чека (PNG/JPEG) целиком и отрезает
func (s *Service) PrintReceiptImage(ctx context.Context, img io.Reader) error {
	if !s.enabled {
		return nil
	}
	raster, err := fiscal.PrepareRaster(img, s.rasterW)
	if err != nil {
		return err
	}
	return s.client.PrintFullReceiptPNG(ctx, raster)
}

// PrintReceiptLines печатает текстовую форму поездки, с логотипом если он задан
func (s *Service) PrintReceiptLines(ctx context.Context, data fiscal.TaxiReceiptData, logo io.Reader) error {
	if !s.enabled {
		return nil
	}
	if logo == nil {
		return s.client.PrintTaxiReceiptLines(ctx, data, true)
	}
	raster, err := fiscal.PrepareRaster(logo, s.rasterW)
	if err != nil {
		return err
	}
	return s.client.PrintTaxiReceiptWithLogo(ctx, raster, data)
}

// ExecutePayment проводит оплату на терминале
func (s *Service) ExecutePayment(ctx context.Context, amount float64, paymentType string) (*fiscal.PaymentResult, error) {
	if !s.enabled {
		return &fiscal.PaymentResult{Status: fiscal.PaymentStatusSuccess, ID: uuid.NewString()}, nil
	}
	return s.client.ExecutePayment(ctx, amount, paymentType)
}

// CancelPayment отмечает отмену оплаты. Возврат денег делается на терминале вручную.
func (s *Service) CancelPayment(ctx context.Context, paymentID string) (*fiscal.PaymentResult, error) {
	if !s.enabled {
		return &fiscal.PaymentResult{Status: fiscal.PaymentStatusSuccess, Result: "cancelled_locally"}, nil
	}
	return s.client.CancelPayment(ctx, paymentID)
}
