package fiscal

import (
	"context"

	"github.com/rs/zerolog"
)

// Эндпоинты локального фискального сервиса
const (
	endpointVersion            = "/GetVersion"
	endpointRegistrationStatus = "/GetRegistrationStatus"
	endpointGetState           = "/fiscal/shifts/getState/"
	endpointOpenDay            = "/fiscal/shifts/openDay/"
	endpointCloseDay           = "/fiscal/shifts/closeDay/"
	endpointOpenAndCloseRec    = "/fiscal/bills/openAndCloseRec/"
	endpointRecVoid            = "/fiscal/bills/recVoid/"
	endpointExecutePayment     = "/fiscal/payments/executePayment/"
	endpointPrintRaster        = "/fiscal/bills/printRaster/"
	endpointPrintLine          = "/fiscal/bills/printLine/"
	endpointPrintText          = "/fiscal/bills/printText/"
	endpointCutPaper           = "/fiscal/bills/cutPaper/"
)

// Client интерфейс определяет методы для работы с локальным фискальным сервисом
type Client interface {
	// --- Информация ---
	// GetVersion запрашивает версию фискального сервиса
	GetVersion(ctx context.Context) (*VersionInfo, error)
	// GetRegistrationStatus запрашивает статус регистрации ККТ
	GetRegistrationStatus(ctx context.Context) (*RegistrationStatus, error)
	// GetState запрашивает состояние ККТ и смены
	GetState(ctx context.Context) (*State, error)

	// --- Смена ---
	// OpenDay открывает смену (уже открытая смена ошибкой не считается)
	OpenDay(ctx context.Context, cashier string) error
	// CloseDay закрывает смену без печати bitmap-отчёта
	CloseDay(ctx context.Context, cashier string) error
	// EnsureShift приводит смену в рабочее состояние по снимку state
	EnsureShift(ctx context.Context, state *State) error
	// CheckShift запрашивает состояние и выполняет EnsureShift
	CheckShift(ctx context.Context) error
	// StartShiftKeeper запускает фоновую проверку смены
	StartShiftKeeper(ctx context.Context) *KeeperHandle
	// StopShiftKeeper останавливает фоновую проверку
	StopShiftKeeper(h *KeeperHandle)

	// --- Чеки ---
	// OpenAndCloseRec открывает и закрывает чек продажи одним запросом
	OpenAndCloseRec(ctx context.Context, req ReceiptRequest) (*ReceiptResult, error)
	// VoidReceipt аннулирует последний чек
	VoidReceipt(ctx context.Context) error
	// CreateTaxiReceipt пробивает чек за поездку с контролем смены
	CreateTaxiReceipt(ctx context.Context, data TaxiReceiptData) (*ReceiptResult, error)

	// --- Оплата ---
	// ExecutePayment проводит оплату на POS-терминале
	ExecutePayment(ctx context.Context, amount float64, paymentType string) (*PaymentResult, error)
	// CancelPayment фиксирует отмену локально, терминал не вызывается
	CancelPayment(ctx context.Context, paymentID string) (*PaymentResult, error)

	// --- Печать ---
	// PrintRaster печатает изображение (base64 PNG) без отрезки
	PrintRaster(ctx context.Context, base64Image string) error
	// PrintLine печатает одну строку
	PrintLine(ctx context.Context, text string, align Align, cut bool) error
	// PrintText печатает многострочный текст одной командой
	PrintText(ctx context.Context, text string, cut bool) error
	// CutPaper отрезает чек
	CutPaper(ctx context.Context) error
	// PrintTaxiReceiptLines печатает текстовую форму поездки одной командой
	PrintTaxiReceiptLines(ctx context.Context, data TaxiReceiptData, cut bool) error
	// PrintTaxiReceiptWithLogo печатает логотип, текст и отрезает один раз в конце
	PrintTaxiReceiptWithLogo(ctx context.Context, logo string, data TaxiReceiptData) error
	// PrintFullReceiptPNG печатает готовое изображение чека и отрезает
	PrintFullReceiptPNG(ctx context.Context, png string) error
}

// fiscalClient реализует интерфейс Client
type fiscalClient struct {
	transport *Transport
	config    Config
	shift     *ShiftController
	layout    Layout
	log       zerolog.Logger
}

// NewClient создаёт клиент с заданной конфигурацией. Каждый клиент держит
// собственное состояние контроля смены.
func NewClient(config Config) Client {
	config = config.withDefaults()
	c := &fiscalClient{
		transport: NewTransport(config),
		config:    config,
		layout:    DefaultLayout(config.PaperWidth),
		log:       config.Logger.With().Str("component", "fiscal_client").Logger(),
	}
	c.shift = NewShiftController(c, ShiftConfig{
		Cashier:  config.CashierName,
		Cooldown: config.ShiftCooldown,
		Interval: config.ShiftInterval,
		Now:      config.Now,
		Logger:   config.Logger,
	})
	return c
}

// Shift возвращает контроллер смены клиента
func Shift(c Client) (*ShiftController, bool) {
	fc, ok := c.(*fiscalClient)
	if !ok {
		return nil, false
	}
	return fc.shift, true
}
