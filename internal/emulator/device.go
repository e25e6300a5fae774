// Package emulator реализует локальный фискальный сервис в памяти.
// Используется в тестах и командой fiscalctl emulate на стенде без ККТ.
package emulator

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"taxifiscal/pkg/fiscal"
)

// ShiftLifetime срок действия смены
const ShiftLifetime = 24 * time.Hour

const dateTimeLayout = "2006-01-02T15:04:05"

// PaymentMode вариант ответа executePayment
type PaymentMode int

const (
	PaymentEmpty PaymentMode = iota
	PaymentRootStatus
	PaymentEnveloped
)

// Failure ошибка, которую устройство вернёт на ближайший вызов эндпоинта
type Failure struct {
	Status  fiscal.Status
	Message string
	HTTP    int // если задан, отвечать этим HTTP-кодом
}

// Device состояние эмулируемой ККТ
type Device struct {
	mu  sync.Mutex
	now func() time.Time
	log zerolog.Logger

	registrationNumber string
	serialNumber       string

	dayState      fiscal.DayState
	shiftNumber   int
	shiftOpenedAt time.Time
	docNumber     int
	saleNumber    int
	saleSum       float64

	receipts []fiscal.ReceiptRequest
	printed  []string
	calls    []string

	failures    map[string][]Failure
	delays      map[string]time.Duration
	paymentMode PaymentMode
	printerJam  bool
}

// Option настройка эмулятора
type Option func(*Device)

// WithClock подменяет часы устройства
func WithClock(now func() time.Time) Option {
	return func(d *Device) { d.now = now }
}

// WithRegistrationNumber задаёт РН ККТ. Запросы с другим РН отклоняются.
func WithRegistrationNumber(rn string) Option {
	return func(d *Device) { d.registrationNumber = rn }
}

// WithLogger задаёт логгер запросов
func WithLogger(l zerolog.Logger) Option {
	return func(d *Device) { d.log = l }
}

// New создаёт устройство с закрытой сменой
func New(opts ...Option) *Device {
	d := &Device{
		now:          time.Now,
		log:          zerolog.Nop(),
		serialNumber: "00106700000001",
		failures:     make(map[string][]Failure),
		delays:       make(map[string]time.Duration),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fail ставит в очередь ошибку для эндпоинта
func (d *Device) Fail(endpoint string, status fiscal.Status, message string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[endpoint] = append(d.failures[endpoint], Failure{Status: status, Message: message})
}

// FailHTTP ставит в очередь HTTP-ошибку для эндпоинта
func (d *Device) FailHTTP(endpoint string, code int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failures[endpoint] = append(d.failures[endpoint], Failure{HTTP: code})
}

// Delay задерживает ответы эндпоинта
func (d *Device) Delay(endpoint string, dur time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delays[endpoint] = dur
}

// SetPaymentMode выбирает форму ответа терминала
func (d *Device) SetPaymentMode(m PaymentMode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.paymentMode = m
}

// SetPrinterJam имитирует замятие: чеки фиксируются, печать падает
func (d *Device) SetPrinterJam(jam bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.printerJam = jam
}

// OpenShiftAt открывает смену с заданным временем открытия
func (d *Device) OpenShiftAt(t time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dayState = fiscal.DayOpen
	d.shiftNumber++
	d.shiftOpenedAt = t
}

// Calls эндпоинты в порядке вызова
func (d *Device) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// ResetCalls очищает журнал вызовов
func (d *Device) ResetCalls() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
}

// Receipts пробитые чеки
func (d *Device) Receipts() []fiscal.ReceiptRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]fiscal.ReceiptRequest(nil), d.receipts...)
}

// Printed напечатанные фрагменты (текст или отметки raster/cut)
func (d *Device) Printed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.printed...)
}

// State снимок состояния в формате getState
func (d *Device) State() fiscal.State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stateLocked()
}

func (d *Device) stateLocked() fiscal.State {
	s := fiscal.State{
		Status:             fiscal.StatusSuccess,
		BillNumber:         len(d.receipts),
		DocumentNumber:     d.docNumber,
		SaleNumber:         d.saleNumber,
		SaleSum:            d.saleSum,
		ShiftNumber:        d.shiftNumber,
		DayState:           d.dayState,
		IsShiftExpired:     d.expiredLocked(),
		RegistrationNumber: d.registrationNumber,
		SerialNumber:       d.serialNumber,
		DateTime:           d.now().Format(dateTimeLayout),
	}
	if d.dayState == fiscal.DayOpen {
		s.ShiftDateTime = d.shiftOpenedAt.Format(dateTimeLayout)
	}
	return s
}

func (d *Device) expiredLocked() bool {
	return d.dayState == fiscal.DayOpen && d.now().Sub(d.shiftOpenedAt) >= ShiftLifetime
}

// takeFailureLocked извлекает очередную ошибку эндпоинта
func (d *Device) takeFailureLocked(endpoint string) (Failure, bool) {
	queue := d.failures[endpoint]
	if len(queue) == 0 {
		return Failure{}, false
	}
	d.failures[endpoint] = queue[1:]
	return queue[0], true
}

func (d *Device) openDayLocked(ignoreIfOpen bool) error {
	if d.dayState == fiscal.DayOpen {
		if ignoreIfOpen {
			return nil
		}
		return fiscal.NewError(fiscal.StatusFiscalCoreError, "смена уже открыта")
	}
	d.dayState = fiscal.DayOpen
	d.shiftNumber++
	d.shiftOpenedAt = d.now()
	d.saleNumber, d.saleSum = 0, 0
	return nil
}

func (d *Device) closeDayLocked() error {
	if d.dayState != fiscal.DayOpen {
		return fiscal.NewError(fiscal.StatusFiscalCoreError, "смена закрыта")
	}
	d.dayState = fiscal.DayClosed
	d.docNumber++
	return nil
}

func (d *Device) receiptLocked(req fiscal.ReceiptRequest) (*fiscal.ReceiptResult, error) {
	if d.dayState != fiscal.DayOpen {
		return nil, fiscal.NewError(fiscal.StatusFiscalCoreError, "смена закрыта")
	}
	if d.expiredLocked() {
		return nil, fiscal.NewError(fiscal.StatusFiscalCoreError, "Смена превысила 24 часа")
	}
	if len(req.Goods) == 0 || len(req.Payments) == 0 {
		return nil, fiscal.NewError(fiscal.StatusInvalidArgument, "чек без позиций или оплат")
	}
	var goods, paid float64
	for _, g := range req.Goods {
		goods += g.Sum
	}
	for _, p := range req.Payments {
		paid += p.Sum
	}
	if fiscal.RoundMoney(goods) != fiscal.RoundMoney(paid) {
		return nil, fiscal.NewError(fiscal.StatusInvalidArgument, "сумма оплат %.2f не равна сумме чека %.2f", paid, goods)
	}

	d.docNumber++
	d.saleNumber++
	d.saleSum = fiscal.RoundMoney(d.saleSum + goods)
	d.receipts = append(d.receipts, req)

	res := &fiscal.ReceiptResult{
		DocumentNumber: d.docNumber,
		ReceiptNumber:  d.saleNumber,
		ShiftNumber:    d.shiftNumber,
		FiscalSign:     fmt.Sprintf("%010d", 1000000000+d.docNumber*7919%1000000000),
		DateTime:       d.now().Format(dateTimeLayout),
	}
	if d.printerJam {
		return res, fiscal.NewError(fiscal.StatusPrinterError, "нет бумаги")
	}
	return res, nil
}

func (d *Device) voidLocked() error {
	if len(d.receipts) == 0 {
		return fiscal.NewError(fiscal.StatusInvalidArgument, "нет чека для аннулирования")
	}
	last := d.receipts[len(d.receipts)-1]
	d.receipts = d.receipts[:len(d.receipts)-1]
	for _, g := range last.Goods {
		d.saleSum = fiscal.RoundMoney(d.saleSum - g.Sum)
	}
	d.docNumber++
	return nil
}

func (d *Device) printLocked(fragment string) error {
	if d.printerJam {
		return fiscal.NewError(fiscal.StatusPrinterBusy, "принтер занят")
	}
	d.printed = append(d.printed, fragment)
	return nil
}
