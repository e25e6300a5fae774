package fiscal

import (
	"encoding/json"
	"time"
)

// envelope общий конверт ответа фискального сервиса
type envelope struct {
	Status       Status          `json:"status"`
	ExtCode      int             `json:"extCode,omitempty"`
	ExtCode2     int             `json:"extCode2,omitempty"`
	ErrorMessage string          `json:"errorMessage"`
	Data         json.RawMessage `json:"data,omitempty"`
}

// DayState состояние смены на устройстве
type DayState int

const (
	DayClosed DayState = 0
	DayOpen   DayState = 1
)

// State снимок состояния ККТ. Запрашивается заново в каждой точке принятия
// решения и не кэшируется.
type State struct {
	Status       Status `json:"status"`
	ExtCode      int    `json:"extCode,omitempty"`
	ExtCode2     int    `json:"extCode2,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`

	BillNumber     int     `json:"billNumber"`
	DocumentNumber int     `json:"documentNumber"`
	PurchaseNumber int     `json:"purchaseNumber"`
	PurchaseSum    float64 `json:"purchaseSum"`
	SaleNumber     int     `json:"saleNumber"`
	SaleSum        float64 `json:"saleSum"`
	ShiftNumber    int     `json:"shiftNumber"`

	DayState       DayState `json:"dayState"`
	IsShiftExpired bool     `json:"isShiftExpired"`

	RegistrationNumber string `json:"registrationNumber"`
	SerialNumber       string `json:"serialNumber"`
	DateTime           string `json:"dateTime"`      // время устройства
	ShiftDateTime      string `json:"shiftDateTime"` // время открытия смены
}

// ShiftOpen смена открыта и не просрочена
func (s State) ShiftOpen() bool {
	return s.DayState == DayOpen && !s.IsShiftExpired
}

// VersionInfo ответ на /GetVersion
type VersionInfo struct {
	Version      string `json:"version"`
	BuildDate    string `json:"buildDate,omitempty"`
	FiscalCore   string `json:"fiscalCore,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty"`
}

// RegistrationStatus ответ на /GetRegistrationStatus
type RegistrationStatus struct {
	Registered         bool   `json:"registered"`
	RegistrationNumber string `json:"registrationNumber"`
	Inn                string `json:"inn,omitempty"`
	LicenseValidTill   string `json:"licenseValidTill,omitempty"`
}

// RecType тип чека
type RecType int

const (
	RecSale       RecType = 1
	RecSaleReturn RecType = 2
)

// GoodsType признак предмета расчёта
type GoodsType string

const (
	GoodsProduct GoodsType = "product"
	GoodsService GoodsType = "service"
)

// GoodsLine позиция чека
type GoodsLine struct {
	Name      string    `json:"name"`
	Count     float64   `json:"count"`
	Price     float64   `json:"price"`
	Sum       float64   `json:"sum"`
	VatCode   int       `json:"vatCode"`
	GoodsType GoodsType `json:"goodsType"`
}

// PaymentLine строка оплаты чека. Paid выставляется, если деньги уже
// получены терминалом до пробития чека.
type PaymentLine struct {
	PaymentType string  `json:"paymentType"`
	Sum         float64 `json:"sum"`
	Paid        bool    `json:"paid,omitempty"`
}

const PaymentTypeNonCash = "non-cash"

// ReceiptRequest команда openAndCloseRec: открыть, заполнить и закрыть чек за один запрос
type ReceiptRequest struct {
	CashierName string        `json:"cashierName,omitempty"`
	RecType     RecType       `json:"recType"`
	Goods       []GoodsLine   `json:"goods"`
	Payments    []PaymentLine `json:"payments"`
	Email       string        `json:"email,omitempty"`
	Phone       string        `json:"phone,omitempty"`
}

// ReceiptResult результат пробития чека
type ReceiptResult struct {
	DocumentNumber int    `json:"documentNumber"`
	ReceiptNumber  int    `json:"receiptNumber"`
	ShiftNumber    int    `json:"shiftNumber"`
	FiscalSign     string `json:"fiscalSign"`
	DateTime       string `json:"dateTime"`
	QR             string `json:"qr,omitempty"`
}

// PaymentMethod способ оплаты заказа
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "CASH"
	PaymentCard PaymentMethod = "CARD"
	PaymentQR   PaymentMethod = "QR"
)

// Prepaid оплата проведена терминалом до пробития чека
func (m PaymentMethod) Prepaid() bool {
	return m == PaymentCard || m == PaymentQR
}

// TaxiReceiptData данные поездки для чека и печатной формы
type TaxiReceiptData struct {
	OrderNumber   string
	Price         float64
	PaymentMethod PaymentMethod
	From          string
	To            string
	CarNumber     string
	CarModel      string
	DriverName    string
	QueueNumber   string
	CashierName   string
	Time          time.Time
}

// Align выравнивание строки при печати
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// PaymentResult итог операции на POS-терминале
type PaymentResult struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason,omitempty"`
	Result string `json:"result,omitempty"`
}

const (
	PaymentStatusSuccess = "Success"
	PaymentStatusFailed  = "Failed"
)
