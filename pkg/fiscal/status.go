package fiscal

import "strconv"

// Status код результата, который возвращает локальный фискальный сервис
type Status int

const (
	StatusSuccess Status = iota
	StatusUnknownCommand
	StatusJSONParseError
	StatusJSONSerializeError
	StatusBinarySerializeError
	StatusInternalServiceError
	StatusFiscalCoreError
	StatusInvalidArgument
	StatusLicenseExpired
	StatusPrinterError
	StatusPrinterBusy
)

var statusNames = map[Status]string{
	StatusSuccess:              "SUCCESS",
	StatusUnknownCommand:       "UNKNOWN_COMMAND",
	StatusJSONParseError:       "JSON_PARSE_ERROR",
	StatusJSONSerializeError:   "JSON_SERIALIZE_ERROR",
	StatusBinarySerializeError: "BINARY_SERIALIZE_ERROR",
	StatusInternalServiceError: "INTERNAL_SERVICE_ERROR",
	StatusFiscalCoreError:      "FISCAL_CORE_ERROR",
	StatusInvalidArgument:      "INVALID_ARGUMENT",
	StatusLicenseExpired:       "LICENSE_EXPIRED",
	StatusPrinterError:         "PRINTER_ERROR",
	StatusPrinterBusy:          "PRINTER_BUSY",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "STATUS_" + strconv.Itoa(int(s))
}

// IsCritical сообщает, что операция не состоялась и чек не создан.
// Автоматический повтор запрещён, ошибку нужно показать оператору.
func IsCritical(s Status) bool {
	switch s {
	case StatusFiscalCoreError, StatusLicenseExpired, StatusInternalServiceError:
		return true
	}
	return false
}

// IsPrintError сообщает об ошибке печати: фискальный документ уже мог быть
// сформирован, аннулировать или создавать его заново нельзя.
func IsPrintError(s Status) bool {
	return s == StatusPrinterError || s == StatusPrinterBusy
}
