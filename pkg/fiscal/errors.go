package fiscal

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout вложена в *Error, если запрос не уложился в таймаут
	ErrTimeout = errors.New("fiscal: request timed out")
	// ErrOutcomeUnknown помечает таймаут команды, которая могла успеть
	// сформировать документ на устройстве. Результат нужно сверить по счётчикам.
	ErrOutcomeUnknown = errors.New("fiscal: device outcome unknown")
)

// Error ошибка фискального сервиса или транспорта до него
type Error struct {
	Status   Status
	Message  string
	ExtCode  int
	ExtCode2 int
	Endpoint string
	Err      error
}

// NewError создаёт ошибку с указанным статусом
func NewError(status Status, format string, args ...any) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("fiscal: %s: %s", e.Status, e.Message)
	if e.ExtCode != 0 || e.ExtCode2 != 0 {
		msg = fmt.Sprintf("%s (ext %d/%d)", msg, e.ExtCode, e.ExtCode2)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сравнивает ошибки по статусу, чтобы работал errors.Is(err, &Error{Status: ...})
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Status == e.Status
}

// Critical см. IsCritical
func (e *Error) Critical() bool {
	return IsCritical(e.Status)
}

// PrintError см. IsPrintError
func (e *Error) PrintError() bool {
	return IsPrintError(e.Status)
}

// AsError извлекает *Error из цепочки
func AsError(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// StatusOf возвращает статус ошибки. Ошибки не из этого пакета считаются
// внутренними ошибками сервиса.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	if fe, ok := AsError(err); ok {
		return fe.Status
	}
	return StatusInternalServiceError
}
