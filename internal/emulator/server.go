package emulator

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"taxifiscal/pkg/fiscal"
)

type response struct {
	Status       fiscal.Status `json:"status"`
	ExtCode      int           `json:"extCode,omitempty"`
	ExtCode2     int           `json:"extCode2,omitempty"`
	ErrorMessage string        `json:"errorMessage"`
	Data         any           `json:"data,omitempty"`
}

// request общие поля запросов и поля отдельных команд
type request struct {
	RegistrationNumber string  `json:"registrationNumber"`
	IgnoreIfOpen       bool    `json:"ignoreIfOpen"`
	Text               string  `json:"text"`
	Image              string  `json:"image"`
	CutPaper           bool    `json:"cutPaper"`
	Amount             float64 `json:"amount"`
	Type               string  `json:"type"`
}

// Router HTTP-обработчик с эндпоинтами фискального сервиса
func (d *Device) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(d.record)

	r.Post("/GetVersion", d.handle(func(_ []byte, _ request) (any, error) {
		return fiscal.VersionInfo{Version: "3.1.0-emulator", FiscalCore: "emulated", SerialNumber: d.serialNumber}, nil
	}))
	r.Post("/GetRegistrationStatus", d.handle(func(_ []byte, _ request) (any, error) {
		return fiscal.RegistrationStatus{Registered: true, RegistrationNumber: d.registrationNumber}, nil
	}))

	r.Route("/fiscal", func(r chi.Router) {
		r.Post("/shifts/getState/", d.handle(func(_ []byte, _ request) (any, error) {
			return d.stateLocked(), nil
		}))
		r.Post("/shifts/openDay/", d.handle(func(_ []byte, req request) (any, error) {
			return nil, d.openDayLocked(req.IgnoreIfOpen)
		}))
		r.Post("/shifts/closeDay/", d.handle(func(_ []byte, _ request) (any, error) {
			return nil, d.closeDayLocked()
		}))
		r.Post("/bills/openAndCloseRec/", d.handle(func(body []byte, _ request) (any, error) {
			var rec fiscal.ReceiptRequest
			if err := json.Unmarshal(body, &rec); err != nil {
				return nil, fiscal.NewError(fiscal.StatusJSONParseError, "%v", err)
			}
			return d.receiptLocked(rec)
		}))
		r.Post("/bills/recVoid/", d.handle(func(_ []byte, _ request) (any, error) {
			return nil, d.voidLocked()
		}))
		r.Post("/bills/printRaster/", d.handle(func(_ []byte, _ request) (any, error) {
			return nil, d.printLocked("[raster]")
		}))
		r.Post("/bills/printLine/", d.handle(func(_ []byte, req request) (any, error) {
			return nil, d.printWithCutLocked(req.Text, req.CutPaper)
		}))
		r.Post("/bills/printText/", d.handle(func(_ []byte, req request) (any, error) {
			return nil, d.printWithCutLocked(req.Text, req.CutPaper)
		}))
		r.Post("/bills/cutPaper/", d.handle(func(_ []byte, _ request) (any, error) {
			return nil, d.printLocked("[cut]")
		}))
		r.Post("/payments/executePayment/", d.executePayment)
	})
	return r
}

func (d *Device) printWithCutLocked(text string, cut bool) error {
	if err := d.printLocked(text); err != nil {
		return err
	}
	if cut {
		return d.printLocked("[cut]")
	}
	return nil
}

// record пишет эндпоинт в журнал и выдерживает настроенную задержку
func (d *Device) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.mu.Lock()
		d.calls = append(d.calls, r.URL.Path)
		delay := d.delays[r.URL.Path]
		d.mu.Unlock()

		d.log.Debug().Str("path", r.URL.Path).Msg("emulator request")

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type handlerFunc func(body []byte, req request) (any, error)

// handle разбирает запрос, применяет очередь ошибок и заворачивает ответ в конверт
func (d *Device) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, req, ok := d.readRequest(w, r)
		if !ok {
			return
		}

		d.mu.Lock()
		defer d.mu.Unlock()

		if f, ok := d.takeFailureLocked(r.URL.Path); ok {
			writeFailure(w, f)
			return
		}

		data, err := fn(body, req)
		if err != nil {
			fe, ok := fiscal.AsError(err)
			if !ok {
				fe = fiscal.NewError(fiscal.StatusInternalServiceError, "%v", err)
			}
			writeJSON(w, response{Status: fe.Status, ErrorMessage: fe.Message, Data: data})
			return
		}
		writeJSON(w, response{Status: fiscal.StatusSuccess, Data: data})
	}
}

func (d *Device) executePayment(w http.ResponseWriter, r *http.Request) {
	_, req, ok := d.readRequest(w, r)
	if !ok {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if f, ok := d.takeFailureLocked(r.URL.Path); ok {
		if f.HTTP == 0 && d.paymentMode == PaymentRootStatus {
			writeJSON(w, map[string]any{"status": f.Status, "reason": f.Message})
			return
		}
		writeFailure(w, f)
		return
	}
	if req.Amount <= 0 {
		writeJSON(w, response{Status: fiscal.StatusInvalidArgument, ErrorMessage: "сумма должна быть больше нуля"})
		return
	}

	id := uuid.NewString()
	switch d.paymentMode {
	case PaymentEmpty:
		w.WriteHeader(http.StatusOK)
	case PaymentRootStatus:
		writeJSON(w, map[string]any{"status": 0, "id": id})
	default:
		writeJSON(w, response{Status: fiscal.StatusSuccess, Data: map[string]string{"id": id}})
	}
}

func (d *Device) readRequest(w http.ResponseWriter, r *http.Request) ([]byte, request, bool) {
	var req request
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, req, false
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSON(w, response{Status: fiscal.StatusJSONParseError, ErrorMessage: err.Error()})
			return nil, req, false
		}
	}
	if d.registrationNumber != "" && req.RegistrationNumber != "" && req.RegistrationNumber != d.registrationNumber {
		writeJSON(w, response{Status: fiscal.StatusInvalidArgument, ErrorMessage: "неизвестный регистрационный номер"})
		return nil, req, false
	}
	return body, req, true
}

func writeFailure(w http.ResponseWriter, f Failure) {
	if f.HTTP != 0 {
		http.Error(w, http.StatusText(f.HTTP), f.HTTP)
		return
	}
	writeJSON(w, response{Status: f.Status, ErrorMessage: f.Message})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(v)
}
