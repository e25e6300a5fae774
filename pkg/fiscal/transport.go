package fiscal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"
)

const (
	DefaultHost    = "localhost"
	DefaultPort    = 4445 // облачный фискальный узел
	DefaultTimeout = 30 * time.Second
)

// Config определяет параметры подключения к локальному фискальному сервису.
type Config struct {
	Host               string        // по умолчанию localhost
	Port               int           // по умолчанию 4445
	BaseURL            string        // если задан, заменяет Host и Port
	RegistrationNumber string        // РН ККТ, если на одном порту несколько устройств
	Timeout            time.Duration // таймаут одного запроса
	CashierName        string        // кассир для открытия/закрытия смены
	PaperWidth         int           // ширина ленты в символах
	ShiftCooldown      time.Duration // по умолчанию 20 часов
	ShiftInterval      time.Duration // по умолчанию 30 минут
	HTTPClient         *http.Client
	Logger             *zerolog.Logger
	Now                func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PaperWidth <= 0 {
		c.PaperWidth = DefaultPaperWidth
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Transport единая точка выхода к устройству: все команды проходят через
// таймаут и нормализацию ошибок здесь.
type Transport struct {
	baseURL            string
	registrationNumber string
	timeout            time.Duration
	http               *http.Client
	log                zerolog.Logger
}

// NewTransport создаёт транспорт с заданной конфигурацией
func NewTransport(cfg Config) *Transport {
	cfg = cfg.withDefaults()
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "http://" + net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	}
	return &Transport{
		baseURL:            baseURL,
		registrationNumber: cfg.RegistrationNumber,
		timeout:            cfg.Timeout,
		http:               cfg.HTTPClient,
		log:                cfg.Logger.With().Str("component", "fiscal_transport").Logger(),
	}
}

// BaseURL адрес фискального сервиса
func (t *Transport) BaseURL() string {
	return t.baseURL
}

// Call выполняет команду и разбирает стандартный конверт ответа.
// При успехе поле data декодируется в out (если out не nil).
func (t *Transport) Call(ctx context.Context, endpoint string, payload any, out any) error {
	raw, err := t.Post(ctx, endpoint, payload)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		observeRequest(endpoint, StatusJSONParseError)
		return &Error{
			Status:   StatusInternalServiceError,
			Message:  fmt.Sprintf("invalid response from %s", endpoint),
			Endpoint: endpoint,
			Err:      err,
		}
	}

	if env.Status != StatusSuccess {
		observeRequest(endpoint, env.Status)
		t.log.Warn().
			Str("endpoint", endpoint).
			Stringer("status", env.Status).
			Int("ext_code", env.ExtCode).
			Int("ext_code2", env.ExtCode2).
			Str("message", env.ErrorMessage).
			Msg("device returned error")
		return &Error{
			Status:   env.Status,
			Message:  env.ErrorMessage,
			ExtCode:  env.ExtCode,
			ExtCode2: env.ExtCode2,
			Endpoint: endpoint,
		}
	}
	observeRequest(endpoint, StatusSuccess)

	if out == nil || len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{
			Status:   StatusInternalServiceError,
			Message:  fmt.Sprintf("invalid data from %s", endpoint),
			Endpoint: endpoint,
			Err:      err,
		}
	}
	return nil
}

// Post отправляет JSON и возвращает тело ответа в UTF-8 без разбора конверта.
// Ошибки транспорта уже приведены к *Error.
func (t *Transport) Post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	body, err := t.encode(payload)
	if err != nil {
		return nil, &Error{
			Status:   StatusInternalServiceError,
			Message:  fmt.Sprintf("cannot encode request for %s", endpoint),
			Endpoint: endpoint,
			Err:      err,
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	start := time.Now()
	t.log.Debug().Str("endpoint", endpoint).RawJSON("request", body).Msg(">> TX")

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, t.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Status: StatusInternalServiceError, Message: err.Error(), Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, t.transportError(ctx, reqCtx, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		observeRequest(endpoint, StatusInternalServiceError)
		io.Copy(io.Discard, resp.Body)
		return nil, &Error{
			Status:   StatusInternalServiceError,
			Message:  fmt.Sprintf("http %d for %s", resp.StatusCode, endpoint),
			Endpoint: endpoint,
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, t.transportError(ctx, reqCtx, endpoint, err)
	}

	// пустое тело отдаём как есть: для executePayment это успех
	if len(raw) > 0 {
		enc, _, _ := charset.DetermineEncoding(raw, resp.Header.Get("Content-Type"))
		if raw, err = enc.NewDecoder().Bytes(raw); err != nil {
			observeRequest(endpoint, StatusInternalServiceError)
			return nil, &Error{Status: StatusInternalServiceError, Message: "unsupported response charset", Endpoint: endpoint, Err: err}
		}
	}

	observeDuration(endpoint, time.Since(start))
	t.log.Debug().Str("endpoint", endpoint).Dur("took", time.Since(start)).Bytes("response", raw).Msg("<< RX")
	return raw, nil
}

// transportError различает истечение собственного таймаута запроса и прочие сбои
func (t *Transport) transportError(parent, reqCtx context.Context, endpoint string, err error) error {
	if parent.Err() == nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		observeRequest(endpoint, StatusFiscalCoreError)
		t.log.Error().Str("endpoint", endpoint).Dur("timeout", t.timeout).Msg("request timed out")
		return &Error{
			Status:   StatusFiscalCoreError,
			Message:  fmt.Sprintf("timeout for %s (%d)", endpoint, t.timeout.Milliseconds()),
			Endpoint: endpoint,
			Err:      ErrTimeout,
		}
	}
	observeRequest(endpoint, StatusInternalServiceError)
	t.log.Error().Err(err).Str("endpoint", endpoint).Msg("request failed")
	return &Error{
		Status:   StatusInternalServiceError,
		Message:  fmt.Sprintf("request to %s failed", endpoint),
		Endpoint: endpoint,
		Err:      err,
	}
}

// encode сериализует тело запроса и добавляет registrationNumber
func (t *Transport) encode(payload any) ([]byte, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	if t.registrationNumber == "" {
		return json.Marshal(payload)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object: %w", err)
	}
	rn, _ := json.Marshal(t.registrationNumber)
	fields["registrationNumber"] = rn
	return json.Marshal(fields)
}
