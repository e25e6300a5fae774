package fiscal

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultShiftCooldown минимальный интервал между проверками смены
	DefaultShiftCooldown = 20 * time.Hour
	// DefaultShiftInterval период фоновой проверки
	DefaultShiftInterval = 30 * time.Minute
)

// ShiftDevice команды устройства, нужные контроллеру смены
type ShiftDevice interface {
	GetState(ctx context.Context) (*State, error)
	OpenDay(ctx context.Context, cashier string) error
	CloseDay(ctx context.Context, cashier string) error
}

// ShiftConfig параметры контроллера смены
type ShiftConfig struct {
	Cashier  string
	Cooldown time.Duration
	Interval time.Duration
	Now      func() time.Time
	Logger   *zerolog.Logger
}

// ShiftController следит, чтобы на устройстве была открыта непросроченная смена.
// Сама смена живёт на устройстве, контроллер только наблюдает и запрашивает переходы.
type ShiftController struct {
	dev      ShiftDevice
	cashier  string
	cooldown time.Duration
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger

	mu        sync.Mutex
	lastCheck time.Time
	lastState *State
}

// KeeperHandle дескриптор запущенной фоновой проверки
type KeeperHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewShiftController создаёт контроллер смены для устройства dev
func NewShiftController(dev ShiftDevice, cfg ShiftConfig) *ShiftController {
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultShiftCooldown
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultShiftInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		nop := zerolog.Nop()
		cfg.Logger = &nop
	}
	return &ShiftController{
		dev:      dev,
		cashier:  cfg.Cashier,
		cooldown: cfg.Cooldown,
		interval: cfg.Interval,
		now:      cfg.Now,
		log:      cfg.Logger.With().Str("component", "fiscal_shift").Logger(),
	}
}

// LastCheck время последней успешной проверки (нулевое, если проверок не было)
func (s *ShiftController) LastCheck() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCheck
}

// LastState снимок смены, полученный при последней проверке, которая дошла до
// устройства. После открытия или переоткрытия это повторно запрошенное состояние.
func (s *ShiftController) LastState() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastState == nil {
		return State{}, false
	}
	return *s.lastState, true
}

// Reset сбрасывает время проверки, следующая проверка пройдёт сразу
func (s *ShiftController) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCheck = time.Time{}
}

// Check запрашивает состояние и выполняет Ensure. В пределах периода
// охлаждения к устройству не обращается.
func (s *ShiftController) Check(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.coolingDownLocked() {
		return nil
	}
	state, err := s.dev.GetState(ctx)
	if err != nil {
		return err
	}
	return s.ensureLocked(ctx, state)
}

// Ensure приводит смену в рабочее состояние по снимку state:
// закрыта - открыть; открыта и просрочена - закрыть и открыть заново;
// открыта - ничего не делать. Время проверки обновляется при любом
// успешном исходе, даже если переходов не было.
func (s *ShiftController) Ensure(ctx context.Context, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.coolingDownLocked() {
		return nil
	}
	if state == nil {
		var err error
		if state, err = s.dev.GetState(ctx); err != nil {
			return err
		}
	}
	return s.ensureLocked(ctx, state)
}

func (s *ShiftController) coolingDownLocked() bool {
	return !s.lastCheck.IsZero() && s.now().Sub(s.lastCheck) < s.cooldown
}

func (s *ShiftController) ensureLocked(ctx context.Context, state *State) error {
	snapshot := *state
	s.lastState = &snapshot

	switch {
	case state.DayState != DayOpen:
		s.log.Info().Int("shift", state.ShiftNumber).Msg("shift closed, opening")
		err := s.open(ctx)
		observeShiftTransition("open", err)
		if err != nil {
			return err
		}

	case state.IsShiftExpired:
		s.log.Warn().
			Int("shift", state.ShiftNumber).
			Str("opened_at", state.ShiftDateTime).
			Msg("shift expired, reopening")
		err := s.reopen(ctx)
		observeShiftTransition("reopen", err)
		if err != nil {
			return err
		}

	default:
		s.log.Debug().Int("shift", state.ShiftNumber).Msg("shift is open")
	}

	s.lastCheck = s.now()
	return nil
}

func (s *ShiftController) open(ctx context.Context) error {
	if err := s.dev.OpenDay(ctx, s.cashier); err != nil {
		return err
	}
	after, err := s.dev.GetState(ctx)
	if err != nil {
		return err
	}
	s.lastState = after
	if after.DayState != DayOpen {
		return NewError(StatusFiscalCoreError, "failed to open shift")
	}
	return nil
}

func (s *ShiftController) reopen(ctx context.Context) error {
	if err := s.dev.CloseDay(ctx, s.cashier); err != nil {
		return err
	}
	if err := s.dev.OpenDay(ctx, s.cashier); err != nil {
		return err
	}
	after, err := s.dev.GetState(ctx)
	if err != nil {
		return err
	}
	s.lastState = after
	if after.DayState != DayOpen || after.IsShiftExpired {
		return NewError(StatusFiscalCoreError, "failed to reopen shift")
	}
	return nil
}

// Start запускает фоновую проверку смены: сразу и далее с периодом Interval.
// Ошибки фоновой проверки только логируются, следующая проверка при пробитии
// чека их обнаружит.
func (s *ShiftController) Start(ctx context.Context) *KeeperHandle {
	h := s.StartEvery(ctx, s.interval, s.backgroundCheck)
	s.log.Info().Dur("interval", s.interval).Dur("cooldown", s.cooldown).Msg("shift keeper started")
	return h
}

// StartEvery запускает цикл фоновой проверки с собственным обработчиком:
// tick вызывается сразу и далее каждые interval (0 означает период контроллера).
// Остановка через Stop.
func (s *ShiftController) StartEvery(ctx context.Context, interval time.Duration, tick func(context.Context)) *KeeperHandle {
	if interval <= 0 {
		interval = s.interval
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &KeeperHandle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tick(ctx)
			}
		}
	}()
	return h
}

// Stop останавливает фоновую проверку и дожидается завершения горутины
func (s *ShiftController) Stop(h *KeeperHandle) {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.cancel()
		<-h.done
		s.log.Debug().Msg("shift check loop stopped")
	})
}

func (s *ShiftController) backgroundCheck(ctx context.Context) {
	if err := s.Check(ctx); err != nil && ctx.Err() == nil {
		s.log.Warn().Err(err).Msg("background shift check failed")
	}
}
