// Package shiftkeeper фоновое удержание открытой смены на киоске
package shiftkeeper

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"taxifiscal/pkg/fiscal"
)

// Status последнее известное состояние смены
type Status struct {
	ShiftOpen   bool
	Expired     bool
	ShiftNumber int
	LastCheck   time.Time
	LastUpdate  time.Time
	LastError   error
}

// Config параметры сервиса
type Config struct {
	Interval time.Duration // период проверки, по умолчанию fiscal.DefaultShiftInterval
	Now      func() time.Time
	Logger   zerolog.Logger
}

// Service периодически проверяет смену через контроллер и сообщает об изменениях.
// Состояние берётся из снимка контроллера: в период охлаждения к ККТ не обращается.
type Service struct {
	ctrl   *fiscal.ShiftController
	config Config
	log    zerolog.Logger

	mutex          sync.Mutex
	status         Status
	handle         *fiscal.KeeperHandle
	isPaused       bool
	updateCallback func(Status)
}

// NewService создаёт сервис для контроллера ctrl
func NewService(ctrl *fiscal.ShiftController, cfg Config) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = fiscal.DefaultShiftInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		ctrl:   ctrl,
		config: cfg,
		log:    cfg.Logger.With().Str("component", "shiftkeeper").Logger(),
	}
}

// Start запускает проверку: сразу и далее каждые Interval.
// Повторный Start перезапускает цикл.
func (s *Service) Start(ctx context.Context) {
	s.Stop()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.handle = s.ctrl.StartEvery(ctx, s.config.Interval, s.tick)
	s.log.Info().Dur("interval", s.config.Interval).Msg("shift keeper started")
}

// Stop останавливает проверку и ждёт завершения горутины
func (s *Service) Stop() {
	s.mutex.Lock()
	h := s.handle
	s.handle = nil
	s.mutex.Unlock()

	if h == nil {
		return
	}
	s.ctrl.Stop(h)
	s.log.Info().Msg("shift keeper stopped")
}

// Pause приостанавливает проверки (например, на время обслуживания ККТ)
func (s *Service) Pause() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.isPaused = true
}

// Resume возобновляет проверки
func (s *Service) Resume() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.isPaused = false
}

// SetUpdateCallback задаёт функцию, вызываемую при изменении состояния смены
func (s *Service) SetUpdateCallback(fn func(Status)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.updateCallback = fn
}

// CurrentStatus текущее состояние (потокобезопасно)
func (s *Service) CurrentStatus() Status {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.status
}

func (s *Service) tick(ctx context.Context) {
	s.mutex.Lock()
	paused := s.isPaused
	s.mutex.Unlock()
	if paused {
		return
	}
	s.CheckNow(ctx)
}

// CheckNow выполняет одну проверку вне расписания и возвращает новое состояние
func (s *Service) CheckNow(ctx context.Context) Status {
	checkErr := s.ctrl.Check(ctx)
	if checkErr != nil && ctx.Err() == nil {
		s.log.Warn().Err(checkErr).Msg("shift check failed")
	}

	next := s.CurrentStatus()
	next.LastError = checkErr
	next.LastCheck = s.ctrl.LastCheck()
	next.LastUpdate = s.config.Now()

	if state, ok := s.ctrl.LastState(); ok {
		next.ShiftOpen = state.ShiftOpen()
		next.Expired = state.IsShiftExpired
		next.ShiftNumber = state.ShiftNumber
	}

	s.mutex.Lock()
	prev := s.status
	s.status = next
	cb := s.updateCallback
	s.mutex.Unlock()

	if cb != nil && changed(prev, next) {
		cb(next)
	}
	return next
}

func changed(a, b Status) bool {
	if a.ShiftOpen != b.ShiftOpen || a.Expired != b.Expired || a.ShiftNumber != b.ShiftNumber {
		return true
	}
	return (a.LastError == nil) != (b.LastError == nil)
}
