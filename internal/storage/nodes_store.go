package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"taxifiscal/internal/models"
)

// MaxNodes сколько профилей хранить
const MaxNodes = 20

// ErrNodeNotFound профиль не найден
var ErrNodeNotFound = errors.New("storage: fiscal node not found")

// nodesData используется для сериализации/десериализации JSON
type nodesData struct {
	Nodes []*models.FiscalNode `json:"nodes"`
}

// NodesStore хранит профили фискальных узлов в JSON-файле
type NodesStore struct {
	mu       sync.RWMutex
	nodes    []*models.FiscalNode
	filePath string
	log      zerolog.Logger
	now      func() time.Time
}

// NewNodesStore создаёт хранилище профилей
func NewNodesStore(path string, log zerolog.Logger) *NodesStore {
	return &NodesStore{
		filePath: path,
		nodes:    make([]*models.FiscalNode, 0),
		log:      log.With().Str("component", "nodes_store").Logger(),
		now:      time.Now,
	}
}

// Load загружает профили из файла. Отсутствующий файл означает пустой список.
func (s *NodesStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s.log.Debug().Str("path", s.filePath).Msg("nodes file not found, starting empty")
			s.nodes = make([]*models.FiscalNode, 0)
			return nil
		}
		return fmt.Errorf("ошибка чтения файла профилей: %w", err)
	}

	var nd nodesData
	if err := json.Unmarshal(data, &nd); err != nil {
		s.nodes = make([]*models.FiscalNode, 0)
		return fmt.Errorf("ошибка разбора JSON: %w", err)
	}

	s.log.Debug().Int("count", len(nd.Nodes)).Str("path", s.filePath).Msg("nodes loaded")
	s.nodes = nd.Nodes
	return nil
}

// List возвращает профили, последние использованные первыми
func (s *NodesStore) List() []*models.FiscalNode {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.FiscalNode, len(s.nodes))
	copy(result, s.nodes)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].LastUsed.After(result[j].LastUsed)
	})
	return result
}

// Find ищет профиль по имени
func (s *NodesStore) Find(name string) (*models.FiscalNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, n := range s.nodes {
		if n.Name == name {
			cp := *n
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, name)
}

// Upsert добавляет или обновляет профиль и сохраняет файл
func (s *NodesStore) Upsert(node *models.FiscalNode) error {
	if node.Name == "" {
		return errors.New("storage: node name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *node
	found := false
	for i, n := range s.nodes {
		if n.Name == node.Name {
			s.nodes[i] = &cp
			found = true
			break
		}
	}
	if !found {
		s.nodes = append(s.nodes, &cp)
	}

	if len(s.nodes) > MaxNodes {
		sort.SliceStable(s.nodes, func(i, j int) bool {
			return s.nodes[i].LastUsed.After(s.nodes[j].LastUsed)
		})
		s.nodes = s.nodes[:MaxNodes]
	}
	return s.saveLocked()
}

// Delete удаляет профиль
func (s *NodesStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, n := range s.nodes {
		if n.Name == name {
			s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
			return s.saveLocked()
		}
	}
	return fmt.Errorf("%w: %s", ErrNodeNotFound, name)
}

// Touch обновляет время последнего использования
func (s *NodesStore) Touch(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.nodes {
		if n.Name == name {
			n.LastUsed = s.now()
			return s.saveLocked()
		}
	}
	return fmt.Errorf("%w: %s", ErrNodeNotFound, name)
}

// saveLocked пишет файл атомарно, мьютекс уже захвачен
func (s *NodesStore) saveLocked() error {
	data, err := json.MarshalIndent(nodesData{Nodes: s.nodes}, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации JSON: %w", err)
	}
	if err := renameio.WriteFile(s.filePath, data, 0o644); err != nil {
		return fmt.Errorf("ошибка записи файла профилей: %w", err)
	}
	s.log.Debug().Int("count", len(s.nodes)).Msg("nodes saved")
	return nil
}
