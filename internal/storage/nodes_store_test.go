package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxifiscal/internal/models"
)

func newTestStore(t *testing.T) (*NodesStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nodes.json")
	s := NewNodesStore(path, zerolog.Nop())
	require.NoError(t, s.Load())
	return s, path
}

func TestNodesStoreRoundTrip(t *testing.T) {
	s, path := newTestStore(t)
	assert.Empty(t, s.List())

	require.NoError(t, s.Upsert(&models.FiscalNode{Name: "cloud", Port: 4445, RegistrationNumber: "0000000001012345"}))
	require.NoError(t, s.Upsert(&models.FiscalNode{Name: "local", Host: "10.0.0.2", Port: 4446}))

	reloaded := NewNodesStore(path, zerolog.Nop())
	require.NoError(t, reloaded.Load())
	require.Len(t, reloaded.List(), 2)

	n, err := reloaded.Find("cloud")
	require.NoError(t, err)
	assert.Equal(t, 4445, n.Port)
	assert.Equal(t, "0000000001012345", n.RegistrationNumber)

	n.Port = 1
	again, err := reloaded.Find("cloud")
	require.NoError(t, err)
	assert.Equal(t, 4445, again.Port, "Find returns a copy")
}

func TestNodesStoreUpsertReplaces(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Upsert(&models.FiscalNode{Name: "cloud", Port: 4445}))
	require.NoError(t, s.Upsert(&models.FiscalNode{Name: "cloud", Port: 4450}))

	require.Len(t, s.List(), 1)
	n, err := s.Find("cloud")
	require.NoError(t, err)
	assert.Equal(t, 4450, n.Port)
}

func TestNodesStoreRequiresName(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Error(t, s.Upsert(&models.FiscalNode{Port: 4445}))
}

func TestNodesStoreDeleteAndTouch(t *testing.T) {
	s, _ := newTestStore(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Upsert(&models.FiscalNode{Name: "a", Port: 1}))
	require.NoError(t, s.Upsert(&models.FiscalNode{Name: "b", Port: 2}))

	require.NoError(t, s.Touch("a"))
	assert.Equal(t, "a", s.List()[0].Name)

	require.NoError(t, s.Delete("a"))
	assert.Len(t, s.List(), 1)

	assert.True(t, errors.Is(s.Delete("a"), ErrNodeNotFound))
	assert.True(t, errors.Is(s.Touch("zzz"), ErrNodeNotFound))
	_, err := s.Find("a")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestNodesStoreKeepsMostRecent(t *testing.T) {
	s, _ := newTestStore(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < MaxNodes+3; i++ {
		require.NoError(t, s.Upsert(&models.FiscalNode{
			Name:     fmt.Sprintf("node-%02d", i),
			Port:     4445,
			LastUsed: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	nodes := s.List()
	require.Len(t, nodes, MaxNodes)
	assert.Equal(t, fmt.Sprintf("node-%02d", MaxNodes+2), nodes[0].Name)
	_, err := s.Find("node-00")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestNodesStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodes.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	s := NewNodesStore(path, zerolog.Nop())
	assert.Error(t, s.Load())
	assert.Empty(t, s.List())
}
