package loader

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFeature struct {
	name    string
	enabled bool
	err     error
	loads   int
}

func (s *stubFeature) Name() string    { return s.name }
func (s *stubFeature) IsEnabled() bool { return s.enabled }
func (s *stubFeature) Load(fiber.Router) error {
	s.loads++
	return s.err
}

func TestManager_LoadAll(t *testing.T) {
	status := &stubFeature{name: "status", enabled: true}
	journal := &stubFeature{name: "journal", enabled: false}

	mgr := NewManager()
	mgr.Register(status)
	mgr.Register(journal)

	loaded, err := mgr.LoadAll(fiber.New())
	require.NoError(t, err)
	assert.Equal(t, []string{"status"}, loaded)
	assert.Equal(t, 1, status.loads)
	assert.Zero(t, journal.loads)
}

func TestManager_LoadAllError(t *testing.T) {
	mgr := NewManager()
	mgr.Register(&stubFeature{name: "broken", enabled: true, err: assert.AnError})

	_, err := mgr.LoadAll(fiber.New())
	assert.ErrorIs(t, err, assert.AnError)
	assert.ErrorContains(t, err, "broken")
}
