package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/plantmap"
	"github.com/agentstation/plantmap/pkg/errors"
)

// Mock is an Interface for command tests. Nil function fields fall back
// to defaults.
//
//	mock := &appcontext.Mock{
//	    PlantmapFunc: func() (plantmap.Client, error) { return pm, nil },
//	    Format:       "json",
//	}
//	cmd := garden.NewCommand(mock)
type Mock struct {
	PlantmapFunc func() (plantmap.Client, error)
	LoggerFunc   func() *zerolog.Logger
	Format       string
}

// Plantmap returns the client from PlantmapFunc, or an error when unset.
func (m *Mock) Plantmap() (plantmap.Client, error) {
	if m.PlantmapFunc != nil {
		return m.PlantmapFunc()
	}
	return nil, errors.New("mock: no plantmap client configured")
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns Format.
func (m *Mock) OutputFormat() string {
	return m.Format
}

// Ensure Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
