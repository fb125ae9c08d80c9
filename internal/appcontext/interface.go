// Package appcontext defines what commands need from the application, so
// command packages depend on an interface rather than the concrete App.
package appcontext

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/plantmap"
)

// Interface is implemented by the App in cmd/plantmap/app and by Mock.
type Interface interface {
	// Plantmap returns the shared client, opening it on first use.
	Plantmap() (plantmap.Client, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the requested output format, or "" to detect.
	OutputFormat() string
}
