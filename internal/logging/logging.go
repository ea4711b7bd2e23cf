package logging

import (
	"go.uber.org/zap"
)

// New builds the process-wide logger. DEBUG=1 switches to the development
// config with human-readable output.
func New(service string, debug bool) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.With(zap.String("service", service)), nil
}
