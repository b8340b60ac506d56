package platform

import (
	"time"

	"remodance/internal/core/monitor"
)

type idleProvider struct{}

func newIdleProvider() IdleProvider {
	return &idleProvider{}
}

func (provider *idleProvider) IdleDuration() (time.Duration, error) {
	return 0, monitor.ErrIdleUnsupported
}
