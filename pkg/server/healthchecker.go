package server

import "context"

type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

type OkHealthChecker struct {
}

func NewOkHealthChecker() *OkHealthChecker {
	return &OkHealthChecker{}
}

func (hc *OkHealthChecker) Healthy(ctx context.Context) bool {
	return true
}

// NamedHealthChecker aggregates checks keyed by component name. It is healthy
// only when every member is.
type NamedHealthChecker struct {
	checks map[string]HealthChecker
}

func NewNamedHealthChecker() *NamedHealthChecker {
	return &NamedHealthChecker{checks: make(map[string]HealthChecker)}
}

func (hc *NamedHealthChecker) Add(name string, c HealthChecker) *NamedHealthChecker {
	hc.checks[name] = c
	return hc
}

// Status reports the health of each member.
func (hc *NamedHealthChecker) Status(ctx context.Context) map[string]bool {
	out := make(map[string]bool, len(hc.checks))
	for name, c := range hc.checks {
		out[name] = c.Healthy(ctx)
	}
	return out
}

func (hc *NamedHealthChecker) Healthy(ctx context.Context) bool {
	for _, c := range hc.checks {
		if !c.Healthy(ctx) {
			return false
		}
	}
	return true
}
