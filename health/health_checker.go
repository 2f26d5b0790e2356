// Package health reports whether every record collection is persisted.
package health

import (
	"net/http"
	"time"

	"github.com/giygas/cabinet/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	app       interfaces.Monitored
	startedAt time.Time
	now       func() time.Time
}

var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(app interfaces.Monitored) *HealthCheckerImpl {
	return &HealthCheckerImpl{app: app, startedAt: time.Now(), now: time.Now}
}

// HealthCheck is "healthy" when every slot holds the in-memory collection and
// "degraded" while at least one write is pending.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	state := h.app.Snapshot()
	pending := h.app.PendingWrites()
	lastSaved := h.app.LastSaved()

	pendingNames := make([]string, len(pending))
	for i, slot := range pending {
		pendingNames[i] = string(slot)
	}

	if len(pending) > 0 {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	} else {
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"patients":       len(state.Patients),
		"ordonnances":    len(state.Ordonnances),
		"echos":          len(state.Echos),
		"pending_slots":  pendingNames,
		"view":           string(state.View),
		"uptime_seconds": int(h.now().Sub(h.startedAt).Seconds()),
	}
	if !lastSaved.IsZero() {
		data["last_saved"] = lastSaved.Format(time.RFC3339)
	}

	return status, data, httpStatus
}
