package monitoring

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Health is the snapshot reported by the health endpoint.
type Health struct {
	Status            string  `json:"status"`
	Database          string  `json:"database"`
	MemoryUsedPercent float64 `json:"memoryUsedPercent,omitempty"`
	UptimeSeconds     uint64  `json:"uptimeSeconds,omitempty"`
}

// HealthChecker pings the database and samples host statistics.
type HealthChecker struct {
	db *sql.DB
}

// NewHealthChecker creates a new HealthChecker.
func NewHealthChecker(db *sql.DB) *HealthChecker {
	return &HealthChecker{db: db}
}

// Check reports "ok" when the database answers a ping within two seconds.
// Host statistics are best effort and omitted if unavailable.
func (h *HealthChecker) Check(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	report := Health{Status: "ok", Database: "ok"}
	if err := h.db.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("Health: database ping failed")
		report.Status = "degraded"
		report.Database = "unreachable"
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		report.MemoryUsedPercent = vm.UsedPercent
	} else {
		log.Debug().Err(err).Msg("Health: memory stats unavailable")
	}
	if uptime, err := host.UptimeWithContext(ctx); err == nil {
		report.UptimeSeconds = uptime
	}
	return report
}
