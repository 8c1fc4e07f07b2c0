package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/avikl/user-admin-be/internal/services"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Stats is a point-in-time snapshot of host load and account counts,
// served on the admin stats endpoint and pushed through the feed.
type Stats struct {
	CPUPercent    float64   `json:"cpuPercent"`
	MemPercent    float64   `json:"memPercent"`
	DiskPercent   float64   `json:"diskPercent"`
	UptimeSeconds int64     `json:"uptimeSeconds"`
	TotalUsers    int       `json:"totalUsers"`
	TotalAdmins   int       `json:"totalAdmins"`
	CollectedAt   time.Time `json:"collectedAt"`
}

// Notifier pushes snapshots to connected feed clients.
type Notifier interface {
	BroadcastJSON(action string, payload interface{})
}

// StatUpdater periodically collects host and account stats.
type StatUpdater struct {
	userSvc  services.UserServiceProvider
	notifier Notifier
	dataPath string // volume whose disk usage is reported
	interval time.Duration
	started  time.Time
	ticker   *time.Ticker
	done     chan bool

	mu     sync.RWMutex
	latest Stats
}

// NewStatUpdater creates a new StatUpdater.
func NewStatUpdater(userSvc services.UserServiceProvider, notifier Notifier, dataPath string, interval time.Duration) *StatUpdater {
	return &StatUpdater{
		userSvc:  userSvc,
		notifier: notifier,
		dataPath: dataPath,
		interval: interval,
		started:  time.Now(),
		done:     make(chan bool),
	}
}

// Run starts the periodic updates.
func (su *StatUpdater) Run() {
	log.Info().Dur("interval", su.interval).Msg("Starting background stat updater...")
	su.ticker = time.NewTicker(su.interval)
	defer su.ticker.Stop()

	// Run once immediately on start
	su.update()

	for {
		select {
		case <-su.done:
			log.Info().Msg("Stopping background stat updater.")
			return
		case <-su.ticker.C:
			su.update()
		}
	}
}

// Stop halts the periodic updates.
func (su *StatUpdater) Stop() {
	su.done <- true
}

// Snapshot returns the most recently collected stats.
func (su *StatUpdater) Snapshot() Stats {
	su.mu.RLock()
	defer su.mu.RUnlock()
	return su.latest
}

func (su *StatUpdater) update() {
	stats := Stats{
		UptimeSeconds: int64(time.Since(su.started).Seconds()),
		CollectedAt:   time.Now().UTC(),
	}

	if percents, err := cpu.Percent(0, false); err != nil {
		log.Warn().Err(err).Msg("StatUpdater: Could not read CPU usage")
	} else if len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemory(); err != nil {
		log.Warn().Err(err).Msg("StatUpdater: Could not read memory usage")
	} else {
		stats.MemPercent = vm.UsedPercent
	}

	if usage, err := disk.Usage(su.dataPath); err != nil {
		log.Warn().Err(err).Str("path", su.dataPath).Msg("StatUpdater: Could not read disk usage")
	} else {
		stats.DiskPercent = usage.UsedPercent
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	total, admins, err := su.userSvc.CountUsers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("StatUpdater: Failed to count users")
	} else {
		stats.TotalUsers = total
		stats.TotalAdmins = admins
	}

	su.mu.Lock()
	su.latest = stats
	su.mu.Unlock()

	if su.notifier != nil {
		su.notifier.BroadcastJSON("stats.update", stats)
	}
}
