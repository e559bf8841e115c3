package services

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"
)

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"

	ProbeConnected    = "connected"
	ProbeDisconnected = "disconnected"
)

// ConnectionChecker reports the broker connection flag without a round-trip.
type ConnectionChecker interface {
	IsConnected() bool
}

// DBHealth is the database probe result.
type DBHealth struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// BrokerHealth is the broker probe result.
type BrokerHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthReport aggregates both probes.
type HealthReport struct {
	Service string       `json:"service"`
	DB      DBHealth     `json:"db"`
	MQTT    BrokerHealth `json:"mqtt"`
}

// OK reports whether every probe is connected.
func (r HealthReport) OK() bool {
	return r.Service == StatusOK
}

// HealthService probes the database and the broker concurrently.
type HealthService struct {
	db        *gorm.DB
	broker    ConnectionChecker
	dbTimeout time.Duration
}

func NewHealthService(db *gorm.DB, broker ConnectionChecker, dbTimeout time.Duration) *HealthService {
	if dbTimeout <= 0 {
		dbTimeout = 2 * time.Second
	}
	return &HealthService{db: db, broker: broker, dbTimeout: dbTimeout}
}

// Check runs both probes in parallel and joins them, so a stalled probe
// bounds the endpoint at the slower of the two rather than their sum.
func (s *HealthService) Check(ctx context.Context) HealthReport {
	var report HealthReport
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		report.DB = s.probeDatabase(ctx)
	}()
	go func() {
		defer wg.Done()
		report.MQTT = s.probeBroker()
	}()
	wg.Wait()

	report.Service = StatusOK
	if report.DB.Status != ProbeConnected || report.MQTT.Status != ProbeConnected {
		report.Service = StatusDegraded
	}
	return report
}

// probeDatabase pings the pool with a bounded timeout and measures the
// round-trip in milliseconds.
func (s *HealthService) probeDatabase(ctx context.Context) DBHealth {
	ctx, cancel := context.WithTimeout(ctx, s.dbTimeout)
	defer cancel()

	start := time.Now()
	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return DBHealth{Status: ProbeDisconnected, LatencyMs: latency, Error: err.Error()}
	}
	return DBHealth{Status: ProbeConnected, LatencyMs: latency}
}

func (s *HealthService) probeBroker() BrokerHealth {
	if !s.broker.IsConnected() {
		return BrokerHealth{Status: ProbeDisconnected, Error: "mqtt client is not connected"}
	}
	return BrokerHealth{Status: ProbeConnected}
}
