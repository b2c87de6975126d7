package monitor_faucet

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/bchfaucet/faucet/src/utils/monitoring/report"
	"github.com/bchfaucet/faucet/src/utils/task"

	"github.com/gammazero/deque"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Stores and computes monitor counters
type Monitor struct {
	*task.Task

	Report report.Report

	historySize int
	collector   *Collector

	// Claims made, sampled every minute
	ClaimCounts *deque.Deque[uint64]

	// Dependencies that need to work for the faucet to be healthy
	healthChecks []func(ctx context.Context) error
}

func NewMonitor() (self *Monitor) {
	self = new(Monitor)

	self.Report = report.Report{
		Run:        &report.RunReport{},
		Claimer:    &report.ClaimerReport{},
		Reconciler: &report.ReconcilerReport{},
		Webhook:    &report.WebhookReport{},
		Admin:      &report.AdminReport{},
	}

	// Initialization
	self.Report.Run.State.StartTimestamp.Store(time.Now().Unix())

	self.collector = NewCollector().WithMonitor(self)

	self.Task = task.NewTask(nil, "monitor").
		WithPeriodicSubtaskFunc(time.Minute, self.monitorClaims)

	return self.WithMaxHistorySize(30)
}

func (self *Monitor) WithMaxHistorySize(maxHistorySize int) *Monitor {
	self.historySize = maxHistorySize
	self.ClaimCounts = deque.New[uint64](self.historySize)
	return self
}

func (self *Monitor) WithHealthCheck(f func(ctx context.Context) error) *Monitor {
	self.healthChecks = append(self.healthChecks, f)
	return self
}

func (self *Monitor) GetReport() *report.Report {
	return &self.Report
}

func (self *Monitor) GetPrometheusCollector() (collector prometheus.Collector) {
	return self.collector
}

func round(f float64) float64 {
	return math.Round(f*100) / 100
}

// Measure claim rate
func (self *Monitor) monitorClaims() (err error) {
	loaded := self.Report.Claimer.State.ClaimsSucceeded.Load()

	self.ClaimCounts.PushBack(loaded)
	if self.ClaimCounts.Len() > self.historySize {
		self.ClaimCounts.PopFront()
	}
	value := float64(self.ClaimCounts.Back()-self.ClaimCounts.Front()) / float64(self.ClaimCounts.Len())

	self.Report.Claimer.State.AverageClaimsPerMinute.Store(round(value))
	return
}

func (self *Monitor) IsOK() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, check := range self.healthChecks {
		if err := check(ctx); err != nil {
			self.Log.WithError(err).Warn("Health check failed")
			return false
		}
	}
	return true
}

func (self *Monitor) OnGetState(c *gin.Context) {
	self.Report.Run.State.UpForSeconds.Store(uint64(time.Now().Unix() - self.Report.Run.State.StartTimestamp.Load()))
	c.JSON(http.StatusOK, &self.Report)
}

func (self *Monitor) OnGetHealth(c *gin.Context) {
	if self.IsOK() {
		c.Status(http.StatusOK)
	} else {
		c.Status(http.StatusServiceUnavailable)
	}
}
