package services

import (
	"time"

	"pattana_go/database"
	"pattana_go/models"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// MaintenanceScheduler runs the housekeeping jobs that sit outside any
// request: warming the holiday cache and completing past sessions.
// ไม่เกี่ยวกับการ generate อันนั้นทำ inline ใน request เสมอ
type MaintenanceScheduler struct {
	cron     *cron.Cron
	holidays *HolidayCalendar
}

func NewMaintenanceScheduler(holidays *HolidayCalendar) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		cron:     cron.New(),
		holidays: holidays,
	}
}

// Start registers and launches the cron jobs.
func (m *MaintenanceScheduler) Start() {
	// Warm the holiday cache every morning before admins start planning.
	if _, err := m.cron.AddFunc("0 1 * * *", m.WarmHolidayCache); err != nil {
		logrus.WithError(err).Error("failed to register holiday warmup job")
	}

	// Sessions whose day has passed and were never cancelled count as taught.
	if _, err := m.cron.AddFunc("@hourly", m.CompletePastSessions); err != nil {
		logrus.WithError(err).Error("failed to register session completion job")
	}

	m.cron.Start()
	logrus.Info("maintenance scheduler started")
}

// Stop halts the cron runner, waiting for running jobs.
func (m *MaintenanceScheduler) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}

// WarmHolidayCache prefetches the current and next Buddhist-era years so the
// first generation request of the day gets cache hits.
func (m *MaintenanceScheduler) WarmHolidayCache() {
	if m.holidays == nil {
		return
	}
	thisBE := time.Now().Year() + buddhistEraOffset
	holidays := m.holidays.GetHolidays([]int{thisBE, thisBE + 1})
	logrus.WithField("holidays", len(holidays)).Info("holiday cache warmed")
}

// CompletePastSessions marks scheduled sessions whose date has passed as
// completed. Cancelled rows are left alone.
func (m *MaintenanceScheduler) CompletePastSessions() {
	cutoff := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	res := database.DB.Model(&models.Session{}).
		Where("status = ? AND session_date <= ?", "scheduled", cutoff).
		Update("status", "completed")
	if res.Error != nil {
		logrus.WithError(res.Error).Error("failed to complete past sessions")
		return
	}
	if res.RowsAffected > 0 {
		logrus.WithField("sessions", res.RowsAffected).Info("past sessions marked completed")
	}
}
