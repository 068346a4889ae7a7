package usecase

import (
	"context"
	"time"

	domainHealth "github.com/AzielCF/fedisched/domains/health"
	"gorm.io/gorm"
)

// tickGrace is how stale the last scheduler tick may be, as a multiple of the
// poll interval, before the scheduler is reported unhealthy.
const tickGrace = 3

// SchedulerProbe exposes the scheduler liveness the health check needs.
type SchedulerProbe interface {
	LastTick() (time.Time, bool)
}

type healthService struct {
	db           *gorm.DB
	scheduler    SchedulerProbe
	pollInterval time.Duration
}

func NewHealthService(db *gorm.DB, scheduler SchedulerProbe, pollInterval time.Duration) domainHealth.IHealthUsecase {
	return &healthService{db: db, scheduler: scheduler, pollInterval: pollInterval}
}

func (s *healthService) Check(ctx context.Context) (domainHealth.Report, error) {
	report := domainHealth.Report{
		Status:    domainHealth.StatusOk,
		Database:  domainHealth.StatusOk,
		Scheduler: domainHealth.StatusOk,
	}

	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		report.Database = domainHealth.StatusError
		report.Status = domainHealth.StatusError
	}

	if s.scheduler != nil {
		last, ok := s.scheduler.LastTick()
		if ok {
			report.LastTick = &last
		}
		if !ok || time.Since(last) > tickGrace*s.pollInterval {
			report.Scheduler = domainHealth.StatusError
			report.Status = domainHealth.StatusError
		}
	}

	return report, nil
}
