package health

import (
	"context"
	"time"
)

type Status string

const (
	StatusOk    Status = "OK"
	StatusError Status = "ERROR"
)

type Report struct {
	Status    Status     `json:"status"`
	Database  Status     `json:"database"`
	Scheduler Status     `json:"scheduler"`
	LastTick  *time.Time `json:"last_tick,omitempty"`
}

type IHealthUsecase interface {
	Check(ctx context.Context) (Report, error)
}
