package sessions

import (
	"context"
	"fmt"

	"github.com/robfig/cron"
	log "github.com/sirupsen/logrus"
)

// Reaper periodically finishes idle sessions as abandoned.
type Reaper struct {
	cron    *cron.Cron
	service *Service
}

// NewReaper schedules the reaping on a cron spec, e.g. "@every 1m".
func NewReaper(service *Service, spec string) (*Reaper, error) {
	r := &Reaper{
		cron:    cron.New(),
		service: service,
	}
	if err := r.cron.AddFunc(spec, r.reap); err != nil {
		return nil, fmt.Errorf("schedule session reaper [%s]: %w", spec, err)
	}
	return r, nil
}

func (r *Reaper) reap() {
	reaped := r.service.ReapIdle(context.Background(), r.service.now())
	log.Tracef("session reaper run done, reaped: %d, active: %d", reaped, r.service.ActiveSessions())
}

func (r *Reaper) Start() {
	r.cron.Start()
}

func (r *Reaper) Stop() {
	r.cron.Stop()
}
