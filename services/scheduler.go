package services

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"leaddesk/backend/logger"
)

// Purger is anything that can drop its expired entries.
type Purger interface {
	PurgeExpired() (int64, error)
}

// PurgeFunc adapts a plain function to Purger.
type PurgeFunc func() (int64, error)

// PurgeExpired calls f.
func (f PurgeFunc) PurgeExpired() (int64, error) { return f() }

// CaptchaPurger exposes a CaptchaStore as a Purger.
func CaptchaPurger(s *CaptchaStore) Purger {
	return PurgeFunc(func() (int64, error) { return int64(s.Purge()), nil })
}

// Scheduler runs periodic housekeeping.
type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Entry
}

// StartScheduler schedules a purge of every named purger on schedule (a cron expression
// or "@every 10m" descriptor) and starts running it.
func StartScheduler(schedule string, purgers map[string]Purger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(),
		log:  logger.For("scheduler"),
	}

	for name, p := range purgers {
		_, err := s.cron.AddFunc(schedule, func() { s.purge(name, p) })
		if err != nil {
			return nil, fmt.Errorf("invalid purge schedule %q: %w", schedule, err)
		}
	}

	s.cron.Start()
	s.log.WithFields(logrus.Fields{"schedule": schedule, "jobs": len(purgers)}).Info("Starting task scheduler")
	return s, nil
}

func (s *Scheduler) purge(name string, p Purger) {
	n, err := p.PurgeExpired()
	if err != nil {
		s.log.WithError(err).WithField("job", name).Error("Purge failed")
		return
	}
	if n > 0 {
		s.log.WithFields(logrus.Fields{"job": name, "removed": n}).Info("Purged expired entries")
	}
}

// Stop stops scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
