package cron

import (
	"context"
	"time"

	"github.com/housepower/redwatch/common"
	"github.com/housepower/redwatch/config"
	"github.com/housepower/redwatch/log"
	"github.com/housepower/redwatch/repository"
	"github.com/robfig/cron/v3"
)

type CronService struct {
	config       config.CronJob
	jobSchedules map[int16]string
	jobList      map[int16]func() error
	cron         *cron.Cron
}

// NewCronService schedules housekeeping against store. A zero retention keeps
// snapshots forever, so no purge job is registered.
func NewCronService(config config.CronJob, store repository.SnapshotStore, retention time.Duration) *CronService {
	job := &CronService{
		config:       config,
		jobSchedules: make(map[int16]string),
		jobList:      make(map[int16]func() error),
		cron:         cron.New(cron.WithSeconds()),
	}
	if retention > 0 {
		job.jobList[JOB_PURGE_SNAPSHOTS] = PurgeSnapshots(store, retention, time.Now)
	}
	return job
}

func (job *CronService) schedulePadding() {
	job.jobSchedules[JOB_PURGE_SNAPSHOTS] = common.GetStringwithDefault(job.config.PurgeSnapshots, SCHEDULE_PURGE_DEFAULT)
}

func (job *CronService) Start() error {
	if !job.config.Enabled {
		log.Logger.Infof("cron service disabled")
		return nil
	}
	job.schedulePadding()
	for k, v := range job.jobList {
		k := k
		v := v
		if spec, ok := job.jobSchedules[k]; ok {
			if _, err := job.cron.AddFunc(spec, func() {
				if err := v(); err != nil {
					log.Logger.Errorf("cron job %d failed: %v", k, err)
				}
			}); err != nil {
				return err
			}
		}
	}
	job.cron.Start()
	return nil
}

func (job *CronService) Stop() {
	<-job.cron.Stop().Done()
	log.Logger.Infof("cron service stopped")
}

// PurgeSnapshots returns a job deleting every snapshot older than retention.
func PurgeSnapshots(store repository.SnapshotStore, retention time.Duration, now func() time.Time) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		before := now().Add(-retention)
		purged, err := store.Purge(ctx, before)
		if err != nil {
			return err
		}
		log.Logger.Infof("purged %d snapshots polled before %s", purged, before.Format(time.RFC3339))
		return nil
	}
}
