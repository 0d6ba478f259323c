package jobs

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/vrsandeep/tome-go/internal/store"
)

// Job names, also usable via the API's run-job endpoint.
const (
	JobStateGC       = "state-gc"
	JobQueueCleanup  = "queue-cleanup"
	completedTTLDays = 7
)

func (jm *JobManager) registerMaintenanceJobs() {
	jm.Register(JobStateGC, runStateGC)
	jm.Register(JobQueueCleanup, runQueueCleanup)
}

// StartJobs starts the background job scheduler.
func StartJobs(app JobContext, jm *JobManager) {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	scheduleDaily(s, jm, JobStateGC)
	scheduleDaily(s, jm, JobQueueCleanup)

	log.Println("Starting background job scheduler...")
	s.StartAsync()
}

func scheduleDaily(s *gocron.Scheduler, jm *JobManager, jobID string) {
	log.Printf("Scheduling job: '%s' to run daily.", jobID)
	_, err := s.Every(1).Day().At("03:30").Do(func() {
		log.Println("Scheduler is triggering job:", jobID)
		// Submit the job to the manager instead of running it directly.
		// This prevents conflicts with manually triggered jobs.
		if err := jm.RunJob(jobID); err != nil {
			log.Printf("Scheduled job '%s' could not start: %v", jobID, err)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", jobID, err)
	}
}

// runStateGC purges resume records whose last update predates the
// configured retention window.
func runStateGC(ctx JobContext) {
	days := ctx.Config().State.RetentionDays
	if days <= 0 {
		log.Println("State retention disabled, skipping garbage collection.")
		return
	}
	removed, err := ctx.StateStore().PurgeOlderThan(days)
	if err != nil {
		log.Printf("State GC error: %v", err)
		return
	}
	log.Printf("State GC removed %d stale resume record(s).", removed)
}

// runQueueCleanup drops completed download-queue rows after a week.
func runQueueCleanup(ctx JobContext) {
	st := store.New(ctx.DB())
	removed, err := st.DeleteCompletedOlderThan(completedTTLDays)
	if err != nil {
		log.Printf("Queue cleanup error: %v", err)
		return
	}
	log.Printf("Queue cleanup removed %d completed item(s).", removed)
}
