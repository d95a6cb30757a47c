package services

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/team17/gbase-api/internal/repository"
)

// Scheduler runs the two background jobs: pre-generating every eligible
// team's daily set shortly after midnight, and the nightly aggregate
// reconciliation pass. Requests that arrive before the daily job has run
// still generate the set on demand; the job only warms it up.
type Scheduler struct {
	scheduler gocron.Scheduler
	teams     *TeamService
	quests    *QuestService
}

// NewScheduler creates the scheduler in the given timezone.
func NewScheduler(teams *TeamService, quests *QuestService, loc *time.Location) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{
		scheduler: sched,
		teams:     teams,
		quests:    quests,
	}, nil
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(0, 5, 0))),
		gocron.NewTask(s.pregenerateDailySets),
	)
	if err != nil {
		return fmt.Errorf("failed to register daily set job: %w", err)
	}

	_, err = s.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0))),
		gocron.NewTask(s.reconcile),
	)
	if err != nil {
		return fmt.Errorf("failed to register reconciliation job: %w", err)
	}

	s.scheduler.Start()
	log.Println("Scheduler started (daily sets 00:05, reconciliation 03:00)")
	return nil
}

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() {
	if err := s.scheduler.Shutdown(); err != nil {
		log.Printf("scheduler shutdown: %v", err)
	}
}

func (s *Scheduler) pregenerateDailySets() {
	teams, err := repository.NewTeamRepository(s.quests.db).ListEligibleTeams()
	if err != nil {
		log.Printf("[scheduler] failed to list eligible teams: %v", err)
		return
	}

	date := s.quests.Today()
	generated := 0
	for i := range teams {
		if _, _, err := s.quests.EnsureDailySet(&teams[i], date); err != nil {
			log.Printf("[scheduler] daily set for team %d: %v", teams[i].ID, err)
			continue
		}
		generated++
	}
	log.Printf("[scheduler] daily sets ready for %d/%d teams (%s)", generated, len(teams), date)
}

func (s *Scheduler) reconcile() {
	repaired, err := s.teams.ReconcileAggregates()
	if err != nil {
		log.Printf("[scheduler] reconciliation failed: %v", err)
		return
	}
	if repaired > 0 {
		log.Printf("[scheduler] reconciliation repaired %d teams", repaired)
	}
}
