package services

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/team17/gbase-api/internal/constants"
	"github.com/team17/gbase-api/internal/models"
	"github.com/team17/gbase-api/internal/repository"
)

var (
	ErrTeamNotEligible     = errors.New("quests unlock at 2 or more members")
	ErrInsufficientCatalog = errors.New("not enough active quests at this difficulty")
	ErrDailyItemNotFound   = errors.New("daily quest item not found")
	ErrStaleDailySet       = errors.New("this quest is not part of today's set")
	ErrAlreadyCompleted    = errors.New("quest already completed")
)

// CompleteResult reports the outcome of completing one daily slot.
type CompleteResult struct {
	Completion   *models.QuestCompletion
	GainedPoints int
	TotalPoints  int
	RankBefore   models.TeamRank
	RankAfter    models.TeamRank
}

// ProgressItem is one daily slot with its team-wide completion state.
type ProgressItem struct {
	Item           models.DailyQuestItem
	CompletedCount int
	MemberCount    int
	CompletedByMe  bool
}

// ProgressResult is the team's progress across today's set. Comment is the
// coach's read of the team's mood, keyed on how many members have finished
// the whole set.
type ProgressResult struct {
	Set     *models.DailyQuestSet
	Items   []ProgressItem
	Comment string
}

// MVPResult is today's top scorer for a team, ties broken by earliest
// completion. User is nil when nobody has completed anything yet.
type MVPResult struct {
	User             *models.User
	TotalPoints      int
	FirstCompletedAt *time.Time
	Set              *models.DailyQuestSet
}

// QuestService owns the daily assignment engine and the completion ledger.
type QuestService struct {
	db            *gorm.DB
	teams         *TeamService
	notifications *NotificationService
	ai            *AIService
	loc           *time.Location
}

// NewQuestService creates a new QuestService. ai may be nil; the fallback
// template is used for all feed messages in that case.
func NewQuestService(db *gorm.DB, teams *TeamService, notifications *NotificationService, ai *AIService, loc *time.Location) *QuestService {
	if loc == nil {
		loc = time.Local
	}
	return &QuestService{
		db:            db,
		teams:         teams,
		notifications: notifications,
		ai:            ai,
		loc:           loc,
	}
}

// Today returns the current calendar date in the service timezone.
func (s *QuestService) Today() string {
	return time.Now().In(s.loc).Format(constants.DateLayout)
}

// DifficultyForRank maps the team's rank band to the day's quest tier.
// Rank is itself a pure function of total_points, so the mapping is a
// deterministic function of the team's cumulative score.
func DifficultyForRank(rank models.TeamRank) models.QuestDifficulty {
	switch rank {
	case models.RankS, models.RankA, models.RankB:
		return models.DifficultyHard
	case models.RankC, models.RankD:
		return models.DifficultyNormal
	default:
		return models.DifficultyEasy
	}
}

// TodaySet returns (creating if needed) today's quest set for the user's team.
func (s *QuestService) TodaySet(userID uint64) (*models.DailyQuestSet, []models.DailyQuestItem, error) {
	team, _, err := s.teams.GetTeamForUser(userID)
	if err != nil {
		return nil, nil, err
	}
	return s.EnsureDailySet(team, s.Today())
}

// EnsureDailySet returns the team's quest set for the date, generating and
// pinning it on first call. Idempotent: later calls return the stored set
// unchanged. When two requests race to create the same (team, date), the
// unique constraint decides and the loser re-reads the winner's rows.
func (s *QuestService) EnsureDailySet(team *models.Team, date string) (*models.DailyQuestSet, []models.DailyQuestItem, error) {
	if !team.IsQuestUnlocked() {
		return nil, nil, ErrTeamNotEligible
	}

	questRepo := repository.NewQuestRepository(s.db)

	set, err := questRepo.FindDailySet(team.ID, date)
	if err == nil {
		items, err := questRepo.ListItems(set.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load daily items: %w", err)
		}
		return set, items, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to look up daily set: %w", err)
	}

	difficulty := DifficultyForRank(team.Rank)

	candidates, err := questRepo.ListActiveByDifficulty(difficulty)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load quest catalog: %w", err)
	}
	if len(candidates) < constants.DailySetSize {
		return nil, nil, ErrInsufficientCatalog
	}

	picked := pickQuests(candidates, constants.DailySetSize, dailySeed(team.ID, date))

	message, generatedBy := s.dailyMessage(team, difficulty, picked)

	set = &models.DailyQuestSet{
		TeamID:      team.ID,
		Date:        date,
		Difficulty:  difficulty,
		GeneratedBy: generatedBy,
	}
	items := make([]models.DailyQuestItem, len(picked))
	for i, q := range picked {
		items[i] = models.DailyQuestItem{
			QuestID:   q.ID,
			SortOrder: i,
		}
	}

	if err := questRepo.CreateDailySet(set, items); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Another request committed first; its set is the set.
			return s.EnsureDailySet(team, date)
		}
		return nil, nil, fmt.Errorf("failed to create daily set: %w", err)
	}

	if _, err := s.notifications.Publish(team.ID, models.NotificationDailyReady, message, nil); err != nil {
		log.Printf("daily_ready notification failed for team %d: %v", team.ID, err)
	}

	saved, err := questRepo.ListItems(set.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reload daily items: %w", err)
	}
	return set, saved, nil
}

// CompleteItem records that the user finished one of today's slots, accrues
// the quest's points to the team and publishes the resulting events, all in
// one transaction.
func (s *QuestService) CompleteItem(userID, dailyItemID uint64) (*CompleteResult, error) {
	questRepo := repository.NewQuestRepository(s.db)

	item, err := questRepo.FindItemByID(dailyItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDailyItemNotFound
		}
		return nil, fmt.Errorf("failed to find daily item: %w", err)
	}

	team := item.DailySet.Team

	if _, err := repository.NewTeamRepository(s.db).FindMember(team.ID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotATeamMember
		}
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !team.IsQuestUnlocked() {
		return nil, ErrTeamNotEligible
	}

	// Yesterday's slots are gone; the day boundary is the reset.
	if item.DailySet.Date != s.Today() {
		return nil, ErrStaleDailySet
	}

	if _, err := questRepo.FindCompletion(item.ID, userID); err == nil {
		return nil, ErrAlreadyCompleted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check completion: %w", err)
	}

	var result *CompleteResult
	err = s.db.Transaction(func(tx *gorm.DB) error {
		completion := &models.QuestCompletion{
			DailyItemID: item.ID,
			UserID:      userID,
			CompletedAt: time.Now(),
		}
		if err := repository.NewQuestRepository(tx).CreateCompletion(completion); err != nil {
			// Simultaneous taps on the same slot: one insert wins, the
			// other surfaces as a duplicate and must not accrue points.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyCompleted
			}
			return fmt.Errorf("failed to create completion: %w", err)
		}

		gained := item.Quest.Points
		accrual, err := s.teams.AccruePointsTx(tx, team.ID, gained)
		if err != nil {
			return err
		}

		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}

		message := fmt.Sprintf("%sさんが「%s」を達成！+%dpt", user.DisplayName, item.Quest.Name, gained)
		if _, err := s.notifications.PublishTx(tx, team.ID, models.NotificationMemberCompleted, message, &userID); err != nil {
			return err
		}

		if accrual.RankChanged() {
			message := fmt.Sprintf("チームランクが %s → %s に上がりました！", accrual.RankBefore, accrual.RankAfter)
			if _, err := s.notifications.PublishTx(tx, team.ID, models.NotificationTeamRankUp, message, nil); err != nil {
				return err
			}
		}

		result = &CompleteResult{
			Completion:   completion,
			GainedPoints: gained,
			TotalPoints:  accrual.TotalPoints,
			RankBefore:   accrual.RankBefore,
			RankAfter:    accrual.RankAfter,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// TodayProgress returns today's set with per-slot completion counts and the
// viewer's own done flags.
func (s *QuestService) TodayProgress(userID uint64) (*ProgressResult, error) {
	team, _, err := s.teams.GetTeamForUser(userID)
	if err != nil {
		return nil, err
	}

	set, items, err := s.EnsureDailySet(team, s.Today())
	if err != nil {
		return nil, err
	}

	questRepo := repository.NewQuestRepository(s.db)
	counts, err := questRepo.CompletionCountsByItem(set.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completions: %w", err)
	}
	mine, err := questRepo.UserCompletedItemIDs(set.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load own completions: %w", err)
	}
	byUser, err := questRepo.CompletionCountsByUser(set.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completers: %w", err)
	}

	progress := make([]ProgressItem, len(items))
	for i, item := range items {
		progress[i] = ProgressItem{
			Item:           item,
			CompletedCount: counts[item.ID],
			MemberCount:    team.MemberCount,
			CompletedByMe:  mine[item.ID],
		}
	}

	achieved := 0
	for _, c := range byUser {
		if c >= len(items) {
			achieved++
		}
	}

	return &ProgressResult{
		Set:     set,
		Items:   progress,
		Comment: TeamMoodComment(achieved, team.MemberCount, set.Difficulty),
	}, nil
}

// TodayMVP returns today's top scorer for the user's team.
func (s *QuestService) TodayMVP(userID uint64) (*MVPResult, error) {
	team, _, err := s.teams.GetTeamForUser(userID)
	if err != nil {
		return nil, err
	}

	set, _, err := s.EnsureDailySet(team, s.Today())
	if err != nil {
		return nil, err
	}

	top, err := repository.NewQuestRepository(s.db).TopScorerForSet(set.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &MVPResult{Set: set}, nil
		}
		return nil, fmt.Errorf("failed to find top scorer: %w", err)
	}

	user, err := repository.NewUserRepository(s.db).FindByID(top.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mvp user: %w", err)
	}

	first := top.FirstCompletedAt
	return &MVPResult{
		User:             user,
		TotalPoints:      top.TotalPoints,
		FirstCompletedAt: &first,
		Set:              set,
	}, nil
}

func (s *QuestService) dailyMessage(team *models.Team, difficulty models.QuestDifficulty, picked []models.Quest) (string, string) {
	if s.ai == nil {
		return FallbackDailyMessage(difficulty), models.GeneratedByLogic
	}

	names := make([]string, len(picked))
	for i, q := range picked {
		names[i] = q.Name
	}

	message, err := s.ai.DailyReadyMessage(context.Background(), team.Name, team.Rank, difficulty, names)
	if err != nil {
		log.Printf("AI daily message failed for team %d, using template: %v", team.ID, err)
		return FallbackDailyMessage(difficulty), models.GeneratedByLogic
	}
	return message, models.GeneratedByAI
}

// dailySeed derives the selection seed from (team, date) so that repeated
// generation attempts within the same day draw the same quests.
func dailySeed(teamID uint64, date string) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d:%s", teamID, date)
	return int64(h.Sum64())
}

// pickQuests draws n distinct quests with a seeded shuffle.
func pickQuests(candidates []models.Quest, n int, seed int64) []models.Quest {
	shuffled := make([]models.Quest, len(candidates))
	copy(shuffled, candidates)

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}
