package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/team17/gbase-api/internal/models"
)

// AIService wraps the text-generation collaborator that writes the daily
// feed messages. Every caller must treat a failure here as non-fatal and
// fall back to a template; set creation and notification publication never
// depend on this service succeeding.
type AIService struct {
	client *openai.Client
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
	}
}

const aiRequestTimeout = 5 * time.Second

// DailyReadyMessage asks the model for a short hype message announcing the
// day's quest set to the team feed.
func (s *AIService) DailyReadyMessage(ctx context.Context, teamName string, rank models.TeamRank, difficulty models.QuestDifficulty, questNames []string) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("OpenAI client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, aiRequestTimeout)
	defer cancel()

	prompt := fmt.Sprintf(`あなたはフィットネスアプリのコーチです。チームの今日のクエスト発表メッセージを1文だけ書いてください。

チーム名: %s
チームランク: %s
今日の難易度: %s
今日のクエスト: %s

注意事項:
- 10代向けの軽いトーンで、絵文字は使わない
- 50文字以内の日本語1文のみを返す
- 説明文やクエスト名の列挙は含めない`,
		teamName, rank, difficulty, strings.Join(questNames, " / "))

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.7,
		},
	)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	message := strings.TrimSpace(resp.Choices[0].Message.Content)
	if message == "" {
		return "", fmt.Errorf("empty message from OpenAI")
	}
	return message, nil
}

// FallbackDailyMessage is the fixed template used when the AI collaborator
// is unavailable or fails.
func FallbackDailyMessage(difficulty models.QuestDifficulty) string {
	switch difficulty {
	case models.DifficultyHard:
		return "今日のクエストが届きました。上級の日。無理せず、でも一歩だけ前へ。"
	case models.DifficultyNormal:
		return "今日のクエストが届きました。中級いける日。フォーム意識していこう。"
	default:
		return "今日のクエストが届きました。初級でもOK。続けた人が勝つ。"
	}
}

// TeamMoodComment reads the room on the progress screen: achievedCount is
// the number of members who finished every slot of today's set.
func TeamMoodComment(achievedCount, memberCount int, difficulty models.QuestDifficulty) string {
	if memberCount <= 0 {
		return "今日も少しずつ積み上げよう"
	}

	if achievedCount >= memberCount-1 && memberCount >= 2 && achievedCount > 0 {
		if achievedCount >= memberCount {
			return "全員達成！今日のチームは完璧。"
		}
		return "あと1人で全員達成！誰か忘れてない？"
	}
	if achievedCount == 0 {
		return "今日はちょっと静かだね。軽めのストレッチからいこう"
	}
	if achievedCount == 1 && memberCount >= 4 {
		return "1人目えらい。次いこう、空気作ろう。"
	}

	switch difficulty {
	case models.DifficultyHard:
		return "今日は上級。無理せず、でも一歩だけ前へ。"
	case models.DifficultyNormal:
		return "中級いける日。フォーム意識していこう。"
	default:
		return "初級でもOK。続けた人が勝つ。"
	}
}
