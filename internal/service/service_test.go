package service

import (
	"os"
	"testing"
	"time"

	"quiz_nft_backend/internal/config"
	"quiz_nft_backend/internal/model"
	"quiz_nft_backend/pkg/database"
	"quiz_nft_backend/pkg/logger"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		Payment: config.PaymentConfig{
			StarsEnabled: true,
			TonEnabled:   true,
			StarsPrice:   50,
			TonPrice:     0.5,
		},
		Telegram: config.TelegramConfig{BotName: "quiz_nft_bot"},
		NFT: config.NFTConfig{
			MaxRetries:  3,
			StepTimeout: 5 * time.Second,
		},
		TON: config.TONConfig{
			Network:           "testnet",
			WalletAddress:     "EQtest-wallet",
			CollectionAddress: "EQtest-collection",
			MinBalanceTON:     0.05,
		},
	}
}

func seedUser(t *testing.T, db *gorm.DB, telegramID int64) *model.User {
	t.Helper()
	user := &model.User{
		TelegramID: telegramID,
		Username:   "tester",
		FirstName:  "Test",
		LastSeen:   time.Now(),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// seedHouseQuiz 三道题、每题四个选项的分院测验，权重各不相同
func seedHouseQuiz(t *testing.T, db *gorm.DB) *model.Quiz {
	t.Helper()

	quiz := &model.Quiz{Title: "Hogwarts House Quiz", IsActive: true}
	require.NoError(t, db.Create(quiz).Error)

	houses := []struct {
		key   string
		title string
	}{
		{"gryffindor", "Gryffindor"},
		{"slytherin", "Slytherin"},
		{"ravenclaw", "Ravenclaw"},
		{"hufflepuff", "Hufflepuff"},
	}
	for _, h := range houses {
		require.NoError(t, db.Create(&model.ResultType{
			QuizID:      quiz.ID,
			TypeKey:     h.key,
			Title:       h.title,
			Description: "You belong to " + h.title,
		}).Error)
	}

	for qi := 0; qi < 3; qi++ {
		question := &model.Question{QuizID: quiz.ID, Text: "Question", OrderIndex: qi}
		require.NoError(t, db.Create(question).Error)
		for ai, h := range houses {
			require.NoError(t, db.Create(&model.Answer{
				QuestionID: question.ID,
				Text:       h.title + " answer",
				ResultType: h.key,
				Weight:     2,
				OrderIndex: ai,
			}).Error)
		}
	}

	var loaded model.Quiz
	require.NoError(t, db.
		Preload("Questions.Answers").
		Preload("Questions").
		Preload("ResultTypes").
		First(&loaded, quiz.ID).Error)
	return &loaded
}

// answersFor 按题序取指定类别的答案 ID
func answersFor(t *testing.T, quiz *model.Quiz, categories ...string) []uint {
	t.Helper()
	require.Len(t, categories, len(quiz.Questions))

	ids := make([]uint, 0, len(categories))
	for qi, category := range categories {
		found := false
		for _, a := range quiz.Questions[qi].Answers {
			if a.ResultType == category {
				ids = append(ids, a.ID)
				found = true
				break
			}
		}
		require.True(t, found, "no %s answer in question %d", category, qi)
	}
	return ids
}

func seedResult(t *testing.T, db *gorm.DB, userID, quizID uint, resultType string) *model.QuizResult {
	t.Helper()
	result := &model.QuizResult{
		UserID:      userID,
		QuizID:      quizID,
		AnswersData: []byte(`{"answer_ids":[1,2,3]}`),
		ResultType:  resultType,
		Score:       6,
		CompletedAt: time.Now(),
	}
	require.NoError(t, db.Create(result).Error)
	return result
}
