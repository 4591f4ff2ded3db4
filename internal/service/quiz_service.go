package service

import (
	"context"
	"encoding/json"
	"errors"

	"quiz_nft_backend/internal/config"
	"quiz_nft_backend/internal/model"
	"quiz_nft_backend/internal/repository"
	"quiz_nft_backend/internal/util"
	"quiz_nft_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuizService 测验目录与结果持久化，评分委托给 ScoringService
type QuizService struct {
	QuizRepo   *repository.QuizRepository
	ResultRepo *repository.ResultRepository
	UserRepo   *repository.UserRepository
	Scoring    *ScoringService
	Quota      *QuotaService
	Config     *config.Config
}

func NewQuizService(quizRepo *repository.QuizRepository, resultRepo *repository.ResultRepository, userRepo *repository.UserRepository, scoring *ScoringService, quota *QuotaService, cfg *config.Config) *QuizService {
	return &QuizService{
		QuizRepo:   quizRepo,
		ResultRepo: resultRepo,
		UserRepo:   userRepo,
		Scoring:    scoring,
		Quota:      quota,
		Config:     cfg,
	}
}

func (s *QuizService) GetActiveQuizzes() ([]model.Quiz, error) {
	return s.QuizRepo.FindActive()
}

func (s *QuizService) GetQuizByID(id uint) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindByIDWithQuestions(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	return quiz, nil
}

// SubmitAnswers 评分并持久化结果
func (s *QuizService) SubmitAnswers(ctx context.Context, userID, quizID uint, answerIDs []uint) (*model.QuizResult, error) {
	quiz, err := s.GetQuizByID(quizID)
	if err != nil {
		return nil, err
	}

	if !s.Quota.Allow(ctx, "quiz", userID, s.Config.Payment.QuizzesPerDay) {
		return nil, util.ErrDailyQuizLimit
	}

	resultType, score, err := s.Scoring.Score(quiz, answerIDs)
	if err != nil {
		return nil, err
	}

	answersData, err := json.Marshal(map[string][]uint{"answer_ids": answerIDs})
	if err != nil {
		return nil, err
	}

	result := &model.QuizResult{
		UserID:      userID,
		QuizID:      quizID,
		AnswersData: answersData,
		ResultType:  resultType,
		Score:       score,
	}
	if err := s.ResultRepo.Create(result); err != nil {
		return nil, err
	}

	// 异步刷新活跃时间，不阻塞主流程
	go s.UserRepo.UpdateLastSeen(userID)

	logger.Log.Info("quiz result saved",
		zap.Uint("resultId", result.ID),
		zap.Uint("userId", userID),
		zap.Uint("quizId", quizID),
		zap.String("resultType", resultType),
		zap.Int("score", score))
	return result, nil
}

func (s *QuizService) GetUserResults(userID uint, limit int) ([]model.QuizResult, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.ResultRepo.FindByUser(userID, limit)
}

func (s *QuizService) GetResultTypeInfo(quizID uint, typeKey string) (*model.ResultType, error) {
	rt, err := s.QuizRepo.FindResultType(quizID, typeKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rt, nil
}
