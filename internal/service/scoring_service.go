package service

import (
	"quiz_nft_backend/internal/model"
	"quiz_nft_backend/internal/util"
	"quiz_nft_backend/pkg/logger"

	"go.uber.org/zap"
)

// ScoringService 纯函数评分引擎：答案集合 → (结果类别, 总分)，无任何 I/O
type ScoringService struct{}

func NewScoringService() *ScoringService {
	return &ScoringService{}
}

// Score 按类别累加所选答案的权重，累计权重最高的类别胜出
//
// 平局规则：多个类别并列最高时，取累加遍历中最先出现的类别。
// 遍历顺序由 answerIDs 的传入顺序决定，同样的输入永远得到同样的输出。
func (s *ScoringService) Score(quiz *model.Quiz, answerIDs []uint) (string, int, error) {
	if len(answerIDs) == 0 {
		return "", 0, util.ErrEmptyAnswerSet
	}

	answerMap := make(map[uint]*model.Answer)
	for qi := range quiz.Questions {
		for ai := range quiz.Questions[qi].Answers {
			a := &quiz.Questions[qi].Answers[ai]
			answerMap[a.ID] = a
		}
	}

	for _, id := range answerIDs {
		if _, ok := answerMap[id]; !ok {
			logger.Log.Warn("answer id does not belong to quiz",
				zap.Uint("quizId", quiz.ID),
				zap.Uint("answerId", id))
			return "", 0, util.ErrInvalidAnswerSet
		}
	}

	// 累加权重；order 记录类别首次出现的次序，用于平局判定
	scores := make(map[string]int)
	order := make([]string, 0, 4)
	for _, id := range answerIDs {
		answer := answerMap[id]
		if _, seen := scores[answer.ResultType]; !seen {
			order = append(order, answer.ResultType)
		}
		scores[answer.ResultType] += answer.Weight
	}

	winner := order[0]
	for _, category := range order[1:] {
		if scores[category] > scores[winner] {
			winner = category
		}
	}

	return winner, scores[winner], nil
}
