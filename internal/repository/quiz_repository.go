package repository

import (
	"quiz_nft_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) FindActive() ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.DB.Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&quizzes).Error
	return quizzes, err
}

// FindByIDWithQuestions 连同题目、选项、结果类别一次载入，评分引擎需要完整结构
func (r *QuizRepository) FindByIDWithQuestions(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.order_index ASC")
		}).
		Preload("Questions.Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.order_index ASC")
		}).
		Preload("ResultTypes").
		First(&quiz, id).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) FindResultType(quizID uint, typeKey string) (*model.ResultType, error) {
	var rt model.ResultType
	err := r.DB.Where("quiz_id = ? AND type_key = ?", quizID, typeKey).First(&rt).Error
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *QuizRepository) CountQuestions(quizID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Question{}).Where("quiz_id = ?", quizID).Count(&count).Error
	return count, err
}
