package repository

import (
	"time"

	"quiz_nft_backend/internal/model"

	"gorm.io/gorm"
)

type ResultRepository struct {
	DB *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{DB: db}
}

func (r *ResultRepository) Create(result *model.QuizResult) error {
	if result.CompletedAt.IsZero() {
		result.CompletedAt = time.Now()
	}
	return r.DB.Create(result).Error
}

func (r *ResultRepository) FindByID(id uint) (*model.QuizResult, error) {
	var result model.QuizResult
	err := r.DB.First(&result, id).Error
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultRepository) FindByUser(userID uint, limit int) ([]model.QuizResult, error) {
	var results []model.QuizResult
	err := r.DB.Where("user_id = ?", userID).
		Order("completed_at DESC").
		Limit(limit).
		Find(&results).Error
	return results, err
}

// MarkMinted 只能由铸造完成事务调用，与 MintTransaction 状态更新同一事务
func (r *ResultRepository) MarkMinted(tx *gorm.DB, resultID uint, nftAddress string) error {
	return tx.Model(&model.QuizResult{}).
		Where("id = ?", resultID).
		Updates(map[string]interface{}{
			"nft_minted":  true,
			"nft_address": nftAddress,
		}).Error
}
