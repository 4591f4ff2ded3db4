package repository

import (
	"time"

	"quiz_nft_backend/internal/model"

	"gorm.io/gorm"
)

type MintRepository struct {
	DB *gorm.DB
}

func NewMintRepository(db *gorm.DB) *MintRepository {
	return &MintRepository{DB: db}
}

func (r *MintRepository) Create(tx *model.MintTransaction) error {
	if tx.Status == "" {
		tx.Status = model.MintStatusPending
	}
	return r.DB.Create(tx).Error
}

func (r *MintRepository) FindByID(id uint) (*model.MintTransaction, error) {
	var tx model.MintTransaction
	err := r.DB.First(&tx, id).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *MintRepository) FindByResult(resultID uint) (*model.MintTransaction, error) {
	var tx model.MintTransaction
	err := r.DB.Where("result_id = ?", resultID).First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *MintRepository) FindCompletedByUser(userID uint) ([]model.MintTransaction, error) {
	var txs []model.MintTransaction
	err := r.DB.Where("user_id = ? AND status = ?", userID, model.MintStatusCompleted).
		Order("created_at DESC").
		Find(&txs).Error
	return txs, err
}

// UpdateStatus 每个流水线步骤独立落库，崩溃后状态精确反映最后完成的一步
func (r *MintRepository) UpdateStatus(tx *model.MintTransaction, status string) error {
	tx.Status = status
	return r.DB.Model(tx).Update("status", status).Error
}

// MarkFailed 记录错误文本后置为 failed
func (r *MintRepository) MarkFailed(tx *model.MintTransaction, errMsg string) error {
	tx.Status = model.MintStatusFailed
	tx.ErrorMessage = errMsg
	return r.DB.Model(tx).Updates(map[string]interface{}{
		"status":        model.MintStatusFailed,
		"error_message": errMsg,
	}).Error
}

// ResetForRetry 仅由显式重试调用：failed → pending，错误清空，计数 +1
func (r *MintRepository) ResetForRetry(tx *model.MintTransaction) error {
	tx.Status = model.MintStatusPending
	tx.ErrorMessage = ""
	tx.RetryCount++
	return r.DB.Model(tx).Updates(map[string]interface{}{
		"status":        model.MintStatusPending,
		"error_message": "",
		"retry_count":   tx.RetryCount,
	}).Error
}

// Complete 完成铸造：事务内同时落铸造结果与 QuizResult 的 minted 标记
func (r *MintRepository) Complete(tx *model.MintTransaction, nftAddress, txHash, ipfsHash, metadataURI string) error {
	return r.DB.Transaction(func(dbtx *gorm.DB) error {
		now := time.Now()
		if err := dbtx.Model(tx).Updates(map[string]interface{}{
			"status":           model.MintStatusCompleted,
			"nft_address":      nftAddress,
			"transaction_hash": txHash,
			"ipfs_hash":        ipfsHash,
			"metadata_uri":     metadataURI,
			"confirmed_at":     now,
		}).Error; err != nil {
			return err
		}

		if err := dbtx.Model(&model.QuizResult{}).
			Where("id = ?", tx.ResultID).
			Updates(map[string]interface{}{
				"nft_minted":  true,
				"nft_address": nftAddress,
			}).Error; err != nil {
			return err
		}

		tx.Status = model.MintStatusCompleted
		tx.NFTAddress = nftAddress
		tx.TransactionHash = txHash
		tx.IPFSHash = ipfsHash
		tx.MetadataURI = metadataURI
		tx.ConfirmedAt = &now
		return nil
	})
}

// SaveMetadata 元数据快照只写一次，已存在则原样返回既有行
func (r *MintRepository) SaveMetadata(meta *model.NFTMetadata) (*model.NFTMetadata, error) {
	var existing model.NFTMetadata
	err := r.DB.Where("result_id = ?", meta.ResultID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	if err := r.DB.Create(meta).Error; err != nil {
		if IsUniqueViolation(err) {
			if qerr := r.DB.Where("result_id = ?", meta.ResultID).First(&existing).Error; qerr == nil {
				return &existing, nil
			}
		}
		return nil, err
	}
	return meta, nil
}

func (r *MintRepository) FindMetadataByResult(resultID uint) (*model.NFTMetadata, error) {
	var meta model.NFTMetadata
	err := r.DB.Where("result_id = ?", resultID).First(&meta).Error
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

func (r *MintRepository) FindMetadataByAddress(nftAddress string) (*model.NFTMetadata, error) {
	var meta model.NFTMetadata
	err := r.DB.
		Joins("JOIN mint_transactions ON mint_transactions.result_id = nft_metadata.result_id").
		Where("mint_transactions.nft_address = ?", nftAddress).
		First(&meta).Error
	if err != nil {
		return nil, err
	}
	return &meta, nil
}
