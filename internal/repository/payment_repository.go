package repository

import (
	"errors"
	"strings"
	"time"

	"quiz_nft_backend/internal/model"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	DB *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

// IsUniqueViolation 各方言的唯一约束冲突报错不一致，统一在这里判定
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// Create 写入新支付并占用结果上的活跃位（active_result_id 唯一索引）
// 并发创建时后到者收到唯一约束冲突，由调用方重查胜出行
func (r *PaymentRepository) Create(payment *model.Payment) error {
	if payment.Status == "" {
		payment.Status = model.PaymentStatusPending
	}
	payment.ActiveResultID = &payment.ResultID
	return r.DB.Create(payment).Error
}

func (r *PaymentRepository) FindByID(id uint) (*model.Payment, error) {
	var payment model.Payment
	err := r.DB.First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindActiveByResult 查找结果上处于 pending/paid 的支付，至多一条
func (r *PaymentRepository) FindActiveByResult(resultID uint) (*model.Payment, error) {
	var payment model.Payment
	err := r.DB.Where("result_id = ? AND status IN ?", resultID,
		[]string{model.PaymentStatusPending, model.PaymentStatusPaid}).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) FindLatestByResult(resultID uint) (*model.Payment, error) {
	var payment model.Payment
	err := r.DB.Where("result_id = ?", resultID).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) FindByUser(userID uint, status string) ([]model.Payment, error) {
	query := r.DB.Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var payments []model.Payment
	err := query.Order("created_at DESC").Find(&payments).Error
	return payments, err
}

// MarkPaid 置为已支付。paid_at 只在首次确认时写入，重复回调不改变任何字段
func (r *PaymentRepository) MarkPaid(payment *model.Payment, telegramChargeID, providerChargeID string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":                     model.PaymentStatusPaid,
			"telegram_payment_charge_id": telegramChargeID,
			"provider_payment_id":        providerChargeID,
		}
		if payment.PaidAt == nil {
			now := time.Now()
			updates["paid_at"] = now
			payment.PaidAt = &now
		}
		if err := tx.Model(payment).Updates(updates).Error; err != nil {
			return err
		}
		payment.Status = model.PaymentStatusPaid
		payment.TelegramPaymentChargeID = telegramChargeID
		payment.ProviderPaymentID = providerChargeID
		return nil
	})
}

// MarkFailed 释放活跃位，之后同一结果可以重新发起支付
func (r *PaymentRepository) MarkFailed(payment *model.Payment) error {
	payment.Status = model.PaymentStatusFailed
	payment.ActiveResultID = nil
	return r.DB.Model(payment).Updates(map[string]interface{}{
		"status":           model.PaymentStatusFailed,
		"active_result_id": nil,
	}).Error
}

// MarkRefunded 退款同样释放活跃位
func (r *PaymentRepository) MarkRefunded(payment *model.Payment) error {
	payment.Status = model.PaymentStatusRefunded
	payment.ActiveResultID = nil
	return r.DB.Model(payment).Updates(map[string]interface{}{
		"status":           model.PaymentStatusRefunded,
		"active_result_id": nil,
	}).Error
}
