package model

import "time"

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

const (
	ProviderTelegramStars = "telegram_stars"
	ProviderTonConnect    = "ton_connect"
)

// Payment 记录一次为铸造 NFT 发起的付费尝试
//
// ActiveResultID 是"每个结果至多一条活跃支付"约束的落地方式：
// 状态处于 pending/paid 时等于 ResultID 并受唯一索引保护，
// 离开活跃状态后置空（MySQL 不支持部分唯一索引，NULL 不参与唯一性判定）。
// swagger:model Payment
type Payment struct {
	BaseModel
	UserID                  uint       `gorm:"index;not null" json:"userId"`
	ResultID                uint       `gorm:"index;not null" json:"resultId"`
	ActiveResultID          *uint      `gorm:"uniqueIndex" json:"-"`
	Amount                  int64      `gorm:"not null" json:"amount"` // 最小货币单位
	Currency                string     `gorm:"size:10;not null" json:"currency"`
	Status                  string     `gorm:"size:50;default:'pending';not null;index" json:"status"`
	Provider                string     `gorm:"size:50;not null" json:"provider"`
	ProviderPaymentID       string     `gorm:"size:255" json:"providerPaymentId"`
	TelegramPaymentChargeID string     `gorm:"size:255" json:"telegramPaymentChargeId"`
	PaidAt                  *time.Time `json:"paidAt"`
}

func (Payment) TableName() string {
	return "payments"
}

// IsActive 支付是否仍占用结果上的活跃位
func (p *Payment) IsActive() bool {
	return p.Status == PaymentStatusPending || p.Status == PaymentStatusPaid
}
