package service

import (
	"context"
	"errors"
	"math"

	"quiz_nft_backend/internal/config"
	"quiz_nft_backend/internal/model"
	"quiz_nft_backend/internal/repository"
	"quiz_nft_backend/internal/util"
	"quiz_nft_backend/pkg/logger"
	"quiz_nft_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StarsInvoice Telegram Stars 发票描述，bot 层原样转给 sendInvoice
type StarsInvoice struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Payload       string `json:"payload"`
	ProviderToken string `json:"providerToken"` // Stars 留空
	Currency      string `json:"currency"`      // XTR
	PriceLabel    string `json:"priceLabel"`
	Amount        int64  `json:"amount"`
}

// PaymentService 支付台账：创建/校验/流转支付记录，
// 持有"每结果至多一条活跃支付"不变式
type PaymentService struct {
	PaymentRepo *repository.PaymentRepository
	ResultRepo  *repository.ResultRepository
	Quota       *QuotaService
	Config      *config.Config
}

func NewPaymentService(paymentRepo *repository.PaymentRepository, resultRepo *repository.ResultRepository, quota *QuotaService, cfg *config.Config) *PaymentService {
	return &PaymentService{
		PaymentRepo: paymentRepo,
		ResultRepo:  resultRepo,
		Quota:       quota,
		Config:      cfg,
	}
}

func (s *PaymentService) providerAmount(provider string) (int64, string, error) {
	switch provider {
	case model.ProviderTelegramStars:
		if !s.Config.Payment.StarsEnabled {
			return 0, "", util.ErrProviderDisabled
		}
		return s.Config.Payment.StarsPrice, "STARS", nil
	case model.ProviderTonConnect:
		if !s.Config.Payment.TonEnabled {
			return 0, "", util.ErrProviderDisabled
		}
		// TON 定价是小数，入库换算为 nanoton
		return int64(math.Round(s.Config.Payment.TonPrice * nanotonPerTon)), "TON", nil
	default:
		return 0, "", util.ErrInvalidProvider
	}
}

// CreateMintPayment 为结果创建铸造支付；同一结果已有活跃支付时原样返回既有记录。
// 应用层先查一次，数据库唯一索引兜底：撞上约束冲突就重查并返回胜出行
func (s *PaymentService) CreateMintPayment(ctx context.Context, userID, resultID uint, provider string) (*model.Payment, error) {
	amount, currency, err := s.providerAmount(provider)
	if err != nil {
		return nil, err
	}

	result, err := s.ResultRepo.FindByID(resultID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrResultNotFound
		}
		return nil, err
	}
	if result.UserID != userID {
		return nil, util.ErrResultNotOwned
	}
	if result.NFTMinted {
		return nil, util.ErrAlreadyMinted
	}

	if existing, err := s.PaymentRepo.FindActiveByResult(resultID); err == nil {
		logger.Log.Info("returning existing payment",
			zap.Uint("paymentId", existing.ID),
			zap.Uint("resultId", resultID))
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if !s.Quota.Allow(ctx, "mint", userID, s.Config.Payment.MintsPerDay) {
		return nil, util.ErrDailyMintLimit
	}

	payment := &model.Payment{
		UserID:   userID,
		ResultID: resultID,
		Amount:   amount,
		Currency: currency,
		Status:   model.PaymentStatusPending,
		Provider: provider,
	}

	if err := s.PaymentRepo.Create(payment); err != nil {
		if repository.IsUniqueViolation(err) {
			// 并发竞态：另一请求先建了支付，后到者优雅认输返回胜出行
			winner, qerr := s.PaymentRepo.FindActiveByResult(resultID)
			if qerr == nil {
				logger.Log.Info("payment race detected, returning winner",
					zap.Uint("paymentId", winner.ID),
					zap.Uint("resultId", resultID))
				return winner, nil
			}
		}
		return nil, err
	}

	monitoring.PaymentCounter.WithLabelValues(provider, "created").Inc()
	logger.Log.Info("payment created",
		zap.Uint("paymentId", payment.ID),
		zap.Uint("userId", userID),
		zap.Uint("resultId", resultID),
		zap.Int64("amount", amount),
		zap.String("currency", currency))
	return payment, nil
}

// BuildStarsInvoice 生成 Stars 发票描述，payload 编码 payment/result 对
func (s *PaymentService) BuildStarsInvoice(payment *model.Payment, title, description string) (*StarsInvoice, error) {
	if payment.Currency != "STARS" {
		return nil, util.ErrInvalidProvider
	}
	return &StarsInvoice{
		Title:         title,
		Description:   description,
		Payload:       util.EncodeMintPayload(payment.ID, payment.ResultID),
		ProviderToken: "",
		Currency:      "XTR",
		PriceLabel:    "NFT Minting Fee",
		Amount:        payment.Amount,
	}, nil
}

// HandlePreCheckout 扣款前校验：支付存在、归属一致、仍为 pending、结果未被铸造
func (s *PaymentService) HandlePreCheckout(payload string) (bool, string) {
	paymentID, resultID, err := util.DecodeMintPayload(payload)
	if err != nil {
		return false, "Invalid invoice payload"
	}

	payment, err := s.PaymentRepo.FindByID(paymentID)
	if err != nil {
		return false, "Payment not found"
	}
	if payment.ResultID != resultID {
		return false, "Payment result mismatch"
	}
	if payment.Status != model.PaymentStatusPending {
		return false, "Payment status is " + payment.Status + ", expected pending"
	}

	result, err := s.ResultRepo.FindByID(resultID)
	if err != nil {
		return false, "Quiz result not found"
	}
	if result.NFTMinted {
		return false, "NFT already minted for this result"
	}

	logger.Log.Info("pre-checkout validated",
		zap.Uint("paymentId", paymentID),
		zap.Uint("resultId", resultID))
	return true, ""
}

// ConfirmPayment 支付成功回调。提供方至少一次投递，重复回调必须是
// 无副作用的读回：已 paid 直接返回，paid_at 只在首次确认写入
func (s *PaymentService) ConfirmPayment(payload, telegramChargeID, providerChargeID string) (*model.Payment, error) {
	paymentID, _, err := util.DecodeMintPayload(payload)
	if err != nil {
		return nil, err
	}

	payment, err := s.PaymentRepo.FindByID(paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPaymentNotFound
		}
		return nil, err
	}

	if payment.Status == model.PaymentStatusPaid {
		logger.Log.Warn("payment already marked as paid", zap.Uint("paymentId", paymentID))
		return payment, nil
	}

	if err := s.PaymentRepo.MarkPaid(payment, telegramChargeID, providerChargeID); err != nil {
		return nil, err
	}

	monitoring.PaymentCounter.WithLabelValues(payment.Provider, "confirmed").Inc()
	logger.Log.Info("payment confirmed",
		zap.Uint("paymentId", paymentID),
		zap.String("telegramChargeId", telegramChargeID))
	return payment, nil
}

// MarkPaymentFailed 支付失败，释放结果上的活跃位
func (s *PaymentService) MarkPaymentFailed(paymentID uint, reason string) error {
	payment, err := s.PaymentRepo.FindByID(paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Warn("payment not found for failure marking", zap.Uint("paymentId", paymentID))
			return nil
		}
		return err
	}

	if err := s.PaymentRepo.MarkFailed(payment); err != nil {
		return err
	}

	monitoring.PaymentCounter.WithLabelValues(payment.Provider, "failed").Inc()
	logger.Log.Info("payment marked as failed",
		zap.Uint("paymentId", paymentID),
		zap.String("reason", reason))
	return nil
}

// RefundPayment 只允许 paid → refunded
func (s *PaymentService) RefundPayment(paymentID uint) (*model.Payment, error) {
	payment, err := s.PaymentRepo.FindByID(paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPaymentNotFound
		}
		return nil, err
	}

	if payment.Status != model.PaymentStatusPaid {
		return nil, util.ErrInvalidStateTransition
	}

	if err := s.PaymentRepo.MarkRefunded(payment); err != nil {
		return nil, err
	}

	monitoring.PaymentCounter.WithLabelValues(payment.Provider, "refunded").Inc()
	logger.Log.Info("payment refunded", zap.Uint("paymentId", paymentID))
	return payment, nil
}

func (s *PaymentService) GetUserPayments(userID uint, status string) ([]model.Payment, error) {
	return s.PaymentRepo.FindByUser(userID, status)
}

func (s *PaymentService) GetPaymentByResult(resultID uint) (*model.Payment, error) {
	payment, err := s.PaymentRepo.FindLatestByResult(resultID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}
