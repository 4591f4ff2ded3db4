package service

import (
	"context"
	"testing"

	"quiz_nft_backend/internal/model"
	"quiz_nft_backend/internal/repository"
	"quiz_nft_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPaymentService(t *testing.T, db *gorm.DB) *PaymentService {
	t.Helper()
	return NewPaymentService(
		repository.NewPaymentRepository(db),
		repository.NewResultRepository(db),
		NewQuotaService(nil),
		newTestConfig(),
	)
}

func TestCreateMintPaymentStars(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, 1001)
	quiz := seedHouseQuiz(t, db)
	result := seedResult(t, db, user.ID, quiz.ID, "gryffindor")
	svc := newPaymentService(t, db)

	payment, err := svc.CreateMintPayment(context.Background(), user.ID, result.ID, model.ProviderTelegramStars)
	require.NoError(t, err)
	assert.Equal(t, int64(50), payment.Amount)
	assert.Equal(t, "STARS", payment.Currency)
	assert.Equal(t, model.PaymentStatusPending, payment.Status)
	require.NotNil(t, payment.ActiveResultID)
	assert.Equal(t, result.ID, *payment.ActiveResultID)
}

func TestCreateMintPaymentTonConvertsToNanoton(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, 1002)
	quiz := seedHouseQuiz(t, db)
	result := seedResult(t, db, user.ID, quiz.ID, "slytherin")
	svc := newPaymentService(t, db)

	payment, err := svc.CreateMintPayment(context.Background(), user.ID, result.ID, model.ProviderTonConnect)
	require.NoError(t, err)
	assert.Equal(t, int64(500000000), payment.Amount)
	assert.Equal(t, "TON", payment.Currency)
}

func TestCreateMintPaymentProviderValidation(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, 1003)
	quiz := seedHouseQuiz(t, db)
	result := seedResult(t, db, user.ID, quiz.ID, "ravenclaw")

	svc := newPaymentService(t, db)
	_, err := svc.CreateMintPayment(context.Background(), user.ID, result.ID, "paypal")
	assert.ErrorIs(t, err, util.ErrInvalidProvider)

	svc.Config.Payment.TonEnabled = false
	_, err = svc.CreateMintPayment(context.Background(), user.ID, result.ID, model.ProviderTonConnect)
	assert.ErrorIs(t, err, util.ErrProviderDisabled)
}

func TestCreateMintPaymentGuards(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, 1004)
	other := seedUser(t, db, 1005)
	quiz := seedHouseQuiz(t, db)
	result := seedResult(t, db, user.ID, quiz.ID, "hufflepuff")
	svc := newPaymentService(t, db)

	_, err := svc.CreateMintPayment(context.Background(), user.ID, 99999, model.ProviderTelegramStars)
	assert.ErrorIs(t, err, util.ErrResultNotFound)

	_, err = svc.CreateMintPayment(context.Background(), other.ID, result.ID, model.ProviderTelegramStars)
	assert.ErrorIs(t, err, util.ErrResultNotOwned)

	require.NoError(t, db.Model(result).Update("nft_minted", true).Error)
	_, err = svc.CreateMintPayment(context.Background(), user.ID, result.ID, model.ProviderTelegramStars)
	assert.ErrorIs(t, err, util.ErrAlreadyMinted)
}

func TestCreateMintPaymentDuplicateReturnsExisting(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, 1006)
	quiz := seedHouseQuiz(t, db)
	result := seedResult(t, db, user.ID, quiz.ID, "gryffindor")
	svc := newPaymentService(t, db)

	first, err := svc.CreateMintPayment(context.Background(), user.ID, result.ID, model.ProviderTelegramStars)
	require.NoError(t, err)

	second, err := svc.CreateMintPayment(context.Background(), user.ID, result.ID, model.ProviderTelegramStars)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&model.Payment{}).Where("result_id = ?", result.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestActiveSlotUniqueConstraint(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, 1007)
	quiz := seedHouseQuiz(t, db)
	result := seedResult(t, db, user.ID, quiz.ID, "slytherin")
	repo := repository.NewPaymentRepository(db)

	require.NoError(t, repo.Create(&model.Payment{
		UserID: user.ID, ResultID: result.ID,
		Amount: 50, Currency: "STARS", Provider: model.ProviderTelegramStars,
	}))

	// 并发竞态的数据库兜底：第二次插入撞唯一索引
	err := repo.Create(&model.Payment{
		UserID: user.ID, ResultID: result.ID,
		Amount: 50, Currency: "STARS", Provider: model.ProviderTelegramStars,
	})
	require.Error(t, err)
	assert.True(t, repository.IsUniqueViolation(err))
}

func TestConfirmPaymentIdempotent(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, 1008)
	quiz := seedHouseQuiz(t, db)
	result := seedResult(t, db, user.ID, quiz.ID, "ravenclaw")
	svc := newPaymentService(t, db)

	payment, err := svc.CreateMintPayment(context.Background(), user.ID, result.ID, model.ProviderTelegramStars)
	require.NoError(t, err)

	payload := util.EncodeMintPayload(payment.ID, result.ID)
	confirmed, err := svc.ConfirmPayment(payload, "tg_charge_1", "provider_charge_1")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, confirmed.Status)
	require.NotNil(t, confirmed.PaidAt)
	firstPaidAt := *confirmed.PaidAt

	// 重复回调：状态与 paid_at 都不变
	again, err := svc.ConfirmPayment(payload, "tg_charge_dup", "provider_charge_dup")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPaid, again.Status)
	require.NotNil(t, again.PaidAt)
	assert.True(t, again.PaidAt.Equal(firstPaidAt))
	assert.Equal(t, "tg_charge_1", again.TelegramPaymentChargeID)
}

func TestConfirmPaymentMalformedPayload(t *testing.T) {
	db := newTestDB(t)
	svc := newPaymentService(t, db)

	_, err := svc.ConfirmPayment("not_a_mint_payload", "", "")
	assert.ErrorIs(t, err, util.ErrMalformedPayload)
}

func TestPreCheckout(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, 1009)
	quiz := seedHouseQuiz(t, db)
	result := seedResult(t, db, user.ID, quiz.ID, "hufflepuff")
	svc := newPaymentService(t, db)

	payment, err := svc.CreateMintPayment(context.Background(), user.ID, result.ID, model.ProviderTelegramStars)
	require.NoError(t, err)
	payload := util.EncodeMintPayload(payment.ID, result.ID)

	ok, reason := svc.HandlePreCheckout(payload)
	assert.True(t, ok)
	assert.Empty(t, reason)

	ok, reason = svc.HandlePreCheckout("garbage")
	assert.False(t, ok)
	assert.NotEmpty(t, reason)

	// 已支付的订单不允许再次扣款
	_, err = svc.ConfirmPayment(payload, "tg1", "p1")
	require.NoError(t, err)
	ok, _ = svc.HandlePreCheckout(payload)
	assert.False(t, ok)
}

func TestRefundPayment(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, 1010)
	quiz := seedHouseQuiz(t, db)
	result := seedResult(t, db, user.ID, quiz.ID, "gryffindor")
	svc := newPaymentService(t, db)

	payment, err := svc.CreateMintPayment(context.Background(), user.ID, result.ID, model.ProviderTelegramStars)
	require.NoError(t, err)

	// pending 不允许退款
	_, err = svc.RefundPayment(payment.ID)
	assert.ErrorIs(t, err, util.ErrInvalidStateTransition)

	payload := util.EncodeMintPayload(payment.ID, result.ID)
	_, err = svc.ConfirmPayment(payload, "tg1", "p1")
	require.NoError(t, err)

	refunded, err := svc.RefundPayment(payment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusRefunded, refunded.Status)

	// 退款释放活跃位，同一结果可以再次发起支付
	replacement, err := svc.CreateMintPayment(context.Background(), user.ID, result.ID, model.ProviderTelegramStars)
	require.NoError(t, err)
	assert.NotEqual(t, payment.ID, replacement.ID)
}

func TestFailedPaymentFreesActiveSlot(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, 1011)
	quiz := seedHouseQuiz(t, db)
	result := seedResult(t, db, user.ID, quiz.ID, "slytherin")
	svc := newPaymentService(t, db)

	payment, err := svc.CreateMintPayment(context.Background(), user.ID, result.ID, model.ProviderTelegramStars)
	require.NoError(t, err)

	require.NoError(t, svc.MarkPaymentFailed(payment.ID, "card declined"))

	replacement, err := svc.CreateMintPayment(context.Background(), user.ID, result.ID, model.ProviderTelegramStars)
	require.NoError(t, err)
	assert.NotEqual(t, payment.ID, replacement.ID)
}
