package service

import (
	"context"
	"errors"
	"testing"

	"quiz_nft_backend/internal/model"
	"quiz_nft_backend/internal/repository"
	"quiz_nft_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeStorage struct {
	imageErr error
	jsonErr  error
	uploads  int
	unpinned []string
}

func (f *fakeStorage) UploadImage(ctx context.Context, data []byte, filename string) (string, error) {
	if f.imageErr != nil {
		return "", f.imageErr
	}
	f.uploads++
	return "QmImageCID", nil
}

func (f *fakeStorage) UploadJSON(ctx context.Context, document interface{}, name string) (string, error) {
	if f.jsonErr != nil {
		return "", f.jsonErr
	}
	f.uploads++
	return "QmMetaCID", nil
}

func (f *fakeStorage) ResolveURL(cid string) string {
	return "https://gateway.test/ipfs/" + cid
}

func (f *fakeStorage) Unpin(ctx context.Context, cid string) {
	f.unpinned = append(f.unpinned, cid)
}

type fakeWallet struct {
	healthy   bool
	healthErr error
	mintErr   error
	mints     int
}

func (f *fakeWallet) Health(ctx context.Context) (*WalletHealth, error) {
	if f.healthErr != nil {
		return nil, f.healthErr
	}
	return &WalletHealth{Healthy: f.healthy, BalanceTON: 1.5, Status: "active"}, nil
}

func (f *fakeWallet) Mint(ctx context.Context, metadataURI, ownerRef string) (string, string, error) {
	if f.mintErr != nil {
		return "", "", f.mintErr
	}
	f.mints++
	return "EQFakeAddress", "fakehash", nil
}

type fakeNotifier struct {
	succeeded int
	failed    int
	reason    string
}

func (f *fakeNotifier) MintSucceeded(ctx context.Context, telegramID int64, resultID uint, nftAddress, txHash string) {
	f.succeeded++
}

func (f *fakeNotifier) MintFailed(ctx context.Context, telegramID int64, resultID uint, reason string) {
	f.failed++
	f.reason = reason
}

type nftHarness struct {
	db       *gorm.DB
	svc      *NFTService
	storage  *fakeStorage
	wallet   *fakeWallet
	notifier *fakeNotifier
	user     *model.User
	result   *model.QuizResult
	payment  *model.Payment
}

func newNFTHarness(t *testing.T) *nftHarness {
	t.Helper()

	db := newTestDB(t)
	user := seedUser(t, db, 2001)
	quiz := seedHouseQuiz(t, db)
	result := seedResult(t, db, user.ID, quiz.ID, "gryffindor")

	paymentSvc := newPaymentService(t, db)
	payment, err := paymentSvc.CreateMintPayment(context.Background(), user.ID, result.ID, model.ProviderTelegramStars)
	require.NoError(t, err)
	_, err = paymentSvc.ConfirmPayment(util.EncodeMintPayload(payment.ID, result.ID), "tg", "prov")
	require.NoError(t, err)

	storage := &fakeStorage{}
	wallet := &fakeWallet{healthy: true}
	notifier := &fakeNotifier{}

	svc := NewNFTService(
		repository.NewMintRepository(db),
		repository.NewResultRepository(db),
		repository.NewQuizRepository(db),
		repository.NewUserRepository(db),
		repository.NewPaymentRepository(db),
		storage,
		NewImageService(),
		NewMetadataService(newTestConfig()),
		wallet,
		notifier,
		newTestConfig(),
	)

	return &nftHarness{
		db: db, svc: svc,
		storage: storage, wallet: wallet, notifier: notifier,
		user: user, result: result, payment: payment,
	}
}

func TestStartMintSuccess(t *testing.T) {
	h := newNFTHarness(t)

	mintTx, err := h.svc.StartMint(context.Background(), h.user.ID, h.result.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MintStatusCompleted, mintTx.Status)
	assert.Equal(t, "EQFakeAddress", mintTx.NFTAddress)
	assert.Equal(t, "fakehash", mintTx.TransactionHash)
	assert.Equal(t, "QmImageCID", mintTx.IPFSHash)
	require.NotNil(t, mintTx.ConfirmedAt)

	var result model.QuizResult
	require.NoError(t, h.db.First(&result, h.result.ID).Error)
	assert.True(t, result.NFTMinted)
	assert.Equal(t, "EQFakeAddress", result.NFTAddress)

	meta, err := h.svc.GetMetadataByResult(h.result.ID)
	require.NoError(t, err)
	assert.Contains(t, meta.Name, "Gryffindor")
	assert.Contains(t, meta.Name, "Hogwarts House Quiz")

	assert.Equal(t, 1, h.notifier.succeeded)
	assert.Equal(t, 0, h.notifier.failed)
}

func TestStartMintRequiresPayment(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, 2002)
	quiz := seedHouseQuiz(t, db)
	result := seedResult(t, db, user.ID, quiz.ID, "slytherin")

	h := newNFTHarness(t)
	svc := NewNFTService(
		repository.NewMintRepository(db),
		repository.NewResultRepository(db),
		repository.NewQuizRepository(db),
		repository.NewUserRepository(db),
		repository.NewPaymentRepository(db),
		h.storage, NewImageService(), NewMetadataService(newTestConfig()),
		h.wallet, h.notifier, newTestConfig(),
	)

	// 没有任何支付
	_, err := svc.StartMint(context.Background(), user.ID, result.ID)
	assert.ErrorIs(t, err, util.ErrPaymentRequired)

	// 只有 pending 支付
	paymentSvc := newPaymentService(t, db)
	_, err = paymentSvc.CreateMintPayment(context.Background(), user.ID, result.ID, model.ProviderTelegramStars)
	require.NoError(t, err)
	_, err = svc.StartMint(context.Background(), user.ID, result.ID)
	assert.ErrorIs(t, err, util.ErrPaymentRequired)
}

func TestStartMintStorageFailure(t *testing.T) {
	h := newNFTHarness(t)
	h.storage.imageErr = errors.New("pinata 500")

	mintTx, err := h.svc.StartMint(context.Background(), h.user.ID, h.result.ID)
	require.Error(t, err)
	require.NotNil(t, mintTx)
	assert.Equal(t, model.MintStatusFailed, mintTx.Status)
	assert.Contains(t, mintTx.ErrorMessage, "pinata 500")

	var result model.QuizResult
	require.NoError(t, h.db.First(&result, h.result.ID).Error)
	assert.False(t, result.NFTMinted)

	assert.Equal(t, 1, h.notifier.failed)
	assert.Contains(t, h.notifier.reason, "pinata 500")
	assert.Empty(t, h.storage.unpinned)
}

func TestStartMintWalletUnhealthy(t *testing.T) {
	h := newNFTHarness(t)
	h.wallet.healthy = false

	mintTx, err := h.svc.StartMint(context.Background(), h.user.ID, h.result.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrWalletUnhealthy)
	assert.Equal(t, model.MintStatusFailed, mintTx.Status)
	assert.Equal(t, 0, h.wallet.mints)

	// 两个已上传的产物在失败后被回收
	assert.ElementsMatch(t, []string{"QmImageCID", "QmMetaCID"}, h.storage.unpinned)

	var result model.QuizResult
	require.NoError(t, h.db.First(&result, h.result.ID).Error)
	assert.False(t, result.NFTMinted)
}

func TestStartMintAlreadyMinted(t *testing.T) {
	h := newNFTHarness(t)

	_, err := h.svc.StartMint(context.Background(), h.user.ID, h.result.ID)
	require.NoError(t, err)

	_, err = h.svc.StartMint(context.Background(), h.user.ID, h.result.ID)
	assert.ErrorIs(t, err, util.ErrAlreadyMinted)
}

func TestStartMintInProgressGuard(t *testing.T) {
	h := newNFTHarness(t)

	require.NoError(t, h.db.Create(&model.MintTransaction{
		ResultID: h.result.ID,
		UserID:   h.user.ID,
		Status:   model.MintStatusMinting,
	}).Error)

	_, err := h.svc.StartMint(context.Background(), h.user.ID, h.result.ID)
	assert.ErrorIs(t, err, util.ErrMintInProgress)
}

func TestStartMintRetriesFailedTransaction(t *testing.T) {
	h := newNFTHarness(t)
	h.storage.imageErr = errors.New("gateway timeout")

	_, err := h.svc.StartMint(context.Background(), h.user.ID, h.result.ID)
	require.Error(t, err)

	// 故障恢复后重新触发，失败行转入重试路径并从第一步重跑
	h.storage.imageErr = nil
	mintTx, err := h.svc.StartMint(context.Background(), h.user.ID, h.result.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MintStatusCompleted, mintTx.Status)
	assert.Equal(t, 1, mintTx.RetryCount)
	assert.Empty(t, mintTx.ErrorMessage)
}

func TestRetryMintBudgetExhausted(t *testing.T) {
	h := newNFTHarness(t)

	require.NoError(t, h.db.Create(&model.MintTransaction{
		ResultID:     h.result.ID,
		UserID:       h.user.ID,
		Status:       model.MintStatusFailed,
		ErrorMessage: "earlier failure",
		RetryCount:   3,
	}).Error)

	_, err := h.svc.RetryMint(context.Background(), h.user.ID, h.result.ID)
	assert.ErrorIs(t, err, util.ErrRetryBudgetExhausted)
}

func TestRetryMintStateGuards(t *testing.T) {
	h := newNFTHarness(t)

	_, err := h.svc.RetryMint(context.Background(), h.user.ID, h.result.ID)
	assert.ErrorIs(t, err, util.ErrMintNotFound)

	require.NoError(t, h.db.Create(&model.MintTransaction{
		ResultID: h.result.ID,
		UserID:   h.user.ID,
		Status:   model.MintStatusUploadingImage,
	}).Error)
	_, err = h.svc.RetryMint(context.Background(), h.user.ID, h.result.ID)
	assert.ErrorIs(t, err, util.ErrMintNotFailed)
}

func TestGetUserNFTs(t *testing.T) {
	h := newNFTHarness(t)

	nfts, err := h.svc.GetUserNFTs(h.user.ID)
	require.NoError(t, err)
	assert.Empty(t, nfts)

	_, err = h.svc.StartMint(context.Background(), h.user.ID, h.result.ID)
	require.NoError(t, err)

	nfts, err = h.svc.GetUserNFTs(h.user.ID)
	require.NoError(t, err)
	require.Len(t, nfts, 1)
	assert.Equal(t, "EQFakeAddress", nfts[0].NFTAddress)
}
