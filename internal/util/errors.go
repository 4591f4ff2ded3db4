package util

import "errors"

// 校验类错误：立即反馈给调用方，绝不重试
var (
	ErrEmptyAnswerSet    = errors.New("answer set is empty")
	ErrInvalidAnswerSet  = errors.New("answer ids do not belong to this quiz")
	ErrQuizNotFound      = errors.New("quiz not found")
	ErrResultNotFound    = errors.New("quiz result not found")
	ErrResultNotOwned    = errors.New("user does not own this quiz result")
	ErrInvalidProvider   = errors.New("invalid payment provider")
	ErrProviderDisabled  = errors.New("payment provider is disabled")
	ErrMalformedPayload  = errors.New("malformed invoice payload")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidCredential = errors.New("invalid admin credentials")
)

// 冲突类错误：能幂等读回的场景直接返回既有记录，否则以类型化冲突上抛
var (
	ErrAlreadyMinted  = errors.New("nft already minted for this result")
	ErrMintInProgress = errors.New("mint already in progress for this result")
	ErrDailyMintLimit = errors.New("daily mint limit reached")
	ErrDailyQuizLimit = errors.New("daily quiz limit reached")
)

// 状态机错误
var (
	ErrInvalidStateTransition = errors.New("invalid payment state transition")
	ErrPaymentRequired        = errors.New("no paid payment for this result")
	ErrMintNotFound           = errors.New("mint transaction not found")
	ErrMintNotFailed          = errors.New("only failed mint transactions can be retried")
	ErrRetryBudgetExhausted   = errors.New("mint retry budget exhausted")
)

// 外部依赖错误：记入 MintTransaction 后上抛，可在重试预算内恢复
var (
	ErrStorageUpload   = errors.New("content storage upload failed")
	ErrWalletUnhealthy = errors.New("minting wallet unhealthy")
	ErrInvalidMetadata = errors.New("generated nft metadata is invalid")
)
