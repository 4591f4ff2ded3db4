package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"quiz_nft_backend/internal/config"
	"quiz_nft_backend/pkg/logger"

	"go.uber.org/zap"
)

// Notifier 铸造终态的外部通知口，失败只记日志，从不影响流水线结果
type Notifier interface {
	MintSucceeded(ctx context.Context, telegramID int64, resultID uint, nftAddress, txHash string)
	MintFailed(ctx context.Context, telegramID int64, resultID uint, reason string)
}

// TelegramNotifier Bot API sendMessage 实现
type TelegramNotifier struct {
	token  string
	client *http.Client
}

func NewTelegramNotifier(cfg *config.Config) *TelegramNotifier {
	return &TelegramNotifier{
		token:  cfg.Telegram.BotToken,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *TelegramNotifier) send(ctx context.Context, chatID int64, text string) {
	if n.token == "" {
		return
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	})

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		logger.Log.Warn("notify request build failed", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		logger.Log.Warn("notify send failed", zap.Int64("chatId", chatID), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Log.Warn("notify rejected", zap.Int64("chatId", chatID), zap.Int("status", resp.StatusCode))
	}
}

func (n *TelegramNotifier) MintSucceeded(ctx context.Context, telegramID int64, resultID uint, nftAddress, txHash string) {
	n.send(ctx, telegramID, fmt.Sprintf(
		"🎉 Your NFT has been minted!\n\nAddress: %s\nTransaction: %s", nftAddress, txHash))
}

func (n *TelegramNotifier) MintFailed(ctx context.Context, telegramID int64, resultID uint, reason string) {
	n.send(ctx, telegramID, fmt.Sprintf(
		"⚠️ Payment received, but minting failed: %s\nWe will retry shortly — your payment is safe.", reason))
}
