package util

import (
	"fmt"
	"strconv"
	"strings"
)

// 支付回调的 invoice payload 固定为 nft_mint_{paymentID}_{resultID}
const payloadPrefix = "nft_mint"

// EncodeMintPayload 生成支付回调用的 payload token
func EncodeMintPayload(paymentID, resultID uint) string {
	return fmt.Sprintf("%s_%d_%d", payloadPrefix, paymentID, resultID)
}

// DecodeMintPayload 严格解析 payload token，任何其他形状返回 ErrMalformedPayload
func DecodeMintPayload(payload string) (paymentID, resultID uint, err error) {
	parts := strings.Split(payload, "_")
	if len(parts) != 4 || parts[0] != "nft" || parts[1] != "mint" {
		return 0, 0, ErrMalformedPayload
	}

	pid, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return 0, 0, ErrMalformedPayload
	}
	rid, err := strconv.ParseUint(parts[3], 10, 32)
	if err != nil {
		return 0, 0, ErrMalformedPayload
	}

	return uint(pid), uint(rid), nil
}
