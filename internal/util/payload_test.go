package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMintPayloadRoundTrip(t *testing.T) {
	payload := EncodeMintPayload(7, 42)
	assert.Equal(t, "nft_mint_7_42", payload)

	paymentID, resultID, err := DecodeMintPayload(payload)
	require.NoError(t, err)
	assert.Equal(t, uint(7), paymentID)
	assert.Equal(t, uint(42), resultID)
}

func TestDecodeMintPayloadRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"nft_mint",
		"nft_mint_7",
		"nft_mint_7_42_extra",
		"nft_burn_7_42",
		"xyz_mint_7_42",
		"nft_mint_abc_42",
		"nft_mint_7_xyz",
	}
	for _, payload := range cases {
		_, _, err := DecodeMintPayload(payload)
		assert.ErrorIs(t, err, ErrMalformedPayload, "payload: %q", payload)
	}
}
