package types

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	PubkeyLength    = 48
	SignatureLength = 96
)

// NormalizeHex lower-cases a hex string and makes sure it carries the 0x prefix.
func NormalizeHex(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "0x") {
		s = "0x" + s
	}
	return s
}

// NormalizePubkey is the form validator keys are stored and compared in.
func NormalizePubkey(pubkey string) string {
	return NormalizeHex(pubkey)
}

func NormalizePubkeys(pubkeys []string) []string {
	normalized := make([]string, 0, len(pubkeys))
	for _, k := range pubkeys {
		normalized = append(normalized, NormalizePubkey(k))
	}
	return normalized
}

// ValidatePubkey checks that pubkey decodes to a 48 byte BLS public key.
func ValidatePubkey(pubkey string) error {
	bz, err := hexutil.Decode(NormalizePubkey(pubkey))
	if err != nil {
		return fmt.Errorf("invalid pubkey %s: %w", pubkey, err)
	}
	if len(bz) != PubkeyLength {
		return fmt.Errorf("invalid pubkey length %d, expected %d", len(bz), PubkeyLength)
	}
	return nil
}

// SplitConcatenated cuts the packed bytes returned by getSigningKeys into equally sized hex chunks.
func SplitConcatenated(bz []byte, size int) ([]string, error) {
	if size <= 0 || len(bz)%size != 0 {
		return nil, fmt.Errorf("unexpected packed length %d for chunk size %d", len(bz), size)
	}
	chunks := make([]string, 0, len(bz)/size)
	for i := 0; i < len(bz); i += size {
		chunks = append(chunks, hexutil.Encode(bz[i:i+size]))
	}
	return chunks, nil
}
