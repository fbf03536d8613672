package llm

import (
	"crypto/sha256"
	"fmt"
	"math/big"
)

// modulus is 2^31, per the seed-derivation contract of spec §4.3.
var modulus = new(big.Int).Lsh(big.NewInt(1), 31)

// DeriveSeed computes SHA256(inputHash || creativity || modelID) mod 2^31,
// so identical inputs always produce identical sampling seeds.
func DeriveSeed(inputHash string, creativity float64, modelID string) int64 {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%f|%s", inputHash, creativity, modelID)
	sum := h.Sum(nil)

	n := new(big.Int).SetBytes(sum)
	n.Mod(n, modulus)
	return n.Int64()
}
