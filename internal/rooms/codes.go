package rooms

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Codes are read aloud across a table, so 0, O, 1, I and L are left out.
const alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const CodeLength = 4

func GenerateCode() (string, error) {
	size := big.NewInt(int64(len(alphabet)))
	code := make([]byte, CodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		code[i] = alphabet[n.Int64()]
	}
	return string(code), nil
}

// NormalizeCode upper-cases a typed room code and reports whether it has
// the shape of one GenerateCode could have issued.
func NormalizeCode(s string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if len(code) != CodeLength {
		return code, false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(alphabet, code[i]) < 0 {
			return code, false
		}
	}
	return code, true
}
