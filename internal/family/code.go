package family

import (
	"crypto/rand"
	"fmt"
	"strings"
)

const (
	// CodeLength is the number of characters of a family code.
	CodeLength = 6

	// CodeAlphabet has no 0/O or 1/I so codes survive being read aloud.
	CodeAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

	// DefaultCodeAttempts caps collision retries when creating a family.
	DefaultCodeAttempts = 10
)

// CodeGenerator produces candidate family codes.
type CodeGenerator interface {
	NewCode() (string, error)
}

// CodeGeneratorFunc adapts a function to CodeGenerator.
type CodeGeneratorFunc func() (string, error)

func (f CodeGeneratorFunc) NewCode() (string, error) { return f() }

// RandomCodes draws codes uniformly from CodeAlphabet using crypto/rand.
var RandomCodes CodeGenerator = CodeGeneratorFunc(randomCode)

func randomCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	// len(CodeAlphabet) divides 256, so the modulo is unbiased.
	for i, b := range buf {
		buf[i] = CodeAlphabet[int(b)%len(CodeAlphabet)]
	}
	return string(buf), nil
}

// NormalizeCode trims and uppercases a user-typed code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code has the shape of a generated code.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(CodeAlphabet, r) {
			return false
		}
	}
	return true
}
