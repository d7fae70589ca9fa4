package utils

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid"
)

const tokenAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// 验证令牌长度
const VerificationTokenLength = 32

// GenerateVerificationToken 生成邮箱验证令牌
func GenerateVerificationToken() (string, error) {
	return gonanoid.Generate(tokenAlphabet, VerificationTokenLength)
}

// ValidateVerificationToken 验证令牌格式
func ValidateVerificationToken(token string) bool {
	if len(token) != VerificationTokenLength {
		return false
	}
	for _, char := range token {
		if !strings.ContainsRune(tokenAlphabet, char) {
			return false
		}
	}
	return true
}

// UsernameFromEmail 取邮箱@前的部分作为用户名
func UsernameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.TrimSpace(email), "@")
	return local
}

// UsernameWithSuffix 用户名冲突时追加序号
func UsernameWithSuffix(base string, n int) string {
	return fmt.Sprintf("%s_%d", base, n)
}
