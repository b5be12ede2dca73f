package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// tokenBytes はベアラートークンの乱数バイト長（256bit）。
const tokenBytes = 32

// generateToken は暗号的に安全なベアラートークンと、その保存用ハッシュを生成する。
func generateToken() (token, hash string, err error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("failed to generate token: %w", err)
	}
	token = base64.RawURLEncoding.EncodeToString(b)
	return token, HashToken(token), nil
}

// HashToken はトークンのSHA-256ハッシュを16進文字列で返す。
// サーバーはこの値だけを保存する。
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
