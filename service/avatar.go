package service

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// AvatarURL returns the Gravatar identicon URL for email: 200px, "pg" rating,
// mystery-person fallback. No network call is made.
func AvatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?s=200&r=pg&d=mm"
}
