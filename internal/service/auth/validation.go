package auth

import (
	"regexp"
	"strings"
)

var (
	reUsername  = regexp.MustCompile(`^[A-Za-z0-9._@-]{3,64}$`)
	reHasLetter = regexp.MustCompile(`[A-Za-z]`)
	reHasDigit  = regexp.MustCompile(`\d`)
)

// normalizeUsername: 사용자명은 대소문자를 구분하지 않는다.
func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func validateUsername(username string) bool {
	return reUsername.MatchString(username)
}

func validatePassword(password string) bool {
	// bcrypt 입력 길이 제한(72 bytes)
	if len(password) < 8 || len(password) > 72 {
		return false
	}
	if !reHasLetter.MatchString(password) {
		return false
	}
	if !reHasDigit.MatchString(password) {
		return false
	}
	return true
}
