package auth

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/yourusername/todo-api/internal/apperr"
)

const minPasswordLength = 8

// ローカル部 "@" ドメイン（ドットを含む）。空白は含まない。
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	msgFieldsRequired = "All fields are required"
	msgInvalidEmail   = "Invalid email format"
	msgWeakPassword   = "Password should contain at least one uppercase letter, one lowercase letter, one number, and one special character, and should be at least 8 characters long."
)

// ValidEmail はメールアドレスの形式を検証します。
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidPassword はパスワードポリシー（8文字以上、大文字・小文字・数字・記号を各1文字以上）を検証します。
func ValidPassword(password string) bool {
	if len([]rune(password)) < minPasswordLength {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsSpace(r):
		case !unicode.IsLetter(r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

func validateRegistration(name, email, password string) error {
	if strings.TrimSpace(name) == "" || email == "" || password == "" {
		return apperr.Validation(msgFieldsRequired)
	}
	if !ValidEmail(email) {
		return apperr.Validation(msgInvalidEmail)
	}
	if !ValidPassword(password) {
		return apperr.Validation(msgWeakPassword)
	}
	return nil
}
