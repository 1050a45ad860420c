package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerificationContent(t *testing.T) {
	c := VerificationContent("Alice", "https://app.example.com/account/verify-email?token=t&email=e")
	assert.Contains(t, c, "Thanks for registering, Alice!")
	assert.Contains(t, c, `href="https://app.example.com/account/verify-email?token=t&email=e"`)
}

func TestPasswordResetContent(t *testing.T) {
	c := PasswordResetContent("Alice", "https://app.example.com/account/reset-password?token=t&email=e")
	assert.Contains(t, c, "Hi Alice!")
	assert.Contains(t, c, "reset your password")
}

func TestPasswordChangedContent(t *testing.T) {
	c := PasswordChangedContent("Alice")
	assert.Contains(t, c, "Your password has just been reset")
}
