package email

import "fmt"

// VerificationContent is the body of the post-registration verification mail.
func VerificationContent(firstName, url string) string {
	return fmt.Sprintf(
		`<h4>Verify Email</h4><p>Thanks for registering, %s! Click the link below to verify your email address:</p><p><a href="%s">%s</a></p>`,
		firstName, url, url)
}

// PasswordResetContent is the body of the reset-link mail.
func PasswordResetContent(firstName, url string) string {
	return fmt.Sprintf(
		`<h4>Password reset</h4><p>Hi %s!</p><p>Please click the link below to reset your password.</p><p><a href="%s">%s</a></p>`,
		firstName, url, url)
}

// PasswordChangedContent is the advisory notice sent after a completed reset.
func PasswordChangedContent(firstName string) string {
	return fmt.Sprintf(
		`<h4>Password Reset</h4><p>Hi %s!</p><p>Your password has just been reset. If this was not you, please reset your password or contact us.</p>`,
		firstName)
}
