package email

import (
	"crypto/tls"
	"fmt"
	"html"
)

func tlsConfig(host string) *tls.Config {
	return &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
}

// PasswordResetSubject is the subject line of reset emails.
const PasswordResetSubject = "Reset your Lookout password"

// PasswordResetBody renders the HTML body carrying the reset link.
func PasswordResetBody(username, link string) string {
	return fmt.Sprintf(`<p>Hello %s,</p>
<p>We received a request to reset your password. The link below is valid for one hour.</p>
<p><a href="%s">Reset password</a></p>
<p>If you did not ask for this, you can ignore this email.</p>`,
		html.EscapeString(username), html.EscapeString(link))
}
