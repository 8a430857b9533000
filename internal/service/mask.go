package service

import "strings"

// maskEmail obscures the local part of an email for log output, keeping the
// first character and the domain so entries stay correlatable.
func maskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
