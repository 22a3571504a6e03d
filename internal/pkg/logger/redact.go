package logger

import "strings"

// RedactEmail masks a recipient address so tracking logs never carry a
// full email. The domain stays visible for debugging delivery issues;
// the local part keeps at most its first two characters.
func RedactEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "***@***"
	}
	local, domain := email[:at], email[at+1:]
	if len(local) <= 2 {
		return "***@" + domain
	}
	return local[:2] + "***@" + domain
}
