package usecase

import "strings"

// NormalizePhone reduces an Israeli phone number to digits in international
// form: separators are dropped and a leading 0 becomes 972.
func NormalizePhone(phone string) string {
	cleaned := phoneSeparators.ReplaceAllString(phone, "")
	if strings.HasPrefix(cleaned, "0") {
		cleaned = "972" + cleaned[1:]
	}
	return cleaned
}

// looksLikePhone reports whether a search term should be matched against
// phone numbers rather than names or e-mails.
func looksLikePhone(term string) bool {
	stripped := strings.NewReplacer("+", "", "-", "", " ", "").Replace(term)
	return isDigits(stripped)
}
