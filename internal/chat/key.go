package chat

import "strings"

// keySeparator joins the two encoded participant ids. Ids are escaped so
// the separator can never occur inside an encoded id, which keeps keys
// collision-free across distinct pairs.
const keySeparator = "_"

var keyEscaper = strings.NewReplacer("%", "%25", keySeparator, "%5F")

// ConversationKey derives the canonical key for the unordered pair
// {a, b}. The key is order-independent: ConversationKey(a, b) ==
// ConversationKey(b, a). Returns "" when either id is missing, which
// deactivates every key-scoped subscription.
func ConversationKey(a, b string) string {
	if a == "" || b == "" {
		return ""
	}
	ea, eb := keyEscaper.Replace(a), keyEscaper.Replace(b)
	if ea > eb {
		ea, eb = eb, ea
	}
	return ea + keySeparator + eb
}

// CanonicalPair returns the two ids in the same order the key derivation
// uses, so summary rows and keys always agree on which id is "first".
func CanonicalPair(a, b string) (string, string) {
	if keyEscaper.Replace(a) > keyEscaper.Replace(b) {
		return b, a
	}
	return a, b
}
