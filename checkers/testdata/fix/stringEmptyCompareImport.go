package fix

import "strings"

func isEmpty(s string) bool {
	return strings.EqualFold(s, "") // Noncompliant
}
