package fix

import "strings"

func check(s string) bool {
	if strings.EqualFold(s, "") { // Noncompliant
		return true
	}
	if !strings.EqualFold("", s) { // Noncompliant
		return false
	}
	return strings.Compare(s, "") == 0 // Noncompliant
}
