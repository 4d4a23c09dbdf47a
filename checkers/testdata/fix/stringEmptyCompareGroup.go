package fix

import (
	"fmt"
	"strings"
)

func describe(s string) string {
	if strings.EqualFold(s, "") || strings.EqualFold("", s) { // Noncompliant 2
		return "empty"
	}
	return fmt.Sprint(len(s))
}
