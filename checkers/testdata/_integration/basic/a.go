package basic

import "strings"

func isEmpty(s string) bool {
	return strings.EqualFold(s, "")
}

func noop() {}
