package config

import "strings"

type level int

func same(a, b string) bool {
	return strings.EqualFold(a, "")
}
