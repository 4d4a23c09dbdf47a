package malformed

import "strings"

func valid(s string) bool {
	return strings.EqualFold(s, "")
}

func broken( {
}

func empty() {}

type level_t int

func unterminated(s string) {
	if strings.EqualFold(s, "") {
		return
