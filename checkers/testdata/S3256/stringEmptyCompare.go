package stringEmptyCompare

import "strings"

const empty = ""

func compare(s, t string) {
	_ = strings.EqualFold(s, "") // Noncompliant {{Use a direct comparison with "" instead of calling strings.EqualFold.}} [[secondary=+0]]
	_ = strings.EqualFold("", s) // Noncompliant [[secondaries=1]]
	_ = strings.Compare(s, "")   // Noncompliant {{Use a direct comparison with "" instead of calling strings.Compare.}}
	_ = strings.EqualFold(s, ``) // Noncompliant
	_ = strings.Compare(empty, s) // Noncompliant

	_ = strings.EqualFold(s, t)
	_ = strings.EqualFold(s, "a")
	_ = strings.HasPrefix(s, "")
	_ = strings.EqualFold(s+t, "")
	_ = strings.Compare(s, t) == 0
}

func shadowed(s string) {
	strings := struct{ EqualFold func(a, b string) bool }{}
	_ = strings.EqualFold(s, "")
}
