package enumName

type Color int

type weekday uint8 // Noncompliant {{Rename this enum type to match the regular expression: "^[A-Z][a-zA-Z0-9]*$".}}

type Status_Code int // Noncompliant

type name string

type alias = int

type shape struct{}

type (
	Level   int
	level_t int64 // Noncompliant
)

type Shade Color

func scoped() {
	type local int // Noncompliant
	_ = local(0)
}
