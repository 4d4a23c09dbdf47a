package enumName

type weekday uint8

type Status_Code int // Noncompliant {{Rename this enum type to match the regular expression: "^[A-Za-z][A-Za-z0-9]*$".}}

type Level2 int

type _hidden int // Noncompliant
