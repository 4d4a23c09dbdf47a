package emptyFunc

type Runner interface {
	Run()
}

type job struct{}

func (job) Run() {}

func (job) Stop() {} // Noncompliant {{Add a nested comment explaining why this function is empty, panic with "not implemented" or complete the implementation.}}

func init() {} // Noncompliant {{Add a nested comment explaining why this function is empty or complete the implementation.}}

func explained() {
	// Nothing to do.
}

func inline() { /* intentionally empty */ }

func implemented() int {
	return 1
}

var callback = func() {}

func marked() { // Noncompliant
}

func withParams(a, b int) {} // Noncompliant [[secondaries=0]]
