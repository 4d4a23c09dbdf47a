package emptyFunc

type fakeStore struct{}

func (fakeStore) Flush() {}

func helper() {} // Noncompliant
