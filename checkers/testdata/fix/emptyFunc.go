package fix

type worker struct{}

func (worker) Start() {} // Noncompliant

func stop() {} // Noncompliant

func init() {} // Noncompliant
