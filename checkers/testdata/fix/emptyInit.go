package fix

import "fmt"

func main() {
	fmt.Println("ok")
}

func init() {}
// Noncompliant@-1
