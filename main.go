// The main package for the promokeeper executable.
package main

import (
	"github.com/promopipe/promokeeper/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
