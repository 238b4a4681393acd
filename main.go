// The main package for the integra executable.
package main

import (
	"github.com/integralabs/integra-harvester/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
