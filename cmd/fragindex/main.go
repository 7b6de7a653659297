// FragIndex - fragment-ion index peptide search
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/FragIndex/cmd/fragindex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
