// Package main provides the medsafe command line: age-safety, dosage and combined drug
// evaluations against the reference catalog, printed as JSON.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is not an error
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "medsafe: %v\n", err)
		os.Exit(1)
	}
}
