package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// outputJSON marshals v with indentation and prints it to stdout.
func outputJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
