package main

import (
	"fmt"

	"github.com/emx-mail/tempmail/pkgs/config"
)

func handleInit() error {
	data, err := config.ExampleYAML()
	if err != nil {
		return fmt.Errorf("failed to format example config: %w", err)
	}
	fmt.Println("# Save as tempmail.yaml and run: tempmail --config tempmail.yaml serve")
	fmt.Println("# Environment variables override every value below.")
	fmt.Print(string(data))
	return nil
}
