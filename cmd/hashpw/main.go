package main

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/examsecure/examsecure-backend/internal/config"
)

// hashpw prints a bcrypt hash for an exam or account password, for use in
// provisioning scripts and fixtures.
func main() {
	cfg := config.Load()

	fmt.Print("Enter password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		os.Exit(1)
	}
	if len(bytePassword) < 4 {
		fmt.Println("Error: password must be at least 4 characters")
		os.Exit(1)
	}

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		os.Exit(1)
	}
	if string(bytePassword) != string(confirm) {
		fmt.Println("Error: passwords do not match")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword(bytePassword, cfg.BcryptCost)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(hash))
}
