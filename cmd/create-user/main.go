package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"case_desk_app_go/config"
	"case_desk_app_go/logger"
	"case_desk_app_go/models"
	"case_desk_app_go/services"

	"golang.org/x/term"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logr, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logr.Sync()

	ctx := context.Background()
	gateway, closeGateway, err := services.NewGateway(ctx, cfg, logr)
	if err != nil {
		log.Fatalf("Failed to open persistence backend: %v", err)
	}
	defer closeGateway()

	store := services.NewCaseStore(services.LoadOrDefault(ctx, gateway, logr), gateway, logr)

	reader := bufio.NewReader(os.Stdin)

	// Get user details
	fmt.Println("=== Create New User ===")
	fmt.Println()

	fmt.Print("Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)

	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	fmt.Print("Admin? [y/N]: ")
	answer, _ := reader.ReadString('\n')
	permission := models.PermissionStandard
	if strings.EqualFold(strings.TrimSpace(answer), "y") {
		permission = models.PermissionAdmin
	}

	// Get password securely. An empty password creates a passwordless user.
	fmt.Print("Password (leave empty for none): ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}
	password := string(passwordBytes)
	fmt.Println() // New line after password input

	user, err := store.AddUser(ctx, services.UserInput{
		Name:       name,
		Email:      email,
		Permission: permission,
		Password:   &password,
	})
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Println()
	fmt.Println("✓ User created successfully!")
	fmt.Printf("  ID: %d\n", user.ID)
	fmt.Printf("  Name: %s\n", user.Name)
	fmt.Printf("  Email: %s\n", user.Email)
	fmt.Printf("  Permission: %s\n", user.Permission)
	fmt.Printf("  Backend: %s\n", store.Backend())
	fmt.Println()
	fmt.Printf("The user can now log in at %s\n", cfg.AppURL)
}
