package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"JobMatch-backend/internal/model"
	"JobMatch-backend/internal/utilities"
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	Long:  "Creates an admin account. A random username and password are generated when not given and printed once.",
	RunE:  runCreateAdmin,
}

var (
	createAdminUsername string
	createAdminPassword string
)

func init() {
	createAdminCmd.Flags().StringVarP(&createAdminUsername, "username", "u", "", "Admin username (random when empty)")
	createAdminCmd.Flags().StringVarP(&createAdminPassword, "password", "p", "", "Admin password (random when empty)")
	rootCmd.AddCommand(createAdminCmd)
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	_, db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	username := createAdminUsername
	if username == "" {
		if username, err = uniqueUsername(db.DB); err != nil {
			return err
		}
	} else {
		taken, err := usernameTaken(db.DB, username)
		if err != nil {
			return err
		}
		if taken {
			return errors.New("username already taken")
		}
	}

	password := createAdminPassword
	if password == "" {
		if password, err = randomString(12); err != nil {
			return err
		}
	}

	admin, err := utilities.CreateAdmin(password, username, db.DB)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Admin created\nID: %s\nUsername: %s\n", admin.ID, admin.Username)
	if createAdminPassword == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Password: %s\n", password)
	}
	return nil
}

// randomString creates a random hex string of 2n characters
func randomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func usernameTaken(db *gorm.DB, username string) (bool, error) {
	var count int64
	if err := db.Model(&model.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// uniqueUsername tries until an unused admin_xxxxxxxx name is found
func uniqueUsername(db *gorm.DB) (string, error) {
	for {
		suffix, err := randomString(4)
		if err != nil {
			return "", err
		}
		username := "admin_" + suffix
		taken, err := usernameTaken(db, username)
		if err != nil {
			return "", err
		}
		if !taken {
			return username, nil
		}
	}
}
