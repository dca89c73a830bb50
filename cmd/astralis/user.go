package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/astralisone/astralis-core/internal/state"
)

var (
	userEmail string
	userName  string
	userOrg   string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	Long: `Create a user record.

Users make reprocess requests and own calendar commitments; conflict
detection resolves participant email addresses against them.`,
	RunE: runUserCreate,
}

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "Email address (required)")
	userCreateCmd.Flags().StringVar(&userName, "name", "", "Display name")
	userCreateCmd.Flags().StringVar(&userOrg, "org", "", "Organization ID")
	userCreateCmd.MarkFlagRequired("email")

	userCmd.AddCommand(userCreateCmd)
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	existing, err := db.GetUserByEmail(userEmail)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("user with email %s already exists (id %s)", userEmail, existing.ID)
	}

	u := &state.User{
		ID:        uuid.New().String(),
		Email:     userEmail,
		Name:      userName,
		OrgID:     userOrg,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.CreateUser(u); err != nil {
		return err
	}

	fmt.Printf("%s user created: %s (%s)\n", color.GreenString("✓"), u.ID, u.Email)
	return nil
}
