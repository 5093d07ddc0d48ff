package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/snapline/backend/internal/database"
	"github.com/snapline/backend/internal/models"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
	Long:  "Commands for listing and managing Snapline accounts",
}

var listUsersCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts ordered by follower count",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return listUsers(limit)
	},
}

var verifyUserCmd = &cobra.Command{
	Use:   "verify <username>",
	Short: "Mark an account as verified",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setVerified(args[0], true)
	},
}

var unverifyUserCmd = &cobra.Command{
	Use:   "unverify <username>",
	Short: "Remove the verified mark from an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setVerified(args[0], false)
	},
}

func init() {
	listUsersCmd.Flags().Int("limit", 25, "Maximum number of accounts to list")

	usersCmd.AddCommand(listUsersCmd)
	usersCmd.AddCommand(verifyUserCmd)
	usersCmd.AddCommand(unverifyUserCmd)
}

func listUsers(limit int) error {
	var users []models.User
	if err := database.DB.Order("follower_count DESC").Limit(limit).Find(&users).Error; err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	if output == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(users)
	}

	fmt.Printf("%-30s %-30s %9s %9s %6s %8s\n", "USERNAME", "EMAIL", "FOLLOWERS", "FOLLOWING", "POSTS", "VERIFIED")
	for _, u := range users {
		verified := ""
		if u.IsVerified {
			verified = "yes"
		}
		fmt.Printf("%-30s %-30s %9d %9d %6d %8s\n",
			u.Username, u.Email, u.FollowerCount, u.FollowingCount, u.PostCount, verified)
	}
	return nil
}

func setVerified(username string, verified bool) error {
	result := database.DB.Model(&models.User{}).
		Where("LOWER(username) = LOWER(?)", username).
		Update("is_verified", verified)
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no account named %q", username)
	}

	state := "verified"
	if !verified {
		state = "unverified"
	}
	fmt.Printf("%s is now %s\n", username, state)
	return nil
}
