package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/snapline/backend/internal/database"
	"github.com/snapline/backend/internal/models"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show activity counts for the deployment",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStats()
	},
}

func showStats() error {
	counts := map[string]int64{}
	tables := []struct {
		name  string
		model interface{}
	}{
		{"users", &models.User{}},
		{"follows", &models.Follow{}},
		{"posts", &models.Post{}},
		{"likes", &models.PostLike{}},
		{"comments", &models.Comment{}},
		{"bookmarks", &models.Bookmark{}},
		{"conversations", &models.Conversation{}},
		{"messages", &models.Message{}},
	}

	for _, t := range tables {
		var count int64
		if err := database.DB.Model(t.model).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to count %s: %w", t.name, err)
		}
		counts[t.name] = count
	}

	if output == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(counts)
	}

	for _, t := range tables {
		fmt.Printf("%-15s %d\n", t.name, counts[t.name])
	}
	return nil
}
