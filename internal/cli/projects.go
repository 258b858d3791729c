package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// projectsCmd represents the projects command
var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List Linear projects visible to the configured credential",
	Example: `  # List all provider projects
  linear-sync projects`,
	RunE: runProjects,
}

func runProjects(cmd *cobra.Command, args []string) error {
	c, err := setupComponents(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Println("🔗 Fetching Linear projects...")
	summaries, err := c.service.ListProviderProjects(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list provider projects: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Println("No projects visible to the configured credential.")
		return nil
	}

	fmt.Printf("Found %d project(s):\n", len(summaries))
	for _, summary := range summaries {
		fmt.Printf("  %s  %s\n", summary.ProviderProjectID, summary.Name)
	}
	return nil
}

// membersCmd represents the members command
var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List the members of a Linear project",
	Example: `  # List members of a project
  linear-sync members --project=team-uuid`,
	RunE: runMembers,
}

func runMembers(cmd *cobra.Command, args []string) error {
	projectID, _ := cmd.Flags().GetString("project")
	if projectID == "" {
		return fmt.Errorf("must specify --project flag")
	}

	c, err := setupComponents(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Printf("🔗 Fetching members of project %s...\n", projectID)
	members, err := c.service.ListProjectMembers(context.Background(), projectID)
	if err != nil {
		return fmt.Errorf("failed to list project members: %w", err)
	}

	fmt.Printf("Found %d member(s):\n", len(members))
	for _, member := range members {
		fmt.Printf("  %s  %s <%s>\n", member.ProviderMemberID, member.Name, member.Email)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(membersCmd)

	membersCmd.Flags().StringP("project", "p", "", "Linear project (team) id (required)")
}
