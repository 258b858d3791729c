package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apexboard/linear-integration/internal/integration"
)

// integrateCmd represents the integrate command
var integrateCmd = &cobra.Command{
	Use:   "integrate",
	Short: "Integrate a Linear project into the local backend",
	Long: `Integrate one Linear project: fetch its members, workflow states, labels,
issues and full issue history, normalize everything and persist it in a
single transaction.

The requesting user must already exist locally and their email must appear
in the project's Linear member list. Provider members without a local
account are stored as pending users. A project can only be integrated once;
a second run fails with a conflict and writes nothing.`,
	Example: `  # Integrate a project for a local user
  linear-sync integrate --project=team-uuid --user=local-user-id

  # Restrict which provider members are imported
  linear-sync integrate --project=team-uuid --user=local-user-id --members=a@example.com,b@example.com`,
	RunE: runIntegrate,
}

func runIntegrate(cmd *cobra.Command, args []string) error {
	projectID, _ := cmd.Flags().GetString("project")
	userID, _ := cmd.Flags().GetString("user")
	membersArg, _ := cmd.Flags().GetString("members")

	if projectID == "" {
		return fmt.Errorf("must specify --project flag")
	}
	if userID == "" {
		return fmt.Errorf("must specify --user flag")
	}

	var memberEmails []string
	if membersArg != "" {
		for _, email := range strings.Split(membersArg, ",") {
			email = strings.TrimSpace(email)
			if email != "" {
				memberEmails = append(memberEmails, email)
			}
		}
	}

	fmt.Println("📄 Loading configuration...")
	c, err := setupComponents(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Printf("🔗 Integrating Linear project %s...\n", projectID)
	project, err := c.service.IntegrateProject(context.Background(), integration.IntegrateRequest{
		ProviderProjectID: projectID,
		RequestingUserID:  userID,
		MemberEmails:      memberEmails,
	})
	if err != nil {
		switch integration.KindOf(err) {
		case integration.KindConflict:
			return fmt.Errorf("integration conflict: %w", err)
		case integration.KindNotFound:
			return fmt.Errorf("integration rejected: %w", err)
		case integration.KindProvider:
			return fmt.Errorf("provider failure: %w", err)
		default:
			return fmt.Errorf("integration failed: %w", err)
		}
	}

	fmt.Printf("✅ Project %q integrated (id: %s)\n", project.Name, project.ID)
	return nil
}

func init() {
	rootCmd.AddCommand(integrateCmd)

	integrateCmd.Flags().StringP("project", "p", "", "Linear project (team) id to integrate (required)")
	integrateCmd.Flags().StringP("user", "u", "", "Local user id requesting the integration (required)")
	integrateCmd.Flags().StringP("members", "m", "", "Comma-separated member emails to import (default: all)")
}
