package cli

import (
	"context"
	"fmt"

	"github.com/appmechanic/driveconnect/internal/facade"
	"github.com/spf13/cobra"
)

var (
	shareEmail  string
	shareRole   string
	shareNotify bool
)

var shareCmd = &cobra.Command{
	Use:   "share <node-id>",
	Short: "Share a node",
	Long: `Without --email, make the node readable by anyone with the link.
With --email, grant access to one account. Sharing a node that already
has the grant changes nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: runShare,
}

var unshareCmd = &cobra.Command{
	Use:   "unshare <node-id>",
	Short: "Remove a node's public link access",
	Long:  "Delete the anyone-with-the-link grant. A node that is not public is left alone.",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnshare,
}

func init() {
	shareCmd.Flags().StringVar(&shareEmail, "email", "", "Grant access to this account instead of the public link")
	shareCmd.Flags().StringVar(&shareRole, "role", "reader", "Role to grant (reader, writer, commenter)")
	shareCmd.Flags().BoolVar(&shareNotify, "notify", false, "Send a notification email for per-account grants")
}

func runShare(cmd *cobra.Command, args []string) error {
	return runForUser(func(ctx context.Context, app *facade.Facade, client *facade.UserClient) error {
		if shareEmail != "" {
			grant, err := client.GrantToUser(ctx, args[0], shareEmail, shareRole, shareNotify)
			if err != nil {
				return err
			}
			if flagJSON {
				return writeJSON(grant)
			}
			fmt.Printf("Granted %s to %s\n", grant.Role, grant.Email)
			return nil
		}

		grant, err := client.EnsurePublicReader(ctx, args[0])
		if err != nil {
			return err
		}
		if flagJSON {
			return writeJSON(grant)
		}
		if grant.AlreadyPublic {
			fmt.Println("Already public")
		} else {
			fmt.Println("Anyone with the link can now read")
		}
		return nil
	})
}

func runUnshare(cmd *cobra.Command, args []string) error {
	return runForUser(func(ctx context.Context, app *facade.Facade, client *facade.UserClient) error {
		if err := client.RevokePublic(ctx, args[0]); err != nil {
			return err
		}
		if flagJSON {
			return writeJSON(map[string]bool{"public": false})
		}
		fmt.Println("Public access removed")
		return nil
	})
}
