package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/appmechanic/driveconnect/internal/facade"
	"github.com/appmechanic/driveconnect/internal/tree"
	"github.com/appmechanic/driveconnect/internal/types"
	"github.com/spf13/cobra"
)

var (
	mkdirParent   string
	mvName        string
	mvParent      string
	mvKeepParents bool
	rmHard        bool
	lsPageToken   string
)

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <path>",
	Short: "Ensure a folder path exists",
	Long: `Create each missing segment of a slash-separated path under the
parent folder (or the user's default folder). Existing segments are
reused, so repeating the command is safe.`,
	Args: cobra.ExactArgs(1),
	RunE: runMkdir,
}

var lsCmd = &cobra.Command{
	Use:   "ls <folder-id>",
	Short: "List a folder's children",
	Args:  cobra.ExactArgs(1),
	RunE:  runLs,
}

var mvCmd = &cobra.Command{
	Use:   "mv <node-id>",
	Short: "Move and/or rename a node",
	Long: `Apply a rename and/or reparent. Only the needed changes are
submitted; repeating the command with the same arguments does nothing.`,
	Args: cobra.ExactArgs(1),
	RunE: runMv,
}

var rmCmd = &cobra.Command{
	Use:   "rm <folder-id>",
	Short: "Remove a folder and everything beneath it",
	Long: `Remove the whole subtree: files first, then folders bottom-up.
Nodes are moved to the trash unless --hard is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

var verifyCmd = &cobra.Command{
	Use:   "verify <folder-id>",
	Short: "Check that an id names an existing folder",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

var defaultFolderCmd = &cobra.Command{
	Use:   "default-folder [folder-id]",
	Short: "Show or set the user's default folder",
	Long:  "With no argument, print the stored default folder id. With an argument, verify it is a folder and store it.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDefaultFolder,
}

func init() {
	mkdirCmd.Flags().StringVar(&mkdirParent, "parent", "", "Parent folder id (defaults to the user's default folder)")
	mvCmd.Flags().StringVar(&mvName, "name", "", "New name for the node")
	mvCmd.Flags().StringVar(&mvParent, "parent", "", "New parent folder id")
	mvCmd.Flags().BoolVar(&mvKeepParents, "keep-parents", false, "Add the new parent without removing existing ones")
	rmCmd.Flags().BoolVar(&rmHard, "hard", false, "Permanently delete instead of trashing")
	lsCmd.Flags().StringVar(&lsPageToken, "page-token", "", "Continue listing from a previous page")
}

func runMkdir(cmd *cobra.Command, args []string) error {
	return runForUser(func(ctx context.Context, app *facade.Facade, client *facade.UserClient) error {
		parent := mkdirParent
		if parent == "" {
			parent = client.DefaultFolderID
		}

		segments := strings.Split(args[0], "/")
		node, err := client.EnsurePath(ctx, segments, parent)
		if err != nil {
			return err
		}

		if flagJSON {
			return writeJSON(node)
		}
		fmt.Println(node.ID)
		return nil
	})
}

func runLs(cmd *cobra.Command, args []string) error {
	return runForUser(func(ctx context.Context, app *facade.Facade, client *facade.UserClient) error {
		page, err := client.ListChildren(ctx, args[0], lsPageToken)
		if err != nil {
			return err
		}

		if flagJSON {
			return writeJSON(page)
		}
		renderNodeTable(page.Nodes)
		if page.NextPageToken != "" {
			fmt.Printf("\nNext page: --page-token %s\n", page.NextPageToken)
		}
		return nil
	})
}

func runMv(cmd *cobra.Command, args []string) error {
	return runForUser(func(ctx context.Context, app *facade.Facade, client *facade.UserClient) error {
		result, err := client.CreateOrMoveOrRename(ctx, args[0], tree.MoveRenameOptions{
			NewName:        mvName,
			NewParentID:    mvParent,
			KeepOldParents: mvKeepParents,
		})
		if err != nil {
			return err
		}

		if flagJSON {
			return writeJSON(result)
		}
		switch {
		case result.Moved && result.Renamed:
			fmt.Printf("Moved and renamed %s\n", result.Node.ID)
		case result.Moved:
			fmt.Printf("Moved %s\n", result.Node.ID)
		case result.Renamed:
			fmt.Printf("Renamed %s\n", result.Node.ID)
		default:
			fmt.Println("Nothing to change")
		}
		return nil
	})
}

func runRm(cmd *cobra.Command, args []string) error {
	return runForUser(func(ctx context.Context, app *facade.Facade, client *facade.UserClient) error {
		result, err := client.DeleteTree(ctx, args[0], rmHard)
		if err != nil {
			return err
		}

		if flagJSON {
			return writeJSON(result)
		}
		verb := "Trashed"
		if result.HardDeleted {
			verb = "Deleted"
		}
		fmt.Printf("%s %d files and %d folders\n", verb, result.FilesRemoved, result.FoldersRemoved)
		return nil
	})
}

func runVerify(cmd *cobra.Command, args []string) error {
	return runForUser(func(ctx context.Context, app *facade.Facade, client *facade.UserClient) error {
		node, err := client.VerifyIsFolder(ctx, args[0])
		if err != nil {
			return err
		}

		if flagJSON {
			return writeJSON(node)
		}
		fmt.Printf("%s is a folder (%s)\n", node.ID, node.Name)
		return nil
	})
}

func runDefaultFolder(cmd *cobra.Command, args []string) error {
	return runForUser(func(ctx context.Context, app *facade.Facade, client *facade.UserClient) error {
		if len(args) == 0 {
			if client.DefaultFolderID == "" {
				fmt.Println("No default folder set")
				return nil
			}
			fmt.Println(client.DefaultFolderID)
			return nil
		}

		node, err := client.VerifyIsFolder(ctx, args[0])
		if err != nil {
			return err
		}
		if err := app.Store().SetDefaultFolderID(ctx, client.UserID, node.ID); err != nil {
			return err
		}
		fmt.Printf("Default folder set to %s (%s)\n", node.ID, node.Name)
		return nil
	})
}

func kindLabel(n *types.RemoteNode) string {
	if n.IsFolder() {
		return "folder"
	}
	return "file"
}
