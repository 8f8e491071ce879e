package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/appmechanic/driveconnect/internal/logging"
	"github.com/appmechanic/driveconnect/internal/utils"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Account connection commands",
	Long:  "Connect, inspect, and disconnect the user's Google account",
}

var authConnectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Start connecting a Google account",
	Long: `Print the consent URL for the user. After the user approves, the
provider redirects with code and state; complete the flow with
"auth finish <code> <state>".`,
	RunE: runAuthConnect,
}

var authFinishCmd = &cobra.Command{
	Use:   "finish <code> <state>",
	Short: "Complete a connect attempt",
	Long:  "Exchange the authorization code and persist the user's credential",
	Args:  cobra.ExactArgs(2),
	RunE:  runAuthFinish,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the user's connection status",
	RunE:  runAuthStatus,
}

var authDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Disconnect the user's Google account",
	Long:  "Mark the stored credential disconnected; the account and scope history is kept",
	RunE:  runAuthDisconnect,
}

func init() {
	authCmd.AddCommand(authConnectCmd)
	authCmd.AddCommand(authFinishCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authDisconnectCmd)
}

func runAuthConnect(cmd *cobra.Command, args []string) error {
	userID, err := requireUser()
	if err != nil {
		return err
	}

	app, err := newApp()
	if err != nil {
		return err
	}

	url, err := app.BuildConsentURL(userID)
	if err != nil {
		return err
	}

	fmt.Println("Open this URL in a browser and approve access:")
	fmt.Println()
	fmt.Println("  " + url)
	fmt.Println()
	fmt.Println("Then run: driveconnect auth finish <code> <state>")
	return nil
}

func runAuthFinish(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Sessions().Flush()

	result, err := app.ExchangeCode(context.Background(), args[0], args[1])
	if err != nil {
		return err
	}

	logger.Info("account connected",
		logging.F("userId", result.UserID),
		logging.F("accountEmail", result.AccountEmail),
	)
	fmt.Printf("Connected %s as %s\n", result.UserID, result.AccountEmail)
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	userID, err := requireUser()
	if err != nil {
		return err
	}

	app, err := newApp()
	if err != nil {
		return err
	}

	cred, err := app.Store().Load(context.Background(), userID)
	if err != nil {
		if utils.IsCode(err, utils.ErrCodeNotConnected) {
			fmt.Printf("%s: not connected\n", userID)
			return nil
		}
		return err
	}

	if flagJSON {
		return writeJSON(map[string]interface{}{
			"userId":       userID,
			"connected":    cred.Connected,
			"accountEmail": cred.AccountEmail,
			"scopes":       cred.Scopes,
			"tokenExpiry":  time.UnixMilli(cred.ExpiryEpochMillis).UTC().Format(time.RFC3339),
		})
	}

	state := "connected"
	if !cred.Connected {
		state = "disconnected"
	}
	renderKVTable([][]string{
		{"User", userID},
		{"Status", state},
		{"Account", cred.AccountEmail},
		{"Scopes", strings.Join(cred.Scopes, " ")},
		{"Token expiry", time.UnixMilli(cred.ExpiryEpochMillis).UTC().Format(time.RFC3339)},
	})
	return nil
}

func runAuthDisconnect(cmd *cobra.Command, args []string) error {
	userID, err := requireUser()
	if err != nil {
		return err
	}

	app, err := newApp()
	if err != nil {
		return err
	}

	if err := app.Store().MarkDisconnected(context.Background(), userID); err != nil {
		return err
	}
	fmt.Printf("Disconnected %s\n", userID)
	return nil
}
