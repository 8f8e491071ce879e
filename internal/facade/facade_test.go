package facade

import (
	"context"
	"testing"
	"time"

	"github.com/appmechanic/driveconnect/internal/api"
	"github.com/appmechanic/driveconnect/internal/config"
	"github.com/appmechanic/driveconnect/internal/credentials"
	"github.com/appmechanic/driveconnect/internal/session"
	"github.com/appmechanic/driveconnect/internal/testing/mocks"
	"github.com/appmechanic/driveconnect/internal/utils"
)

func testConfig() *config.Config {
	return &config.Config{
		ClientID:           "client-id",
		ClientSecret:       "client-secret",
		RedirectURL:        "https://app.example.com/callback",
		Scopes:             []string{"scope-a"},
		StateSigningSecret: "signing-secret",
		RequestTimeout:     30,
		LogLevel:           "info",
	}
}

// newTestFacade builds a facade whose remote port is a fake drive,
// returning the fake and a counter of drive builds
func newTestFacade(t *testing.T) (*Facade, *mocks.FakeDrive, *int) {
	t.Helper()
	f := New(testConfig(), mocks.NewFakeUserStore(), nil)

	fake := mocks.NewFakeDrive()
	builds := 0
	f.newDrive = func(ctx context.Context, sess *session.UserSession) (api.Drive, error) {
		builds++
		return fake, nil
	}
	return f, fake, &builds
}

func connectUser(t *testing.T, f *Facade, userID string) {
	t.Helper()
	fields := credentials.Fields{
		Connected:         credentials.Ptr(true),
		AccountID:         credentials.Ptr("acct-1"),
		AccountEmail:      credentials.Ptr("user@example.com"),
		AccessToken:       credentials.Ptr("at-valid"),
		RefreshToken:      credentials.Ptr("rt-valid"),
		TokenType:         credentials.Ptr("Bearer"),
		ExpiryEpochMillis: credentials.Ptr(time.Now().Add(time.Hour).UnixMilli()),
	}
	if err := f.Store().Save(context.Background(), userID, fields); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
}

func TestForUserNotConnected(t *testing.T) {
	f, _, builds := newTestFacade(t)

	_, err := f.ForUser(context.Background(), "stranger")
	if !utils.IsCode(err, utils.ErrCodeNotConnected) {
		t.Errorf("error code = %s, want NOT_CONNECTED", utils.CodeOf(err))
	}
	if *builds != 0 {
		t.Errorf("drive built %d times for unconnected user, want 0", *builds)
	}
}

func TestForUserDisconnected(t *testing.T) {
	f, _, builds := newTestFacade(t)
	ctx := context.Background()
	connectUser(t, f, "user-1")

	if err := f.Store().MarkDisconnected(ctx, "user-1"); err != nil {
		t.Fatalf("MarkDisconnected() error = %v", err)
	}

	_, err := f.ForUser(ctx, "user-1")
	if !utils.IsCode(err, utils.ErrCodeNotConnected) {
		t.Errorf("error code = %s, want NOT_CONNECTED", utils.CodeOf(err))
	}
	if *builds != 0 {
		t.Errorf("drive built %d times for disconnected user, want 0", *builds)
	}
}

func TestForUserReturnsBoundClient(t *testing.T) {
	f, fake, builds := newTestFacade(t)
	ctx := context.Background()
	connectUser(t, f, "user-1")

	if err := f.Store().SetDefaultFolderID(ctx, "user-1", "folder-default"); err != nil {
		t.Fatalf("SetDefaultFolderID() error = %v", err)
	}

	client, err := f.ForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ForUser() error = %v", err)
	}
	if client.UserID != "user-1" {
		t.Errorf("UserID = %q", client.UserID)
	}
	if client.DefaultFolderID != "folder-default" {
		t.Errorf("DefaultFolderID = %q, want folder-default", client.DefaultFolderID)
	}
	if *builds != 1 {
		t.Errorf("drive built %d times, want 1", *builds)
	}

	// The client operates against the user's drive
	fake.AddFolder("root", "My Drive")
	node, err := client.EnsureFolder(ctx, "inbox", "root")
	if err != nil {
		t.Fatalf("EnsureFolder() error = %v", err)
	}
	if node.Name != "inbox" {
		t.Errorf("node name = %q", node.Name)
	}

	grant, err := client.EnsurePublicReader(ctx, node.ID)
	if err != nil {
		t.Fatalf("EnsurePublicReader() error = %v", err)
	}
	if grant.AlreadyPublic {
		t.Error("AlreadyPublic = true on first grant")
	}

	public, err := client.IsPublic(ctx, node.ID)
	if err != nil {
		t.Fatalf("IsPublic() error = %v", err)
	}
	if !public {
		t.Error("IsPublic() = false after public grant")
	}
}

func TestConsentFlowThroughFacade(t *testing.T) {
	f, _, _ := newTestFacade(t)

	url, err := f.BuildConsentURL("user-1")
	if err != nil {
		t.Fatalf("BuildConsentURL() error = %v", err)
	}
	if url == "" {
		t.Fatal("BuildConsentURL() returned empty URL")
	}

	// A state signed by someone else is rejected before any exchange
	_, err = f.ExchangeCode(context.Background(), "auth-code", "forged-state")
	if !utils.IsCode(err, utils.ErrCodeInvalidState) {
		t.Errorf("error code = %s, want INVALID_STATE", utils.CodeOf(err))
	}
}
