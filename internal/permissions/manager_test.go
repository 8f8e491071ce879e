package permissions

import (
	"context"
	"testing"

	"github.com/appmechanic/driveconnect/internal/testing/mocks"
	"github.com/appmechanic/driveconnect/internal/types"
	"github.com/appmechanic/driveconnect/internal/utils"
	"google.golang.org/api/drive/v3"
)

func TestEnsurePublicReaderCreatesGrant(t *testing.T) {
	fake := mocks.NewFakeDrive()
	fake.AddFile("doc", "doc.txt")
	m := NewManager(fake)

	grant, err := m.EnsurePublicReader(context.Background(), "doc")
	if err != nil {
		t.Fatalf("EnsurePublicReader() error = %v", err)
	}
	if grant.AlreadyPublic {
		t.Error("AlreadyPublic = true on first grant")
	}
	if grant.TargetType != types.GrantAnyone || grant.Role != RoleReader {
		t.Errorf("grant = %+v, want anyone/reader", grant)
	}
	if perms := fake.Permissions("doc"); len(perms) != 1 || perms[0].Type != "anyone" {
		t.Errorf("stored permissions = %+v", perms)
	}
}

func TestEnsurePublicReaderShortCircuitsWhenPublic(t *testing.T) {
	fake := mocks.NewFakeDrive()
	fake.AddFile("doc", "doc.txt")
	fake.AddPermission("doc", &drive.Permission{Id: "perm-existing", Type: "anyone", Role: "reader"})
	m := NewManager(fake)

	grant, err := m.EnsurePublicReader(context.Background(), "doc")
	if err != nil {
		t.Fatalf("EnsurePublicReader() error = %v", err)
	}
	if !grant.AlreadyPublic {
		t.Error("AlreadyPublic = false, want true")
	}
	if grant.PermissionID != "perm-existing" {
		t.Errorf("PermissionID = %s, want perm-existing", grant.PermissionID)
	}
	if creates := fake.CallsFor("createPermission"); len(creates) != 0 {
		t.Errorf("created %d permissions, want 0", len(creates))
	}
}

func TestEnsurePublicReaderMissingNode(t *testing.T) {
	m := NewManager(mocks.NewFakeDrive())

	_, err := m.EnsurePublicReader(context.Background(), "ghost")
	if !utils.IsCode(err, utils.ErrCodeNotFound) {
		t.Errorf("error code = %s, want NOT_FOUND", utils.CodeOf(err))
	}
}

func TestGrantToUser(t *testing.T) {
	fake := mocks.NewFakeDrive()
	fake.AddFile("doc", "doc.txt")
	m := NewManager(fake)

	grant, err := m.GrantToUser(context.Background(), "doc", "friend@example.com", "writer", false)
	if err != nil {
		t.Fatalf("GrantToUser() error = %v", err)
	}
	if grant.TargetType != types.GrantUser || grant.Role != "writer" {
		t.Errorf("grant = %+v, want user/writer", grant)
	}
	if grant.Email != "friend@example.com" {
		t.Errorf("Email = %q", grant.Email)
	}
}

func TestGrantToUserDefaultsToReader(t *testing.T) {
	fake := mocks.NewFakeDrive()
	fake.AddFile("doc", "doc.txt")
	m := NewManager(fake)

	grant, err := m.GrantToUser(context.Background(), "doc", "friend@example.com", "", false)
	if err != nil {
		t.Fatalf("GrantToUser() error = %v", err)
	}
	if grant.Role != RoleReader {
		t.Errorf("Role = %q, want reader", grant.Role)
	}
}

func TestGrantToUserRequiresEmail(t *testing.T) {
	m := NewManager(mocks.NewFakeDrive())

	_, err := m.GrantToUser(context.Background(), "doc", "  ", "reader", false)
	if !utils.IsCode(err, utils.ErrCodeInvalidArgument) {
		t.Errorf("error code = %s, want INVALID_ARGUMENT", utils.CodeOf(err))
	}
}

func TestRevokePublic(t *testing.T) {
	fake := mocks.NewFakeDrive()
	fake.AddFile("doc", "doc.txt")
	fake.AddPermission("doc", &drive.Permission{Id: "perm-1", Type: "anyone", Role: "reader"})
	fake.AddPermission("doc", &drive.Permission{Id: "perm-2", Type: "user", Role: "writer", EmailAddress: "friend@example.com"})
	m := NewManager(fake)
	ctx := context.Background()

	if err := m.RevokePublic(ctx, "doc"); err != nil {
		t.Fatalf("RevokePublic() error = %v", err)
	}

	perms := fake.Permissions("doc")
	if len(perms) != 1 || perms[0].Id != "perm-2" {
		t.Errorf("remaining permissions = %+v, want only the user grant", perms)
	}

	// Already private: a no-op, not an error
	if err := m.RevokePublic(ctx, "doc"); err != nil {
		t.Errorf("RevokePublic() on private node error = %v", err)
	}
}

func TestIsPublic(t *testing.T) {
	fake := mocks.NewFakeDrive()
	fake.AddFile("doc", "doc.txt")
	m := NewManager(fake)
	ctx := context.Background()

	public, err := m.IsPublic(ctx, "doc")
	if err != nil {
		t.Fatalf("IsPublic() error = %v", err)
	}
	if public {
		t.Error("IsPublic() = true for private node")
	}

	if _, err := m.EnsurePublicReader(ctx, "doc"); err != nil {
		t.Fatalf("EnsurePublicReader() error = %v", err)
	}

	public, err = m.IsPublic(ctx, "doc")
	if err != nil {
		t.Fatalf("IsPublic() error = %v", err)
	}
	if !public {
		t.Error("IsPublic() = false after public grant")
	}
}
