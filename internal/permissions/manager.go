// Package permissions manages sharing grants on remote nodes. Public
// visibility is a two-state machine per node: EnsurePublicReader moves
// Private -> Public, RevokePublic moves Public -> Private, and
// per-email grants are orthogonal to both.
package permissions

import (
	"context"
	"fmt"
	"strings"

	"github.com/appmechanic/driveconnect/internal/api"
	"github.com/appmechanic/driveconnect/internal/types"
	"github.com/appmechanic/driveconnect/internal/utils"
	"google.golang.org/api/drive/v3"
)

// RoleReader is the default role for public link sharing
const RoleReader = "reader"

// Manager handles permission operations
type Manager struct {
	drive api.Drive
}

// NewManager creates a new permission manager
func NewManager(drive api.Drive) *Manager {
	return &Manager{drive: drive}
}

// EnsurePublicReader makes the node readable by anyone with the link.
// When an "anyone" grant already exists the call short-circuits with
// AlreadyPublic set and performs no mutation.
func (m *Manager) EnsurePublicReader(ctx context.Context, id string) (*types.ShareGrant, error) {
	existing, err := m.findAnyonePermission(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &types.ShareGrant{
			PermissionID:  existing.Id,
			TargetType:    types.GrantAnyone,
			Role:          existing.Role,
			AlreadyPublic: true,
		}, nil
	}

	created, err := m.drive.CreatePermission(ctx, id, &drive.Permission{
		Type: "anyone",
		Role: RoleReader,
	}, false)
	if err != nil {
		return nil, err
	}

	return &types.ShareGrant{
		PermissionID: created.Id,
		TargetType:   types.GrantAnyone,
		Role:         created.Role,
	}, nil
}

// GrantToUser shares the node with one account by email, optionally
// sending a notification email. Orthogonal to public visibility.
func (m *Manager) GrantToUser(ctx context.Context, id, email, role string, notify bool) (*types.ShareGrant, error) {
	if strings.TrimSpace(email) == "" {
		return nil, utils.NewOpError(utils.ErrCodeInvalidArgument, "email is required").Err()
	}
	if role == "" {
		role = RoleReader
	}

	created, err := m.drive.CreatePermission(ctx, id, &drive.Permission{
		Type:         "user",
		Role:         role,
		EmailAddress: email,
	}, notify)
	if err != nil {
		return nil, err
	}

	return &types.ShareGrant{
		PermissionID: created.Id,
		TargetType:   types.GrantUser,
		Role:         created.Role,
		Email:        created.EmailAddress,
	}, nil
}

// RevokePublic deletes the node's "anyone" grant. A node that is not
// public is a no-op, not an error.
func (m *Manager) RevokePublic(ctx context.Context, id string) error {
	existing, err := m.findAnyonePermission(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	return m.drive.DeletePermission(ctx, id, existing.Id)
}

// IsPublic reports whether the node has an "anyone" grant
func (m *Manager) IsPublic(ctx context.Context, id string) (bool, error) {
	existing, err := m.findAnyonePermission(ctx, id)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

// findAnyonePermission pages through the node's permissions looking
// for an "anyone" grant
func (m *Manager) findAnyonePermission(ctx context.Context, id string) (*drive.Permission, error) {
	pageToken := ""
	for {
		result, err := m.drive.ListPermissions(ctx, id, pageToken)
		if err != nil {
			if utils.IsCode(err, utils.ErrCodeNotFound) {
				return nil, utils.NewOpError(utils.ErrCodeNotFound,
					fmt.Sprintf("node %s does not exist", id)).Err()
			}
			return nil, err
		}

		for _, p := range result.Permissions {
			if p.Type == "anyone" {
				return p, nil
			}
		}

		if result.NextPageToken == "" {
			return nil, nil
		}
		pageToken = result.NextPageToken
	}
}
