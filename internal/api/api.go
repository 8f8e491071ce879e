// Package api wraps the Drive API behind a narrow port so the tree and
// permission managers stay testable without a live service.
package api

import (
	"context"

	"google.golang.org/api/drive/v3"
)

// Drive is the set of remote calls this core issues. Implemented by
// Client over the real service and by the test fake.
type Drive interface {
	// GetFile fetches file metadata restricted to the given fields
	GetFile(ctx context.Context, fileID, fields string) (*drive.File, error)

	// CreateFile creates a file or folder from the given metadata
	CreateFile(ctx context.Context, file *drive.File) (*drive.File, error)

	// UpdateFile patches metadata and/or applies a parent delta. Empty
	// addParents/removeParents submit no parent mutation.
	UpdateFile(ctx context.Context, fileID string, meta *drive.File, addParents, removeParents string) (*drive.File, error)

	// ListFiles runs a query and returns one page of results
	ListFiles(ctx context.Context, query, pageToken string, pageSize int64) (*drive.FileList, error)

	// DeleteFile permanently deletes a node, bypassing trash
	DeleteFile(ctx context.Context, fileID string) error

	// TrashFile soft-deletes a node
	TrashFile(ctx context.Context, fileID string) error

	// ListPermissions returns one page of a node's permissions
	ListPermissions(ctx context.Context, fileID, pageToken string) (*drive.PermissionList, error)

	// CreatePermission adds a grant to a node
	CreatePermission(ctx context.Context, fileID string, perm *drive.Permission, sendNotification bool) (*drive.Permission, error)

	// DeletePermission removes a grant from a node
	DeletePermission(ctx context.Context, fileID, permissionID string) error
}
