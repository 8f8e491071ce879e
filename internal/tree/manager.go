// Package tree implements idempotent folder operations against the
// remote hierarchy. The hierarchy is a DAG, not a tree: a node may be
// reachable through several parents, so every traversal deduplicates
// visited ids and parent sets are never assumed to be singletons.
package tree

import (
	"context"
	"fmt"
	"strings"

	"github.com/appmechanic/driveconnect/internal/api"
	"github.com/appmechanic/driveconnect/internal/types"
	"github.com/appmechanic/driveconnect/internal/utils"
	"google.golang.org/api/drive/v3"
)

const listPageSize = 100

// Manager handles folder and file tree operations
type Manager struct {
	drive api.Drive
}

// NewManager creates a new tree manager
func NewManager(drive api.Drive) *Manager {
	return &Manager{drive: drive}
}

// EnsureFolder returns the id of the untrashed folder with the given
// name under parentID, creating it when absent. Concurrent callers may
// race to create duplicates; there is no cross-process lock.
func (m *Manager) EnsureFolder(ctx context.Context, name, parentID string) (*types.RemoteNode, error) {
	if strings.TrimSpace(name) == "" {
		return nil, utils.NewOpError(utils.ErrCodeInvalidArgument, "folder name is required").Err()
	}

	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		escapeQuery(name), types.MimeTypeFolder)
	if parentID != "" {
		query += fmt.Sprintf(" and '%s' in parents", escapeQuery(parentID))
	}

	result, err := m.drive.ListFiles(ctx, query, "", 1)
	if err != nil {
		return nil, err
	}
	if len(result.Files) > 0 {
		return convertNode(result.Files[0]), nil
	}

	metadata := &drive.File{
		Name:     name,
		MimeType: types.MimeTypeFolder,
	}
	if parentID != "" {
		metadata.Parents = []string{parentID}
	}

	created, err := m.drive.CreateFile(ctx, metadata)
	if err != nil {
		return nil, err
	}
	return convertNode(created), nil
}

// EnsurePath folds EnsureFolder left to right over the segments and
// returns the node for the final segment. Empty segments are skipped.
func (m *Manager) EnsurePath(ctx context.Context, segments []string, rootParentID string) (*types.RemoteNode, error) {
	parentID := rootParentID
	var node *types.RemoteNode

	for _, segment := range segments {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		var err error
		node, err = m.EnsureFolder(ctx, segment, parentID)
		if err != nil {
			return nil, err
		}
		parentID = node.ID
	}

	if node == nil {
		return nil, utils.NewOpError(utils.ErrCodeInvalidArgument, "path has no segments").Err()
	}
	return node, nil
}

// VerifyIsFolder checks that id names an existing untrashed folder.
// Not-found and wrong-kind are distinct failures because callers
// surface different messages for them.
func (m *Manager) VerifyIsFolder(ctx context.Context, id string) (*types.RemoteNode, error) {
	file, err := m.drive.GetFile(ctx, id, "id,name,mimeType,parents,trashed")
	if err != nil {
		if utils.IsCode(err, utils.ErrCodeNotFound) {
			return nil, utils.NewOpError(utils.ErrCodeNotFound,
				fmt.Sprintf("folder %s does not exist", id)).Err()
		}
		return nil, err
	}

	node := convertNode(file)
	if !node.IsFolder() || node.Trashed {
		return nil, utils.NewOpError(utils.ErrCodeNotAFolder,
			fmt.Sprintf("%s is not a folder", id)).Err()
	}
	return node, nil
}

// MoveRenameOptions describes the desired rename and/or reparent
type MoveRenameOptions struct {
	// NewName renames the node when non-empty and different
	NewName string
	// NewParentID reparents the node when non-empty
	NewParentID string
	// KeepOldParents leaves existing parents in place, so the node
	// gains a parent instead of moving
	KeepOldParents bool
}

// MoveRenameResult reports what actually changed
type MoveRenameResult struct {
	Node    *types.RemoteNode
	Moved   bool
	Renamed bool
}

// CreateOrMoveOrRename applies a minimal parent delta and/or rename.
// The new parent is added only when absent; old parents are removed
// only when KeepOldParents is false and they differ from the new
// parent. A no-op move submits no parent mutation at all, since the
// remote API rejects empty parent mutations.
func (m *Manager) CreateOrMoveOrRename(ctx context.Context, id string, opts MoveRenameOptions) (*MoveRenameResult, error) {
	current, err := m.drive.GetFile(ctx, id, "id,name,mimeType,parents,trashed")
	if err != nil {
		return nil, err
	}

	parents := make(map[string]bool, len(current.Parents))
	for _, p := range current.Parents {
		parents[p] = true
	}

	var addParents string
	var removeList []string
	if opts.NewParentID != "" {
		if !parents[opts.NewParentID] {
			addParents = opts.NewParentID
		}
		if !opts.KeepOldParents {
			for _, p := range current.Parents {
				if p != opts.NewParentID {
					removeList = append(removeList, p)
				}
			}
		}
	}
	removeParents := strings.Join(removeList, ",")
	moved := addParents != "" || removeParents != ""

	meta := &drive.File{}
	renamed := opts.NewName != "" && opts.NewName != current.Name
	if renamed {
		meta.Name = opts.NewName
	}

	if !moved && !renamed {
		return &MoveRenameResult{Node: convertNode(current)}, nil
	}

	updated, err := m.drive.UpdateFile(ctx, id, meta, addParents, removeParents)
	if err != nil {
		return nil, err
	}

	return &MoveRenameResult{
		Node:    convertNode(updated),
		Moved:   moved,
		Renamed: renamed,
	}, nil
}

// ListChildren returns one page of a folder's untrashed children. The
// caller drives pagination by passing the returned token back in.
func (m *Manager) ListChildren(ctx context.Context, parentID, pageToken string) (*types.ChildPage, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(parentID))

	result, err := m.drive.ListFiles(ctx, query, pageToken, listPageSize)
	if err != nil {
		return nil, err
	}

	nodes := make([]*types.RemoteNode, len(result.Files))
	for i, f := range result.Files {
		nodes[i] = convertNode(f)
	}

	return &types.ChildPage{
		Nodes:         nodes,
		NextPageToken: result.NextPageToken,
	}, nil
}

// DeleteTreeResult summarizes one DeleteTree pass
type DeleteTreeResult struct {
	FilesRemoved   int  `json:"filesRemoved"`
	FoldersRemoved int  `json:"foldersRemoved"`
	HardDeleted    bool `json:"hardDeleted"`
}

// DeleteTree removes the whole subtree rooted at rootID, trashing by
// default or permanently deleting when hardDelete is set.
//
// Traversal is breadth-first with a visited set, because a node can be
// reachable through multiple parents. All descendant files across the
// subtree are removed first, then folders in reverse discovery order,
// so no folder is removed before its contents. Nodes that vanished
// since discovery (or were removed by an earlier, cancelled pass) are
// skipped rather than re-errored, which makes a repeated call
// idempotent. A root that is already gone, or already trashed in trash
// mode, counts as removed: the call succeeds without submitting any
// mutation.
func (m *Manager) DeleteTree(ctx context.Context, rootID string, hardDelete bool) (*DeleteTreeResult, error) {
	root, err := m.drive.GetFile(ctx, rootID, "id,mimeType,trashed")
	if err != nil {
		if utils.IsCode(err, utils.ErrCodeNotFound) {
			return &DeleteTreeResult{HardDeleted: hardDelete}, nil
		}
		return nil, err
	}
	if root.Trashed && !hardDelete {
		return &DeleteTreeResult{}, nil
	}

	visited := map[string]bool{rootID: true}
	folderOrder := []string{rootID}
	queue := []string{rootID}

	seenFiles := make(map[string]bool)
	var fileIDs []string

	for len(queue) > 0 {
		folderID := queue[0]
		queue = queue[1:]

		pageToken := ""
		for {
			page, err := m.ListChildren(ctx, folderID, pageToken)
			if err != nil {
				if utils.IsCode(err, utils.ErrCodeNotFound) {
					break
				}
				return nil, err
			}

			for _, node := range page.Nodes {
				if node.IsFolder() {
					if !visited[node.ID] {
						visited[node.ID] = true
						folderOrder = append(folderOrder, node.ID)
						queue = append(queue, node.ID)
					}
				} else if !seenFiles[node.ID] {
					seenFiles[node.ID] = true
					fileIDs = append(fileIDs, node.ID)
				}
			}

			if page.NextPageToken == "" {
				break
			}
			pageToken = page.NextPageToken
		}
	}

	result := &DeleteTreeResult{HardDeleted: hardDelete}

	for _, id := range fileIDs {
		removed, err := m.remove(ctx, id, hardDelete)
		if err != nil {
			return nil, err
		}
		if removed {
			result.FilesRemoved++
		}
	}

	for i := len(folderOrder) - 1; i >= 0; i-- {
		removed, err := m.remove(ctx, folderOrder[i], hardDelete)
		if err != nil {
			return nil, err
		}
		if removed {
			result.FoldersRemoved++
		}
	}

	return result, nil
}

// remove deletes or trashes one node, treating not-found as already
// removed
func (m *Manager) remove(ctx context.Context, id string, hardDelete bool) (bool, error) {
	var err error
	if hardDelete {
		err = m.drive.DeleteFile(ctx, id)
	} else {
		err = m.drive.TrashFile(ctx, id)
	}
	if err != nil {
		if utils.IsCode(err, utils.ErrCodeNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// escapeQuery escapes a value for embedding in a Drive query string
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

func convertNode(f *drive.File) *types.RemoteNode {
	kind := types.KindFile
	if f.MimeType == types.MimeTypeFolder {
		kind = types.KindFolder
	}
	return &types.RemoteNode{
		ID:       f.Id,
		Name:     f.Name,
		Kind:     kind,
		MimeType: f.MimeType,
		Parents:  f.Parents,
		Trashed:  f.Trashed,
	}
}
