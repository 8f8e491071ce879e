// Package mocks provides in-memory fakes for the remote port and the
// user/account collaborator.
package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/appmechanic/driveconnect/internal/types"
	"github.com/appmechanic/driveconnect/internal/utils"
	"google.golang.org/api/drive/v3"
)

// FakeNode is one node in the fake drive
type FakeNode struct {
	ID       string
	Name     string
	MimeType string
	Parents  []string
	Trashed  bool
}

// FakeDrive is a stateful in-memory implementation of api.Drive. It
// records every mutating call in order, so tests can assert ordering
// guarantees. Error injection hooks override individual operations.
type FakeDrive struct {
	mu     sync.Mutex
	nodes  map[string]*FakeNode
	perms  map[string][]*drive.Permission
	nextID int

	// Calls records mutating operations as "op:id" strings in order
	Calls []string

	// PageSize forces fake pagination when > 0
	PageSize int

	// Error hooks; nil means default behavior
	GetFileErr          func(fileID string) error
	CreateFileErr       func(file *drive.File) error
	UpdateFileErr       func(fileID string) error
	ListFilesErr        func(query string) error
	DeleteFileErr       func(fileID string) error
	ListPermissionsErr  func(fileID string) error
	CreatePermissionErr func(fileID string) error
}

// NewFakeDrive creates an empty fake drive
func NewFakeDrive() *FakeDrive {
	return &FakeDrive{
		nodes: make(map[string]*FakeNode),
		perms: make(map[string][]*drive.Permission),
	}
}

// AddNode seeds a node
func (d *FakeDrive) AddNode(n *FakeNode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nodes[n.ID] = n
}

// AddFolder seeds a folder under the given parents
func (d *FakeDrive) AddFolder(id, name string, parents ...string) {
	d.AddNode(&FakeNode{ID: id, Name: name, MimeType: types.MimeTypeFolder, Parents: parents})
}

// AddFile seeds a regular file under the given parents
func (d *FakeDrive) AddFile(id, name string, parents ...string) {
	d.AddNode(&FakeNode{ID: id, Name: name, MimeType: "text/plain", Parents: parents})
}

// AddPermission seeds a permission on a node
func (d *FakeDrive) AddPermission(fileID string, perm *drive.Permission) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.perms[fileID] = append(d.perms[fileID], perm)
}

// Node returns the current state of a node, or nil
func (d *FakeDrive) Node(id string) *FakeNode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.nodes[id]
}

// Permissions returns the current grants on a node
func (d *FakeDrive) Permissions(fileID string) []*drive.Permission {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*drive.Permission(nil), d.perms[fileID]...)
}

// CallsFor returns recorded calls filtered by op prefix
func (d *FakeDrive) CallsFor(op string) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, c := range d.Calls {
		if strings.HasPrefix(c, op+":") {
			out = append(out, c)
		}
	}
	return out
}

func (d *FakeDrive) record(op, id string) {
	d.Calls = append(d.Calls, op+":"+id)
}

func notFound(id string) error {
	return utils.NewOpError(utils.ErrCodeNotFound, "file not found: "+id).WithHTTPStatus(404).Err()
}

func (d *FakeDrive) GetFile(ctx context.Context, fileID, fields string) (*drive.File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.GetFileErr != nil {
		if err := d.GetFileErr(fileID); err != nil {
			return nil, err
		}
	}
	n, ok := d.nodes[fileID]
	if !ok {
		return nil, notFound(fileID)
	}
	return toDriveFile(n), nil
}

func (d *FakeDrive) CreateFile(ctx context.Context, file *drive.File) (*drive.File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.CreateFileErr != nil {
		if err := d.CreateFileErr(file); err != nil {
			return nil, err
		}
	}
	d.nextID++
	n := &FakeNode{
		ID:       fmt.Sprintf("node-%d", d.nextID),
		Name:     file.Name,
		MimeType: file.MimeType,
		Parents:  append([]string(nil), file.Parents...),
	}
	d.nodes[n.ID] = n
	d.record("create", n.ID)
	return toDriveFile(n), nil
}

func (d *FakeDrive) UpdateFile(ctx context.Context, fileID string, meta *drive.File, addParents, removeParents string) (*drive.File, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.UpdateFileErr != nil {
		if err := d.UpdateFileErr(fileID); err != nil {
			return nil, err
		}
	}
	n, ok := d.nodes[fileID]
	if !ok {
		return nil, notFound(fileID)
	}

	if meta != nil && meta.Name != "" {
		n.Name = meta.Name
	}
	if meta != nil && meta.Trashed {
		n.Trashed = true
		d.record("trash", fileID)
		return toDriveFile(n), nil
	}

	if removeParents != "" {
		remove := make(map[string]bool)
		for _, p := range strings.Split(removeParents, ",") {
			remove[p] = true
		}
		var kept []string
		for _, p := range n.Parents {
			if !remove[p] {
				kept = append(kept, p)
			}
		}
		n.Parents = kept
	}
	if addParents != "" {
		n.Parents = append(n.Parents, strings.Split(addParents, ",")...)
	}
	if addParents != "" || removeParents != "" {
		d.record("reparent", fileID)
	} else {
		d.record("update", fileID)
	}
	return toDriveFile(n), nil
}

func (d *FakeDrive) ListFiles(ctx context.Context, query, pageToken string, pageSize int64) (*drive.FileList, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ListFilesErr != nil {
		if err := d.ListFilesErr(query); err != nil {
			return nil, err
		}
	}

	var matched []*drive.File
	for _, n := range sortedNodes(d.nodes) {
		if matchQuery(n, query) {
			matched = append(matched, toDriveFile(n))
		}
	}

	if pageSize == 1 && len(matched) > 1 {
		matched = matched[:1]
	}

	if d.PageSize > 0 {
		start := 0
		if pageToken != "" {
			fmt.Sscanf(pageToken, "page-%d", &start)
		}
		end := start + d.PageSize
		next := ""
		if end < len(matched) {
			next = fmt.Sprintf("page-%d", end)
		} else {
			end = len(matched)
		}
		return &drive.FileList{Files: matched[start:end], NextPageToken: next}, nil
	}

	return &drive.FileList{Files: matched}, nil
}

func (d *FakeDrive) DeleteFile(ctx context.Context, fileID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.DeleteFileErr != nil {
		if err := d.DeleteFileErr(fileID); err != nil {
			return err
		}
	}
	if _, ok := d.nodes[fileID]; !ok {
		return notFound(fileID)
	}
	delete(d.nodes, fileID)
	d.record("delete", fileID)
	return nil
}

func (d *FakeDrive) TrashFile(ctx context.Context, fileID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.nodes[fileID]
	if !ok {
		return notFound(fileID)
	}
	n.Trashed = true
	d.record("trash", fileID)
	return nil
}

func (d *FakeDrive) ListPermissions(ctx context.Context, fileID, pageToken string) (*drive.PermissionList, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ListPermissionsErr != nil {
		if err := d.ListPermissionsErr(fileID); err != nil {
			return nil, err
		}
	}
	if _, ok := d.nodes[fileID]; !ok {
		return nil, notFound(fileID)
	}
	return &drive.PermissionList{Permissions: append([]*drive.Permission(nil), d.perms[fileID]...)}, nil
}

func (d *FakeDrive) CreatePermission(ctx context.Context, fileID string, perm *drive.Permission, sendNotification bool) (*drive.Permission, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.CreatePermissionErr != nil {
		if err := d.CreatePermissionErr(fileID); err != nil {
			return nil, err
		}
	}
	if _, ok := d.nodes[fileID]; !ok {
		return nil, notFound(fileID)
	}
	d.nextID++
	created := &drive.Permission{
		Id:           fmt.Sprintf("perm-%d", d.nextID),
		Type:         perm.Type,
		Role:         perm.Role,
		EmailAddress: perm.EmailAddress,
	}
	d.perms[fileID] = append(d.perms[fileID], created)
	d.record("createPermission", fileID)
	return created, nil
}

func (d *FakeDrive) DeletePermission(ctx context.Context, fileID, permissionID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.nodes[fileID]; !ok {
		return notFound(fileID)
	}
	var kept []*drive.Permission
	for _, p := range d.perms[fileID] {
		if p.Id != permissionID {
			kept = append(kept, p)
		}
	}
	d.perms[fileID] = kept
	d.record("deletePermission", fileID+"/"+permissionID)
	return nil
}

func toDriveFile(n *FakeNode) *drive.File {
	return &drive.File{
		Id:       n.ID,
		Name:     n.Name,
		MimeType: n.MimeType,
		Parents:  append([]string(nil), n.Parents...),
		Trashed:  n.Trashed,
	}
}

// matchQuery supports the two query shapes the core issues: a parent
// listing and an ensure-folder lookup.
func matchQuery(n *FakeNode, query string) bool {
	if strings.Contains(query, "trashed = false") && n.Trashed {
		return false
	}
	if name, ok := extractClause(query, "name = '"); ok && n.Name != name {
		return false
	}
	if mime, ok := extractClause(query, "mimeType = '"); ok && n.MimeType != mime {
		return false
	}
	if idx := strings.Index(query, "' in parents"); idx >= 0 {
		start := strings.LastIndex(query[:idx], "'")
		parent := query[start+1 : idx]
		found := false
		for _, p := range n.Parents {
			if p == parent {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func extractClause(query, prefix string) (string, bool) {
	idx := strings.Index(query, prefix)
	if idx < 0 {
		return "", false
	}
	rest := query[idx+len(prefix):]
	end := strings.Index(rest, "'")
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// sortedNodes returns nodes in stable insertion-ish order by id
func sortedNodes(nodes map[string]*FakeNode) []*FakeNode {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	// insertion order is not tracked; sort lexically for determinism
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	out := make([]*FakeNode, 0, len(ids))
	for _, id := range ids {
		out = append(out, nodes[id])
	}
	return out
}
