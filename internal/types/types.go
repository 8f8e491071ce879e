// Package types defines the shared domain types for the driveconnect core.
package types

// NodeKind distinguishes folders from regular files
type NodeKind string

const (
	KindFolder NodeKind = "folder"
	KindFile   NodeKind = "file"
)

// MimeTypeFolder is the Drive mime type marking a folder
const MimeTypeFolder = "application/vnd.google-apps.folder"

// RemoteNode is a file or folder in the remote hierarchy. The remote
// hierarchy is a DAG: a node may have multiple parents, so Parents is
// always treated as a set. Authoritative state lives in the remote
// service; nothing here is cached. Public visibility is not part of
// node metadata; it is queried through the permission manager.
type RemoteNode struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Kind     NodeKind `json:"kind"`
	MimeType string   `json:"mimeType"`
	Parents  []string `json:"parents,omitempty"`
	Trashed  bool     `json:"trashed"`
}

// IsFolder reports whether the node is a folder
func (n *RemoteNode) IsFolder() bool {
	return n.Kind == KindFolder
}

// ChildPage is one page of a folder listing. The caller drives
// pagination by passing NextPageToken back in.
type ChildPage struct {
	Nodes         []*RemoteNode `json:"nodes"`
	NextPageToken string        `json:"nextPageToken,omitempty"`
}

// GrantTarget is the audience of a share grant
type GrantTarget string

const (
	GrantAnyone GrantTarget = "anyone"
	GrantUser   GrantTarget = "user"
)

// ShareGrant is the transient result of a permission operation
type ShareGrant struct {
	PermissionID  string      `json:"permissionId,omitempty"`
	TargetType    GrantTarget `json:"targetType"`
	Role          string      `json:"role"`
	Email         string      `json:"email,omitempty"`
	AlreadyPublic bool        `json:"alreadyPublic,omitempty"`
}

// Credential holds the per-user delegated OAuth credential fields.
// Invariant: Connected implies RefreshToken is present. The refresh
// token is long-lived and never discarded implicitly; the access token
// is short-lived and freely replaced.
type Credential struct {
	Connected         bool     `json:"connected"`
	AccountID         string   `json:"accountId,omitempty"`
	AccountEmail      string   `json:"accountEmail,omitempty"`
	Scopes            []string `json:"scopes,omitempty"`
	AccessToken       string   `json:"accessToken,omitempty"`
	RefreshToken      string   `json:"refreshToken,omitempty"`
	TokenType         string   `json:"tokenType,omitempty"`
	ExpiryEpochMillis int64    `json:"expiryEpochMillis,omitempty"`
}

// HasScope reports whether the credential includes the given scope
func (c *Credential) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// UserRecord is what the user/account collaborator hands this core:
// the opaque credential blob plus the user's default folder reference.
type UserRecord struct {
	UserID          string `json:"userId"`
	CredentialBlob  []byte `json:"credentialBlob,omitempty"`
	DefaultFolderID string `json:"defaultFolderId,omitempty"`
}
