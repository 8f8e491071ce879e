// Package facade is the composition root: given an application user
// id, it returns a ready, authenticated client pair bound to that
// user's delegated credential.
package facade

import (
	"context"

	"github.com/appmechanic/driveconnect/internal/api"
	"github.com/appmechanic/driveconnect/internal/config"
	"github.com/appmechanic/driveconnect/internal/credentials"
	"github.com/appmechanic/driveconnect/internal/logging"
	"github.com/appmechanic/driveconnect/internal/permissions"
	"github.com/appmechanic/driveconnect/internal/session"
	"github.com/appmechanic/driveconnect/internal/statetoken"
	"github.com/appmechanic/driveconnect/internal/tree"
	"github.com/appmechanic/driveconnect/internal/types"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveBuilder constructs the remote port for a hydrated session.
// Injectable so the facade is testable without a live service.
type DriveBuilder func(ctx context.Context, sess *session.UserSession) (api.Drive, error)

// Facade wires the credential store, session manager, and remote
// clients together. Each ForUser call is stateless apart from the
// credential-persistence side effect.
type Facade struct {
	cfg      *config.Config
	store    *credentials.Store
	sessions *session.Manager
	logger   logging.Logger
	newDrive DriveBuilder
}

// New creates the facade over the user/account collaborator
func New(cfg *config.Config, users credentials.UserStore, logger logging.Logger) *Facade {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	store := credentials.NewStore(users)
	codec := statetoken.NewCodec(cfg.StateSigningSecret)

	f := &Facade{
		cfg:      cfg,
		store:    store,
		sessions: session.NewManager(cfg.OAuthConfig(), codec, store, logger),
		logger:   logger,
	}
	f.newDrive = f.buildDrive
	return f
}

func (f *Facade) buildDrive(ctx context.Context, sess *session.UserSession) (api.Drive, error) {
	svc, err := drive.NewService(ctx, option.WithTokenSource(sess.TokenSource()))
	if err != nil {
		return nil, err
	}
	return api.NewClient(svc, f.logger), nil
}

// BuildConsentURL starts a connect attempt for the user
func (f *Facade) BuildConsentURL(userID string) (string, error) {
	return f.sessions.BuildConsentURL(userID)
}

// ExchangeCode completes a connect attempt from the provider redirect
func (f *Facade) ExchangeCode(ctx context.Context, code, state string) (*session.ExchangeResult, error) {
	return f.sessions.Exchange(ctx, code, state)
}

// Sessions exposes the session manager for rotation flushing in hosts
// that need a clean shutdown
func (f *Facade) Sessions() *session.Manager {
	return f.sessions
}

// Store exposes the credential store
func (f *Facade) Store() *credentials.Store {
	return f.store
}

// UserClient is a ready, authenticated client pair for one user
type UserClient struct {
	UserID          string
	DefaultFolderID string

	tree  *tree.Manager
	perms *permissions.Manager
}

// ForUser hydrates the user's credential, ensures a fresh access
// token, and returns clients bound to the user's account. A user with
// no connected credential fails with NOT_CONNECTED before any remote
// call; a permanently revoked grant fails with AUTH_EXPIRED and flips
// the credential to disconnected.
func (f *Facade) ForUser(ctx context.Context, userID string) (*UserClient, error) {
	sess, err := f.sessions.Hydrate(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := f.sessions.EnsureFresh(ctx, sess); err != nil {
		return nil, err
	}

	remote, err := f.newDrive(ctx, sess)
	if err != nil {
		return nil, err
	}

	defaultFolderID, err := f.store.DefaultFolderID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &UserClient{
		UserID:          userID,
		DefaultFolderID: defaultFolderID,
		tree:            tree.NewManager(remote),
		perms:           permissions.NewManager(remote),
	}, nil
}

// Tree returns the user's tree manager
func (c *UserClient) Tree() *tree.Manager {
	return c.tree
}

// Permissions returns the user's permission manager
func (c *UserClient) Permissions() *permissions.Manager {
	return c.perms
}

func (c *UserClient) EnsureFolder(ctx context.Context, name, parentID string) (*types.RemoteNode, error) {
	return c.tree.EnsureFolder(ctx, name, parentID)
}

func (c *UserClient) EnsurePath(ctx context.Context, segments []string, rootParentID string) (*types.RemoteNode, error) {
	return c.tree.EnsurePath(ctx, segments, rootParentID)
}

func (c *UserClient) VerifyIsFolder(ctx context.Context, id string) (*types.RemoteNode, error) {
	return c.tree.VerifyIsFolder(ctx, id)
}

func (c *UserClient) CreateOrMoveOrRename(ctx context.Context, id string, opts tree.MoveRenameOptions) (*tree.MoveRenameResult, error) {
	return c.tree.CreateOrMoveOrRename(ctx, id, opts)
}

func (c *UserClient) ListChildren(ctx context.Context, parentID, pageToken string) (*types.ChildPage, error) {
	return c.tree.ListChildren(ctx, parentID, pageToken)
}

func (c *UserClient) DeleteTree(ctx context.Context, rootID string, hardDelete bool) (*tree.DeleteTreeResult, error) {
	return c.tree.DeleteTree(ctx, rootID, hardDelete)
}

func (c *UserClient) EnsurePublicReader(ctx context.Context, id string) (*types.ShareGrant, error) {
	return c.perms.EnsurePublicReader(ctx, id)
}

func (c *UserClient) GrantToUser(ctx context.Context, id, email, role string, notify bool) (*types.ShareGrant, error) {
	return c.perms.GrantToUser(ctx, id, email, role, notify)
}

func (c *UserClient) RevokePublic(ctx context.Context, id string) error {
	return c.perms.RevokePublic(ctx, id)
}

func (c *UserClient) IsPublic(ctx context.Context, id string) (bool, error) {
	return c.perms.IsPublic(ctx, id)
}
