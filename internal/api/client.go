package api

import (
	"context"
	"time"

	apierrors "github.com/appmechanic/driveconnect/internal/errors"
	"github.com/appmechanic/driveconnect/internal/logging"
	"github.com/google/uuid"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// Client implements Drive over the real service, adding per-call
// logging and error classification. Transient failures are surfaced,
// never retried here: retry safety differs per operation, so the
// decision belongs to the caller.
type Client struct {
	service *drive.Service
	logger  logging.Logger
}

// NewClient creates a new Drive API client
func NewClient(service *drive.Service, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &Client{
		service: service,
		logger:  logger,
	}
}

// Service returns the underlying Drive service
func (c *Client) Service() *drive.Service {
	return c.service
}

// execute runs one remote call with trace logging and classification
func execute[T any](c *Client, op string, fn func() (T, error)) (T, error) {
	logger := c.logger.WithTraceID(uuid.New().String())
	logger.Debug("remote call starting", logging.F("op", op))

	start := time.Now()
	result, err := fn()
	duration := time.Since(start)

	if err != nil {
		return result, apierrors.ClassifyDriveError(op, err, logger)
	}

	logger.Debug("remote call completed",
		logging.F("op", op),
		logging.F("duration_ms", duration.Milliseconds()),
	)
	return result, nil
}

func (c *Client) GetFile(ctx context.Context, fileID, fields string) (*drive.File, error) {
	return execute(c, "files.get", func() (*drive.File, error) {
		call := c.service.Files.Get(fileID).Context(ctx).SupportsAllDrives(true)
		if fields != "" {
			call = call.Fields(googleapi.Field(fields))
		}
		return call.Do()
	})
}

func (c *Client) CreateFile(ctx context.Context, file *drive.File) (*drive.File, error) {
	return execute(c, "files.create", func() (*drive.File, error) {
		return c.service.Files.Create(file).
			Context(ctx).
			SupportsAllDrives(true).
			Fields("id,name,mimeType,parents,trashed").
			Do()
	})
}

func (c *Client) UpdateFile(ctx context.Context, fileID string, meta *drive.File, addParents, removeParents string) (*drive.File, error) {
	return execute(c, "files.update", func() (*drive.File, error) {
		call := c.service.Files.Update(fileID, meta).
			Context(ctx).
			SupportsAllDrives(true).
			Fields("id,name,mimeType,parents,trashed")
		if addParents != "" {
			call = call.AddParents(addParents)
		}
		if removeParents != "" {
			call = call.RemoveParents(removeParents)
		}
		return call.Do()
	})
}

func (c *Client) ListFiles(ctx context.Context, query, pageToken string, pageSize int64) (*drive.FileList, error) {
	return execute(c, "files.list", func() (*drive.FileList, error) {
		call := c.service.Files.List().
			Context(ctx).
			SupportsAllDrives(true).
			IncludeItemsFromAllDrives(true).
			Q(query).
			Fields("nextPageToken,files(id,name,mimeType,parents,trashed)")
		if pageSize > 0 {
			call = call.PageSize(pageSize)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		return call.Do()
	})
}

func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	_, err := execute(c, "files.delete", func() (interface{}, error) {
		return nil, c.service.Files.Delete(fileID).
			Context(ctx).
			SupportsAllDrives(true).
			Do()
	})
	return err
}

func (c *Client) TrashFile(ctx context.Context, fileID string) error {
	_, err := execute(c, "files.trash", func() (interface{}, error) {
		return c.service.Files.Update(fileID, &drive.File{Trashed: true}).
			Context(ctx).
			SupportsAllDrives(true).
			Fields("id,trashed").
			Do()
	})
	return err
}

func (c *Client) ListPermissions(ctx context.Context, fileID, pageToken string) (*drive.PermissionList, error) {
	return execute(c, "permissions.list", func() (*drive.PermissionList, error) {
		call := c.service.Permissions.List(fileID).
			Context(ctx).
			SupportsAllDrives(true).
			Fields("nextPageToken,permissions(id,type,role,emailAddress)")
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		return call.Do()
	})
}

func (c *Client) CreatePermission(ctx context.Context, fileID string, perm *drive.Permission, sendNotification bool) (*drive.Permission, error) {
	return execute(c, "permissions.create", func() (*drive.Permission, error) {
		return c.service.Permissions.Create(fileID, perm).
			Context(ctx).
			SupportsAllDrives(true).
			SendNotificationEmail(sendNotification).
			Fields("id,type,role,emailAddress").
			Do()
	})
}

func (c *Client) DeletePermission(ctx context.Context, fileID, permissionID string) error {
	_, err := execute(c, "permissions.delete", func() (interface{}, error) {
		return nil, c.service.Permissions.Delete(fileID, permissionID).
			Context(ctx).
			SupportsAllDrives(true).
			Do()
	})
	return err
}
