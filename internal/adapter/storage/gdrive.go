package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	appconfig "github.com/semmidev/dbbackup/internal/config"
	"github.com/semmidev/dbbackup/internal/domain"
)

// GDriveStorage maps a bucket to a Drive folder ID and a key to a file name
// inside that folder.
type GDriveStorage struct {
	service *drive.Service
	opts    Options
}

func NewGDrive(ctx context.Context, cfg appconfig.StorageConfig, opts Options) (*GDriveStorage, error) {
	clientOpt, err := driveClientOption(ctx, cfg)
	if err != nil {
		return nil, err
	}

	service, err := drive.NewService(ctx, clientOpt)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &GDriveStorage{service: service, opts: opts}, nil
}

// driveClientOption prefers a service account file. An OAuth client secret
// plus a refresh token authorizes as a user account instead.
func driveClientOption(ctx context.Context, cfg appconfig.StorageConfig) (option.ClientOption, error) {
	switch {
	case cfg.CredentialsFile != "":
		return option.WithCredentialsFile(cfg.CredentialsFile), nil

	case cfg.OAuthClientFile != "" && cfg.RefreshToken != "":
		b, err := os.ReadFile(cfg.OAuthClientFile)
		if err != nil {
			return nil, fmt.Errorf("unable to read oauth client file: %w", err)
		}
		oauthCfg, err := google.ConfigFromJSON(b, drive.DriveFileScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse oauth client file: %w", err)
		}
		source := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
		return option.WithTokenSource(source), nil

	default:
		return nil, fmt.Errorf("storage.credentials_file or storage.oauth_client_file with storage.refresh_token is required for the gdrive driver")
	}
}

func (g *GDriveStorage) Put(ctx context.Context, folderID, key, sourcePath string) error {
	upload, err := openUpload(sourcePath, key, g.opts.Progress)
	if err != nil {
		return err
	}
	defer upload.Close()

	_, err = g.service.Files.Create(&drive.File{
		Name:    key,
		Parents: []string{folderID},
	}).Media(upload.reader).Context(ctx).Do()
	return err
}

func (g *GDriveStorage) List(ctx context.Context, folderID, prefix string) ([]domain.ObjectInfo, error) {
	query := fmt.Sprintf("'%s' in parents and trashed=false", escapeQuery(folderID))

	var objects []domain.ObjectInfo
	err := g.service.Files.List().
		Q(query).
		Fields("nextPageToken, files(id, name, size, createdTime)").
		Context(ctx).
		Pages(ctx, func(page *drive.FileList) error {
			for _, file := range page.Files {
				if !strings.HasPrefix(file.Name, prefix) {
					continue
				}
				created, _ := time.Parse(time.RFC3339, file.CreatedTime)
				objects = append(objects, domain.ObjectInfo{
					Key:          file.Name,
					Size:         file.Size,
					LastModified: created,
				})
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	return objects, nil
}

func (g *GDriveStorage) Delete(ctx context.Context, folderID, key string) error {
	query := fmt.Sprintf("'%s' in parents and name='%s' and trashed=false",
		escapeQuery(folderID), escapeQuery(key))

	fileList, err := g.service.Files.List().
		Q(query).
		Fields("files(id)").
		Context(ctx).
		Do()
	if err != nil {
		return err
	}

	if len(fileList.Files) == 0 {
		return fmt.Errorf("file not found: %s", key)
	}

	return g.service.Files.Delete(fileList.Files[0].Id).Context(ctx).Do()
}

func escapeQuery(value string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
}
