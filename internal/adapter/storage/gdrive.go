package storage

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/semmidev/argus/internal/config"
	"github.com/semmidev/argus/internal/domain"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

type GDriveStorage struct {
	id       string
	service  *drive.Service
	folderID string
}

func NewGDrive(spec *config.TargetSpec) (*GDriveStorage, error) {
	ctx := context.Background()

	service, err := drive.NewService(ctx, option.WithCredentialsFile(spec.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &GDriveStorage{
		id:       spec.ID,
		service:  service,
		folderID: spec.FolderID,
	}, nil
}

func (g *GDriveStorage) ID() string {
	return g.id
}

func (g *GDriveStorage) Kind() string {
	return "gdrive"
}

func (g *GDriveStorage) Store(ctx context.Context, localPath string, remoteName string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileMetadata := &drive.File{
		Name:    remoteName,
		Parents: []string{g.folderID},
	}

	_, err = g.service.Files.Create(fileMetadata).
		Media(file).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to upload to gdrive: %w", err)
	}

	return nil
}

func (g *GDriveStorage) List(ctx context.Context) ([]domain.RemoteFile, error) {
	query := fmt.Sprintf("'%s' in parents and trashed=false", g.folderID)

	fileList, err := g.service.Files.List().
		Q(query).
		Fields("files(id, name, size, createdTime)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	var files []domain.RemoteFile
	for _, file := range fileList.Files {
		created, err := time.Parse(time.RFC3339, file.CreatedTime)
		if err != nil {
			created = time.Time{}
		}
		files = append(files, domain.RemoteFile{
			Name:    file.Name,
			Size:    file.Size,
			ModTime: created,
		})
	}

	return files, nil
}

func (g *GDriveStorage) Delete(ctx context.Context, remoteName string) error {
	query := fmt.Sprintf("'%s' in parents and name='%s' and trashed=false", g.folderID, remoteName)

	fileList, err := g.service.Files.List().
		Q(query).
		Fields("files(id)").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to find file: %w", err)
	}

	if len(fileList.Files) == 0 {
		return fmt.Errorf("file not found: %s", remoteName)
	}

	err = g.service.Files.Delete(fileList.Files[0].Id).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}
