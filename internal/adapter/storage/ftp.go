package storage

import (
	"context"
	"crypto/tls"
	"fmt"
	"os"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/semmidev/argus/internal/config"
	"github.com/semmidev/argus/internal/domain"
)

const ftpDialTimeout = 30 * time.Second

// FTPStorage delivers artifacts over FTP or FTPS. Each operation uses its
// own session, so concurrent jobs never share a connection.
type FTPStorage struct {
	spec *config.TargetSpec
}

func NewFTP(spec *config.TargetSpec) *FTPStorage {
	return &FTPStorage{spec: spec}
}

func (f *FTPStorage) ID() string {
	return f.spec.ID
}

func (f *FTPStorage) Kind() string {
	return "ftp"
}

func (f *FTPStorage) connect(ctx context.Context) (*ftp.ServerConn, error) {
	port := f.spec.Port
	if port == 0 {
		port = 21
	}
	addr := fmt.Sprintf("%s:%d", f.spec.Host, port)

	opts := []ftp.DialOption{
		ftp.DialWithContext(ctx),
		ftp.DialWithTimeout(ftpDialTimeout),
	}
	if f.spec.TLS {
		opts = append(opts, ftp.DialWithExplicitTLS(&tls.Config{ServerName: f.spec.Host}))
	}

	conn, err := ftp.Dial(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ftp server: %w", err)
	}

	if err := conn.Login(f.spec.Username, f.spec.Password); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("ftp login failed: %w", err)
	}

	if f.spec.RemoteDir != "" {
		if err := conn.ChangeDir(f.spec.RemoteDir); err != nil {
			conn.Quit()
			return nil, fmt.Errorf("failed to change to remote dir %s: %w", f.spec.RemoteDir, err)
		}
	}

	return conn, nil
}

func (f *FTPStorage) Store(ctx context.Context, localPath string, remoteName string) error {
	conn, err := f.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Quit()

	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if err := conn.Stor(remoteName, file); err != nil {
		return fmt.Errorf("failed to upload to ftp: %w", err)
	}

	return nil
}

func (f *FTPStorage) List(ctx context.Context) ([]domain.RemoteFile, error) {
	conn, err := f.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Quit()

	entries, err := conn.List("")
	if err != nil {
		return nil, fmt.Errorf("failed to list ftp directory: %w", err)
	}

	var files []domain.RemoteFile
	for _, entry := range entries {
		if entry.Type != ftp.EntryTypeFile {
			continue
		}
		files = append(files, domain.RemoteFile{
			Name:    entry.Name,
			Size:    int64(entry.Size),
			ModTime: entry.Time,
		})
	}

	return files, nil
}

func (f *FTPStorage) Delete(ctx context.Context, remoteName string) error {
	conn, err := f.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Quit()

	if err := conn.Delete(remoteName); err != nil {
		return fmt.Errorf("failed to delete from ftp: %w", err)
	}

	return nil
}
