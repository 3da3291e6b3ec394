package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Strategy is one way to turn a file or directory into a tar.gz archive
// and back. Strategies are tried in order; see Builder.
type Strategy interface {
	Name() string
	Compress(sourcePath, destPath string) error
	Extract(archivePath, destDir string) error
}

// TarGzip compresses in-process with archive/tar and compress/gzip.
type TarGzip struct{}

func NewTarGzip() *TarGzip {
	return &TarGzip{}
}

func (t *TarGzip) Name() string {
	return "tar-gzip"
}

func (t *TarGzip) Compress(sourcePath, destPath string) error {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}

	destFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create dest file: %w", err)
	}
	defer destFile.Close()

	gzipWriter, err := gzip.NewWriterLevel(destFile, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("failed to create gzip writer: %w", err)
	}

	tarWriter := tar.NewWriter(gzipWriter)

	if info.IsDir() {
		err = filepath.Walk(sourcePath, func(path string, fi os.FileInfo, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			rel, err := filepath.Rel(sourcePath, path)
			if err != nil {
				return err
			}
			if rel == "." {
				return nil
			}
			return writeEntry(tarWriter, path, filepath.ToSlash(rel), fi)
		})
	} else {
		// A single dump file becomes a one-entry archive, so extraction
		// is uniform for file and directory dumps.
		err = writeEntry(tarWriter, sourcePath, filepath.Base(sourcePath), info)
	}
	if err != nil {
		tarWriter.Close()
		gzipWriter.Close()
		return fmt.Errorf("failed to write archive: %w", err)
	}

	if err := tarWriter.Close(); err != nil {
		gzipWriter.Close()
		return fmt.Errorf("failed to finalize tar stream: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to finalize gzip stream: %w", err)
	}

	return nil
}

func writeEntry(tw *tar.Writer, path, name string, fi os.FileInfo) error {
	header, err := tar.FileInfoHeader(fi, "")
	if err != nil {
		return err
	}
	header.Name = name

	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	if !fi.Mode().IsRegular() {
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(tw, file)
	return err
}

func (t *TarGzip) Extract(archivePath, destDir string) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archiveFile.Close()

	gzipReader, err := gzip.NewReader(archiveFile)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar entry: %w", err)
		}

		name := filepath.FromSlash(header.Name)
		if strings.Contains(name, "..") || filepath.IsAbs(name) {
			return fmt.Errorf("unsafe entry path in archive: %s", header.Name)
		}
		destPath := filepath.Join(destDir, name)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(destPath, header.FileInfo().Mode().Perm()); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
				return fmt.Errorf("failed to create directory for %s: %w", name, err)
			}
			if err := extractFile(tarReader, destPath, header.FileInfo().Mode().Perm()); err != nil {
				return fmt.Errorf("failed to extract %s: %w", name, err)
			}
		}
	}
}

func extractFile(r io.Reader, destPath string, mode os.FileMode) error {
	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, r)
	return err
}

// TarCommand shells out to the tar binary. It is the fallback when the
// in-process strategy fails.
type TarCommand struct{}

func NewTarCommand() *TarCommand {
	return &TarCommand{}
}

func (t *TarCommand) Name() string {
	return "tar-command"
}

func (t *TarCommand) Compress(sourcePath, destPath string) error {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}

	var args []string
	if info.IsDir() {
		args = []string{"-czf", destPath, "-C", sourcePath, "."}
	} else {
		args = []string{"-czf", destPath, "-C", filepath.Dir(sourcePath), filepath.Base(sourcePath)}
	}

	output, err := exec.Command("tar", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("tar failed: %w, output: %s", err, string(output))
	}

	return nil
}

func (t *TarCommand) Extract(archivePath, destDir string) error {
	output, err := exec.Command("tar", "-xzf", archivePath, "-C", destDir).CombinedOutput()
	if err != nil {
		return fmt.Errorf("tar extraction failed: %w, output: %s", err, string(output))
	}
	return nil
}
