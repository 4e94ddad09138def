package batch

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
)

// archiveKind returns the archive format of path by extension, or "" when
// path is not an archive.
func archiveKind(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return "zip"
	case strings.HasSuffix(lower, ".7z"):
		return "7z"
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return "tgz"
	}
	return ""
}

// ExtractArchive extracts a zip, 7z or tar.gz archive into destDir.
func ExtractArchive(archivePath, destDir string) error {
	switch archiveKind(archivePath) {
	case "zip":
		return extractZip(archivePath, destDir)
	case "7z":
		return extract7z(archivePath, destDir)
	case "tgz":
		return extractTarGz(archivePath, destDir)
	}
	return fmt.Errorf("unsupported archive %s", filepath.Base(archivePath))
}

// destPath resolves an archive member name inside destDir, rejecting names
// that would escape it.
func destPath(destDir, name string) (string, error) {
	p := filepath.Join(destDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(destDir, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry %q escapes the destination", name)
	}
	return p, nil
}

func writeFile(dest string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("failed to extract %s: %w", filepath.Base(dest), err)
	}
	return out.Close()
}

func extractZip(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open zip archive: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		dest, err := destPath(destDir, file.Name)
		if err != nil {
			return err
		}
		rc, err := file.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s in archive: %w", file.Name, err)
		}
		err = writeFile(dest, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func extract7z(archivePath, destDir string) error {
	reader, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open 7z archive: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		dest, err := destPath(destDir, file.Name)
		if err != nil {
			return err
		}
		rc, err := file.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s in archive: %w", file.Name, err)
		}
		err = writeFile(dest, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func extractTarGz(archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		dest, err := destPath(destDir, header.Name)
		if err != nil {
			return err
		}
		if err := writeFile(dest, tarReader); err != nil {
			return err
		}
	}
}
