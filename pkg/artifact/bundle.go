package artifact

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/facebookincubator/go-belt/tool/logger"
)

// spatialFileExts are the extensions recognized as ingestible spatial
// datasets inside an impact archive.
var spatialFileExts = []string{".shp", ".tif"}

// Bundle is a fetched impact artifact prepared for ingestion: either a
// bare spatial file, or a zip container inflated next to itself. Bundles
// are transient and never persisted.
type Bundle struct {
	// Path is the local path of the fetched artifact.
	Path string

	// Dir is the directory the artifact lives in; extracted members and
	// companion files are placed and cleaned up here.
	Dir string

	// IsArchive tells whether the artifact was a zip container.
	IsArchive bool

	// Members lists the archive members in stored order (nil for bare
	// files). The candidate search walks this order.
	Members []string
}

// OpenBundle prepares the fetched artifact for ingestion. A ".zip"
// artifact (case-insensitive) is inflated entirely into its own
// directory; anything else is treated as a bare spatial file.
func OpenBundle(artifactPath string) (*Bundle, error) {
	bundle := &Bundle{
		Path:      artifactPath,
		Dir:       filepath.Dir(artifactPath),
		IsArchive: strings.EqualFold(filepath.Ext(artifactPath), ".zip"),
	}
	if !bundle.IsArchive {
		return bundle, nil
	}

	zipReader, err := zip.OpenReader(artifactPath)
	if err != nil {
		return nil, ErrExtract{Path: artifactPath, Err: err}
	}
	defer zipReader.Close()

	for _, member := range zipReader.File {
		if err := extractMember(bundle.Dir, member); err != nil {
			return nil, ErrExtract{Path: artifactPath, Err: err}
		}
		bundle.Members = append(bundle.Members, member.Name)
	}
	return bundle, nil
}

func extractMember(dir string, member *zip.File) error {
	dstPath := filepath.Join(dir, filepath.FromSlash(member.Name))
	if !strings.HasPrefix(dstPath, filepath.Clean(dir)+string(os.PathSeparator)) {
		return fmt.Errorf("member '%s' escapes the extraction directory", member.Name)
	}

	if member.FileInfo().IsDir() {
		return os.MkdirAll(dstPath, 0750)
	}
	if err := os.MkdirAll(filepath.Dir(dstPath), 0750); err != nil {
		return err
	}

	src, err := member.Open()
	if err != nil {
		return fmt.Errorf("unable to open member '%s': %w", member.Name, err)
	}
	defer src.Close()

	if err := writeStream(dstPath, src); err != nil {
		return fmt.Errorf("unable to inflate member '%s': %w", member.Name, err)
	}
	return nil
}

// Candidate returns the name of the file to ingest.
//
// For an archive it is the first member (in stored order) carrying a
// recognized spatial extension; the search stops on the first match and
// reports false when there is none. A bare file is its own candidate.
func (bundle *Bundle) Candidate() (string, bool) {
	if !bundle.IsArchive {
		return filepath.Base(bundle.Path), true
	}
	for _, member := range bundle.Members {
		ext := strings.ToLower(filepath.Ext(member))
		for _, spatialExt := range spatialFileExts {
			if ext == spatialExt {
				return member, true
			}
		}
	}
	return "", false
}

// Cleanup removes everything the bundle has put (or found) on disk:
// extracted members of an archive, the candidate's companion files of a
// bare artifact, and the artifact itself. Individual removal failures
// are logged and ignored.
func (bundle *Bundle) Cleanup(ctx context.Context) {
	log := logger.FromCtx(ctx)

	if bundle.IsArchive {
		for _, member := range bundle.Members {
			memberPath := filepath.Join(bundle.Dir, filepath.FromSlash(member))
			if err := os.Remove(memberPath); err != nil {
				log.Debugf("unable to remove extracted member '%s': %v", member, err)
			}
		}
	} else if candidate, ok := bundle.Candidate(); ok {
		baseName := baseNameOf(candidate)
		entries, err := os.ReadDir(bundle.Dir)
		if err != nil {
			log.Debugf("unable to list '%s' for cleanup: %v", bundle.Dir, err)
			entries = nil
		}
		for _, entry := range entries {
			if entry.IsDir() || baseNameOf(entry.Name()) != baseName {
				continue
			}
			if err := os.Remove(filepath.Join(bundle.Dir, entry.Name())); err != nil {
				log.Debugf("unable to remove companion file '%s': %v", entry.Name(), err)
			}
		}
	}

	if err := os.Remove(bundle.Path); err != nil && !os.IsNotExist(err) {
		log.Debugf("unable to remove artifact '%s': %v", bundle.Path, err)
	}
}

// baseNameOf cuts a file name at the first dot; companion files of a
// dataset share the base name with the main file.
func baseNameOf(fileName string) string {
	if idx := strings.Index(fileName, "."); idx != -1 {
		return fileName[:idx]
	}
	return fileName
}
