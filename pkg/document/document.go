// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package document

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// BackupSuffix is appended to a document path to name its backup
const BackupSuffix = ".bak"

// 📄 Document is the full text of one target file
type Document struct {
	Path    string      // Path as resolved, relative to the store unless absolute
	Content []byte      // Whole file content
	Mode    fs.FileMode // Permissions restored on write
}

// 🔧 Store reads and writes documents below a base directory
type Store struct {
	baseDir string
}

// 🏭 NewStore creates a new document store
func NewStore(baseDir string) *Store {
	return &Store{baseDir: filepath.Clean(baseDir)}
}

// 🔒 abs returns the on-disk path for a store path
func (s *Store) abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.baseDir, p)
}

// 🔍 Resolve expands pattern to exactly one regular file. A plain path is a
// pattern that matches itself.
func (s *Store) Resolve(ctx context.Context, pattern string) (string, error) {
	pattern = filepath.ToSlash(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return "", errors.Errorf("invalid target pattern %q", pattern)
	}

	base, rest := doublestar.SplitPattern(pattern)
	matches, err := doublestar.Glob(os.DirFS(s.abs(filepath.FromSlash(base))), rest, doublestar.WithFilesOnly())
	if err != nil {
		return "", errors.Errorf("matching target %q: %w", pattern, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("pattern", pattern).
		Strs("matches", matches).
		Msg("resolved target")

	switch len(matches) {
	case 0:
		return "", errors.Errorf("target %q matches no files", pattern)
	case 1:
		return filepath.FromSlash(path.Join(base, matches[0])), nil
	default:
		return "", errors.Errorf("target %q matches %d files, want exactly one: %s", pattern, len(matches), strings.Join(matches, ", "))
	}
}

// Read loads the whole document at p
func (s *Store) Read(ctx context.Context, p string) (*Document, error) {
	absPath := s.abs(p)

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, errors.Errorf("checking document: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, errors.Errorf("document %q is not a regular file", p)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, errors.Errorf("reading document: %w", err)
	}

	return &Document{Path: p, Content: content, Mode: info.Mode().Perm()}, nil
}

// 💾 WriteAtomic replaces the document on disk. The content goes to a temp
// file in the same directory which is then renamed over the original, so a
// failed write never leaves a truncated document.
func (s *Store) WriteAtomic(ctx context.Context, doc *Document) error {
	absPath := s.abs(doc.Path)
	mode := doc.Mode
	if mode == 0 {
		mode = 0644
	}

	tmp, err := os.CreateTemp(filepath.Dir(absPath), "."+filepath.Base(absPath)+".*.tmp")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if _, err := tmp.Write(doc.Content); err != nil {
		cleanup()
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		cleanup()
		return errors.Errorf("setting temp file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, absPath); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("renaming temp file: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("path", doc.Path).
		Int("bytes", len(doc.Content)).
		Msg("wrote document")

	return nil
}

// Backup copies the document at p to p + BackupSuffix, replacing any
// earlier backup
func (s *Store) Backup(ctx context.Context, p string) error {
	doc, err := s.Read(ctx, p)
	if err != nil {
		return errors.Errorf("reading document for backup: %w", err)
	}

	doc.Path = p + BackupSuffix
	if err := s.WriteAtomic(ctx, doc); err != nil {
		return errors.Errorf("creating backup: %w", err)
	}
	return nil
}

// HasBackup reports whether a backup exists for the document at p
func (s *Store) HasBackup(ctx context.Context, p string) (bool, error) {
	_, err := os.Stat(s.abs(p + BackupSuffix))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Errorf("checking backup existence: %w", err)
}

// Restore puts the backup of p back in place and removes the backup
func (s *Store) Restore(ctx context.Context, p string) error {
	ok, err := s.HasBackup(ctx, p)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("backup file does not exist")
	}

	backup, err := s.Read(ctx, p+BackupSuffix)
	if err != nil {
		return errors.Errorf("reading backup: %w", err)
	}

	backup.Path = p
	if err := s.WriteAtomic(ctx, backup); err != nil {
		return errors.Errorf("restoring from backup: %w", err)
	}

	if err := os.Remove(s.abs(p + BackupSuffix)); err != nil {
		return errors.Errorf("removing backup: %w", err)
	}

	return nil
}
