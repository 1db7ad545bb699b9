package update

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// backupPrefix names backup directories so they sort by creation time.
const backupPrefix = "mods-backup-"

// CreateBackup copies the entire mods directory verbatim into a new
// timestamped directory under backupsRoot and returns its path. Backups
// are append-only; nothing mutates them after creation.
func CreateBackup(modsDir, backupsRoot string) (string, error) {
	if err := os.MkdirAll(backupsRoot, 0o755); err != nil {
		return "", errors.Wrapf(err, "failed to create backups directory %s", backupsRoot)
	}

	dest := filepath.Join(backupsRoot, fmt.Sprintf("%s%d", backupPrefix, time.Now().Unix()))

	if err := copyDir(modsDir, dest); err != nil {
		// A half-written backup must not look like a usable one.
		_ = os.RemoveAll(dest)
		return "", errors.Wrapf(err, "failed to back up %s", modsDir)
	}

	return dest, nil
}

// PruneBackups deletes the oldest backups under backupsRoot when the
// count exceeds keep. Returns the number of backups deleted.
func PruneBackups(backupsRoot string, keep int) (int, error) {
	entries, err := os.ReadDir(backupsRoot)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}

		return 0, errors.Wrapf(err, "failed to read backups directory %s", backupsRoot)
	}

	var backups []string

	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), backupPrefix) {
			backups = append(backups, e.Name())
		}
	}

	if len(backups) <= keep {
		return 0, nil
	}

	// Names embed a unix timestamp, so lexicographic order is creation
	// order.
	sort.Strings(backups)

	toDelete := len(backups) - keep
	deleted := 0

	for _, name := range backups[:toDelete] {
		if err := os.RemoveAll(filepath.Join(backupsRoot, name)); err != nil {
			return deleted, errors.Wrapf(err, "failed to delete backup %s", name)
		}

		deleted++
	}

	return deleted, nil
}

// copyDir copies a directory tree byte for byte.
func copyDir(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		target := filepath.Join(dest, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		return copyFile(path, target)
	})
}

// copyFile copies one regular file.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}
