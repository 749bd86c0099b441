package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// UploadsDir is the output subtree owned by file uploads.
// Rendering never writes, removes or replaces anything under it.
const UploadsDir = "uploads"

type output struct {
	root    string
	files   []string
	sitemap []SitemapEntry
}

func (o *output) write(name string, data []byte) error {
	p := filepath.Join(o.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return err
	}
	o.files = append(o.files, name)
	return nil
}

// Prepare makes sure dir and dir/uploads exist. It never removes anything.
func Prepare(dir string) error {
	if err := os.MkdirAll(filepath.Join(dir, UploadsDir), 0o755); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// rename is os.Rename, swapped out by tests.
var rename = os.Rename

func stagingPattern(dist string) string {
	return "." + filepath.Base(dist) + ".render-*"
}

func backupPattern(dist string) string {
	return "." + filepath.Base(dist) + ".backup-*"
}

// swap replaces the generated content of dist with the staged tree.
// Live entries are moved into a backup directory first and moved back if
// anything fails, so dist ends up holding either the old tree or the new one.
func swap(staging, dist string) (err error) {
	if err = Prepare(dist); err != nil {
		return err
	}
	backup, err := os.MkdirTemp(filepath.Dir(dist), backupPattern(dist))
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	var moved, installed []string
	defer func() {
		if err == nil {
			_ = os.RemoveAll(backup)
			return
		}
		for _, name := range installed {
			_ = os.RemoveAll(filepath.Join(dist, name))
		}
		restored := true
		for _, name := range moved {
			if rerr := rename(filepath.Join(backup, name), filepath.Join(dist, name)); rerr != nil {
				err = errors.Join(err, fmt.Errorf("render: restore %s: %w", name, rerr))
				restored = false
			}
		}
		// A backup that could not be restored is left for recoverOutput.
		if restored {
			_ = os.RemoveAll(backup)
		}
	}()

	live, err := os.ReadDir(dist)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	for _, e := range live {
		if e.Name() == UploadsDir {
			continue
		}
		if err = rename(filepath.Join(dist, e.Name()), filepath.Join(backup, e.Name())); err != nil {
			return fmt.Errorf("render: %w", err)
		}
		moved = append(moved, e.Name())
	}

	staged, err := os.ReadDir(staging)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	for _, e := range staged {
		if e.Name() == UploadsDir {
			continue
		}
		if err = rename(filepath.Join(staging, e.Name()), filepath.Join(dist, e.Name())); err != nil {
			return fmt.Errorf("render: %w", err)
		}
		installed = append(installed, e.Name())
	}
	return nil
}

// recoverOutput cleans up after a render that was killed before it could
// clean up itself: backups are moved back over dist and staging
// directories are removed.
func recoverOutput(dist string) error {
	if err := Prepare(dist); err != nil {
		return err
	}
	parent := filepath.Dir(dist)

	backups, err := filepath.Glob(filepath.Join(parent, backupPattern(dist)))
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	for _, backup := range backups {
		entries, err := os.ReadDir(backup)
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		for _, e := range entries {
			target := filepath.Join(dist, e.Name())
			if err = os.RemoveAll(target); err != nil {
				return fmt.Errorf("render: %w", err)
			}
			if err = rename(filepath.Join(backup, e.Name()), target); err != nil {
				return fmt.Errorf("render: %w", err)
			}
		}
		if err = os.RemoveAll(backup); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}

	stale, err := filepath.Glob(filepath.Join(parent, stagingPattern(dist)))
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	for _, dir := range stale {
		if err = os.RemoveAll(dir); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}
	return nil
}

func sortedFiles(files []string) []string {
	s := slices.Clone(files)
	slices.Sort(s)
	return s
}
