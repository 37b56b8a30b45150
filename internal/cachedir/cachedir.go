// Package cachedir manages the module cache directory that holds captcha
// images behind an access-control marker file.
package cachedir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// MarkerName is the access-control file that must exist in the cache directory.
const MarkerName = ".htaccess"

// MarkerContent only lets image files through.
const MarkerContent = `SetEnvIf Request_URI "\.gif$" object_is_gif=gif
SetEnvIf Request_URI "\.png$" object_is_png=png
SetEnvIf Request_URI "\.jpg$" object_is_jpg=jpg
SetEnvIf Request_URI "\.jpeg$" object_is_jpeg=jpeg
Order deny,allow
Deny from all
Allow from env=object_is_gif
Allow from env=object_is_png
Allow from env=object_is_jpg
Allow from env=object_is_jpeg
`

// protected files survive Clear.
var protected = map[string]bool{
	MarkerName:   true,
	"index.htm":  true,
	"index.html": true,
}

// ErrCreateDir and ErrCreateMarker identify which provisioning step failed.
var (
	ErrCreateDir    = errors.New("cachedir: create directory")
	ErrCreateMarker = errors.New("cachedir: create marker")
)

// Provision creates dir and writes the marker file into it.
func Provision(dir string) error {
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return fmt.Errorf("%w: %w", ErrCreateDir, err)
	}
	if err := os.Chmod(dir, 0o777); err != nil {
		return fmt.Errorf("%w: %w", ErrCreateDir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, MarkerName), []byte(MarkerContent), 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrCreateMarker, err)
	}
	return nil
}

// Clear deletes every regular file directly inside dir except the protected
// names. Sub-directories are left alone. Deletion continues past failures;
// the returned error joins all of them and already deleted files stay deleted.
func Clear(dir string) (removed int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("cachedir: read %s: %w", dir, err)
	}
	var errs []error
	for _, e := range entries {
		if e.IsDir() || protected[e.Name()] {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// Remove deletes dir and everything below it. A missing dir is not an error.
func Remove(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("cachedir: remove %s: %w", dir, err)
	}
	return nil
}
