package ipc

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/grovetools/niribar/errors"
)

// EnvSocket names the environment variable niri exports with its socket path.
const EnvSocket = "NIRI_SOCKET"

// SocketPath returns the compositor socket path from the environment.
func SocketPath() (string, error) {
	path := os.Getenv(EnvSocket)
	if path == "" {
		return "", errors.SocketNotConfigured(EnvSocket)
	}
	return path, nil
}

// WaitForSocket blocks until a file exists at path or ctx is done. The
// parent directory is watched so a restarted compositor is noticed as soon
// as it binds its new socket.
func WaitForSocket(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create socket watcher")
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return errors.Wrap(err, errors.ErrCodeConnectFailed, "failed to watch socket directory").
			WithDetail("dir", dir)
	}

	// The socket may have appeared between the first Stat and Add.
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New(errors.ErrCodeInternal, "socket watcher closed")
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Has(fsnotify.Create) {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New(errors.ErrCodeInternal, "socket watcher closed")
			}
			return errors.Wrap(err, errors.ErrCodeInternal, "socket watcher failed")
		}
	}
}
