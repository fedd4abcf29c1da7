package repository

import (
	"io/fs"

	"github.com/okian/bathlog/pkg/logger"
)

const (
	defaultFilePerm fs.FileMode = 0o600
	defaultDirPerm  fs.FileMode = 0o755
)

// Option applies a configuration option to the FileStore.
type Option func(*FileStore)

// WithFilePerm sets the permission bits of the store file.
func WithFilePerm(perm fs.FileMode) Option {
	return func(s *FileStore) {
		if perm != 0 {
			s.filePerm = perm
		}
	}
}

// WithDirPerm sets the permission bits used when creating parent directories.
func WithDirPerm(perm fs.FileMode) Option {
	return func(s *FileStore) {
		if perm != 0 {
			s.dirPerm = perm
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *FileStore) {
		if l != nil {
			s.log = l
		}
	}
}
