// Package session creates the per-debuggee annotation session. A session is
// created at attach time and torn down at detach; several can coexist in one
// process.
package session

import (
	"github.com/go-kit/log"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"

	"github.com/wnxd/dbgmeta/config"
	"github.com/wnxd/dbgmeta/debugger"
	dbg "github.com/wnxd/dbgmeta/internal/debugger"
)

func New(cfg config.Config, logger log.Logger, reg prometheus.Registerer) (debugger.Session, error) {
	d, err := dbg.New(dbg.Options{
		AllowArgumentOverlap: cfg.Arguments.AllowOverlap,
		AllowFunctionOverlap: cfg.Functions.AllowOverlap,
		SymbolCacheSize:      cfg.Symbols.CacheSize,
		Compress:             cfg.Database.Compress,
		Logger:               logger,
		Registerer:           reg,
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Session binds a debugger.Session to its database file.
type Session struct {
	debugger.Session
	fs   afero.Fs
	path string
}

// Attach creates a session and restores the configured database, if any.
// Malformed database entries do not fail the attach.
func Attach(fs afero.Fs, cfg config.Config, logger log.Logger, reg prometheus.Registerer) (*Session, error) {
	s, err := New(cfg, logger, reg)
	if err != nil {
		return nil, err
	}
	sess := &Session{Session: s, fs: fs, path: cfg.Database.Path}
	if sess.path != "" {
		if err = s.Load(fs, sess.path); err != nil {
			if _, partial := err.(*multierror.Error); !partial {
				s.Close()
				return nil, err
			}
		}
	}
	return sess, nil
}

// Detach saves the configured database and closes the session.
func (s *Session) Detach() error {
	var errs error
	if s.path != "" {
		if err := s.Save(s.fs, s.path); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if err := s.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs
}
