package syncer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/ravescovi/codegraph/internal/config"
	"github.com/ravescovi/codegraph/internal/scan"
)

// debounceWindow coalesces bursts of filesystem events into one sync.
const debounceWindow = 500 * time.Millisecond

// Watch runs incremental syncs on filesystem changes until ctx is
// canceled. onSync receives each completed result; sync failures are logged
// and watching continues.
func (s *Syncer) Watch(ctx context.Context, onSync func(*Result)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := s.addWatchDirs(watcher, s.root); err != nil {
		return err
	}

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	schedule := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounceWindow, func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if s.ignoredEvent(event.Name) {
				continue
			}
			// New directories need their own watches.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := s.addWatchDirs(watcher, event.Name); err != nil {
						log.WithError(err).Warn("watching new directory failed")
					}
				}
			}
			schedule()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("filesystem watcher error")

		case <-fire:
			result, err := s.Sync(ctx)
			if err != nil {
				log.WithError(err).Warn("sync failed")
				continue
			}
			if onSync != nil {
				onSync(result)
			}
		}
	}
}

// addWatchDirs registers dir and its subdirectories, skipping the hidden
// project directory and ignore-marked subtrees.
func (s *Syncer) addWatchDirs(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if s.ignoredEvent(path) {
			return filepath.SkipDir
		}
		if _, err := os.Stat(filepath.Join(path, scan.IgnoreMarker)); err == nil {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// ignoredEvent filters events under the hidden project directory; the
// database's own writes must not retrigger sync.
func (s *Syncer) ignoredEvent(path string) bool {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel == config.DirName || strings.HasPrefix(rel, config.DirName+"/")
}
