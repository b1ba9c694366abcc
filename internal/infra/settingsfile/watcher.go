package settingsfile

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"clan_rank_notifier/internal/app"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const (
	defaultDebounce = 250 * time.Millisecond
	applyTimeout    = 2 * time.Minute
)

// Watcher applies the settings file on start and again whenever it changes.
type Watcher struct {
	path       string
	promotions app.PromotionService
	logger     *logrus.Entry
	debounce   time.Duration

	mu   sync.Mutex
	last []byte // content of the last applied file
}

func NewWatcher(path string, promotions app.PromotionService, logger *logrus.Entry) *Watcher {
	return &Watcher{
		path:       path,
		promotions: promotions,
		logger:     logger.WithField("path", path),
		debounce:   defaultDebounce,
	}
}

// Sync reads the file and applies it once. A missing file is not an error.
func (w *Watcher) Sync(ctx context.Context) error {
	raw, err := os.ReadFile(w.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			w.logger.Warn("Settings file not found; keeping stored settings")
			return nil
		}
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.last != nil && bytes.Equal(raw, w.last) {
		w.logger.Debug("Settings file unchanged; skipping")
		return nil
	}

	f, err := Parse(raw)
	if err != nil {
		return err
	}
	report, err := w.promotions.UpdateSettings(ctx, app.TriggerSettings, f.Apply)
	if err != nil {
		return err
	}
	w.last = raw

	fields := logrus.Fields{}
	if report != nil {
		fields["due"] = len(report.Due)
		fields["rules"] = report.RulesConfigured
	}
	w.logger.WithFields(fields).Info("Settings file applied")
	return nil
}

// Watch blocks until ctx is done, re-applying the file after each burst of
// writes. The directory is watched so editors that replace the file on save
// are picked up too.
func (w *Watcher) Watch(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	file := filepath.Base(w.path)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(dir); err != nil {
		return err
	}
	w.logger.Debug("Settings file watcher started")

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	schedule := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			actx, cancel := context.WithTimeout(ctx, applyTimeout)
			defer cancel()
			if err := w.Sync(actx); err != nil {
				w.logger.WithError(err).Warn("Settings file rejected")
			}
		})
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return errors.New("settings file watcher closed")
			}
			if strings.EqualFold(filepath.Base(ev.Name), file) &&
				ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.logger.WithField("op", ev.Op.String()).Debug("Settings file change detected; scheduling reload")
				schedule()
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("settings file watcher closed")
			}
			// Overflow means events were missed; reload once to catch up.
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.WithError(err).Warn("Settings file watch overflow; forcing reload")
				schedule()
				continue
			}
			w.logger.WithError(err).Warn("Settings file watch error")
		}
	}
}
