package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/spachava753/smscview/config"
)

const (
	watchDebounce     = 250 * time.Millisecond
	watchPollInterval = 2 * time.Second
)

func newWatchCommand(a *app) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-list messages whenever the message database changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Store.Kind != config.StoreMMSSMS && a.cfg.Store.Kind != "" {
				return fmt.Errorf("watch supports only the %s store", config.StoreMMSSMS)
			}
			refresh := func() error {
				return a.refresh(cmd.Context(), cmd.OutOrStdout(), search)
			}
			if err := refresh(); err != nil {
				return err
			}
			err := watchDatabase(cmd.Context(), a.cfg.Store.Path, refresh)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "only messages whose number or text contains this (case-insensitive)")
	return cmd
}

func (a *app) refresh(ctx context.Context, w io.Writer, search string) error {
	records, status, err := a.records(ctx, search)
	if err != nil {
		return err
	}
	loc, err := a.location()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "--- %s ---\n", time.Now().In(loc).Format(time.DateTime)); err != nil {
		return err
	}
	return render(w, records, status, loc)
}

// watchDatabase calls refresh after writes to path or its -wal/-journal
// siblings settle. It falls back to polling the modification time when the
// directory cannot be watched.
func watchDatabase(ctx context.Context, path string, refresh func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return pollDatabase(ctx, path, refresh)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return pollDatabase(ctx, path, refresh)
	}

	base := filepath.Base(path)
	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if !strings.HasPrefix(filepath.Base(event.Name), base) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				debounce = time.After(watchDebounce)
			}
		case <-debounce:
			debounce = nil
			if err := refresh(); err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			return err
		}
	}
}

func pollDatabase(ctx context.Context, path string, refresh func() error) error {
	ticker := time.NewTicker(watchPollInterval)
	defer ticker.Stop()

	last := modTime(path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			current := modTime(path)
			if current.Equal(last) {
				continue
			}
			last = current
			if err := refresh(); err != nil {
				return err
			}
		}
	}
}

func modTime(path string) time.Time {
	var latest time.Time
	for _, candidate := range []string{path, path + "-wal", path + "-journal"} {
		info, err := os.Stat(candidate)
		if err == nil && info.ModTime().After(latest) {
			latest = info.ModTime()
		}
	}
	return latest
}
