package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceInterval = 300 * time.Millisecond

var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"dist":         true,
	"build":        true,
	".idea":        true,
	".vscode":      true,
}

// compileFunc compiles one changed file.
type compileFunc func(ctx context.Context, file string) error

// watchAndCompile recompiles TypeScript files below root once writes to them
// settle, until ctx is done.
func watchAndCompile(ctx context.Context, root string, compile compileFunc, errOut io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, root); err != nil {
		return fmt.Errorf("failed to watch directories: %w", err)
	}

	pending := make(map[string]struct{})
	var debounce <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				addIfDirectory(watcher, event.Name)
			}
			if !isRelevantChange(event) {
				continue
			}
			pending[event.Name] = struct{}{}
			debounce = time.After(debounceInterval)

		case <-debounce:
			debounce = nil
			for _, file := range drain(pending) {
				if _, err := os.Stat(file); err != nil {
					continue
				}
				if err := compile(ctx, file); err != nil {
					fmt.Fprintf(errOut, "%s: %v\n", file, err)
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(errOut, "watcher error: %v\n", err)
		}
	}
}

// drain empties pending and returns its files in lexical order.
func drain(pending map[string]struct{}) []string {
	files := make([]string, 0, len(pending))
	for file := range pending {
		files = append(files, file)
		delete(pending, file)
	}
	sort.Strings(files)
	return files
}

func isRelevantChange(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	return isCompilable(event.Name)
}

// isCompilable accepts TypeScript sources; declaration files only describe
// other code.
func isCompilable(fileName string) bool {
	if strings.HasSuffix(fileName, ".d.ts") {
		return false
	}
	ext := filepath.Ext(fileName)
	return ext == ".ts" || ext == ".tsx"
}

func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return addWatchDirsWithAdder(root, watcher.Add)
}

func addWatchDirsWithAdder(root string, add func(string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skippedDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := add(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	})
}

func addIfDirectory(watcher *fsnotify.Watcher, path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.IsDir() {
		_ = addWatchDirs(watcher, path)
	}
}
