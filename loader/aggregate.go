package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/LegacyCodeHQ/tsextern/emit"
)

// externFiles serializes appends per aggregate file within the process.
type externFiles struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newExternFiles() *externFiles {
	return &externFiles{locks: make(map[string]*sync.Mutex)}
}

func (f *externFiles) lock(fileName string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[fileName]
	if !ok {
		l = &sync.Mutex{}
		f.locks[fileName] = l
	}
	return l
}

// append adds fragment to the end of fileName, creating it if needed. An
// empty file is started with the externs header.
func (f *externFiles) append(fileName, fragment string) (err error) {
	l := f.lock(fileName)
	l.Lock()
	defer l.Unlock()

	file, err := os.OpenFile(filepath.FromSlash(fileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", fileName, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", fileName, closeErr)
		}
	}()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", fileName, err)
	}
	if info.Size() == 0 {
		fragment = emit.ExternsHeader + fragment
	}
	if _, err := file.WriteString(fragment); err != nil {
		return fmt.Errorf("failed to append to %s: %w", fileName, err)
	}
	return nil
}
