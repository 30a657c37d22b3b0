package compile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/LegacyCodeHQ/tsextern/loader"
	"golang.org/x/sync/errgroup"
)

// Runner compiles files through one loader session and writes the results
// below OutDir.
type Runner struct {
	Session   *loader.Session
	Options   map[string]any
	SourceMap bool
	OutDir    string
	// BaseDir is the directory output paths mirror; files outside it are
	// written flat into OutDir.
	BaseDir string
	Out     io.Writer
	Err     io.Writer

	mu sync.Mutex
}

// CompileFile compiles one file and writes its code, and its map when
// requested. Warnings are reported and do not fail the file.
func (r *Runner) CompileFile(ctx context.Context, file string) error {
	abs, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", file, err)
	}

	output, err := r.Session.Compile(ctx, loader.Invocation{
		SourcePath: abs,
		Options:    r.Options,
		SourceMap:  r.SourceMap,
		OnWarning: func(w *loader.Error) {
			r.printf(r.Err, "warning: %s\n", w.Message)
		},
	})
	if err != nil {
		return err
	}

	written, err := writeOutput(r.OutDir, r.BaseDir, abs, output)
	if err != nil {
		return err
	}
	r.printf(r.Out, "%s -> %s\n", file, written)
	return nil
}

// CompileAll compiles files on up to jobs workers sharing the session. A file
// that fails is reported and the others still run.
func (r *Runner) CompileAll(ctx context.Context, files []string, jobs int) error {
	var g errgroup.Group
	g.SetLimit(max(1, min(jobs, len(files))))

	var failed atomic.Int32
	for _, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := r.CompileFile(ctx, file); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				failed.Add(1)
				r.printf(r.Err, "%s: %v\n", file, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d files failed to compile", n, len(files))
	}
	return nil
}

func (r *Runner) printf(w io.Writer, format string, args ...any) {
	if w == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(w, format, args...)
}

// outputPath places source's JavaScript under outDir, mirroring its position
// below baseDir.
func outputPath(outDir, baseDir, source string) string {
	rel, err := filepath.Rel(baseDir, source)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel = filepath.Base(source)
	}
	return filepath.Join(outDir, strings.TrimSuffix(rel, filepath.Ext(rel))+".js")
}

func writeOutput(outDir, baseDir, source string, output *loader.Output) (string, error) {
	jsPath := outputPath(outDir, baseDir, source)
	if err := os.MkdirAll(filepath.Dir(jsPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	code := output.Code
	if output.SourceMap != "" {
		mapPath := jsPath + ".map"
		if err := os.WriteFile(mapPath, []byte(output.SourceMap), 0o644); err != nil {
			return "", fmt.Errorf("failed to write %s: %w", mapPath, err)
		}
		if !strings.HasSuffix(code, "\n") {
			code += "\n"
		}
		code += "//# sourceMappingURL=" + filepath.Base(mapPath) + "\n"
	}
	if err := os.WriteFile(jsPath, []byte(code), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", jsPath, err)
	}
	return jsPath, nil
}
