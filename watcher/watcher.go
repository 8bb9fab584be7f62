// Package watcher ingests documents dropped into a source directory. Files
// are picked up once they stop changing, pushed through the engine, then
// moved to the archive (or the reject directory on failure).
package watcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"docindex/engine"
	"docindex/types"
)

type Watcher struct {
	cfg    types.Config
	engine *engine.Engine
	logger *slog.Logger

	fileMutex       sync.Mutex
	fileFirstSeen   map[string]time.Time
	filesProcessing map[string]bool
}

func New(cfg types.Config, e *engine.Engine) *Watcher {
	createDirectories(cfg.SourceDir, cfg.ArchiveDir, cfg.BadDir)
	return &Watcher{
		cfg:             cfg,
		engine:          e,
		logger:          slog.Default(),
		fileFirstSeen:   make(map[string]time.Time),
		filesProcessing: make(map[string]bool),
	}
}

// Run blocks until ctx is cancelled. One goroutine scans the source
// directory, a second one ingests what the scanner hands over.
func (w *Watcher) Run(ctx context.Context) {
	fileChan := make(chan string, 10)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(fileChan)
		w.watch(ctx, fileChan)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.process(ctx, fileChan)
	}()

	wg.Wait()
	w.logger.Info("ingestion watcher stopped")
}

func (w *Watcher) watch(ctx context.Context, fileChan chan<- string) {
	w.logger.Info("start monitoring folder", "dir", w.cfg.SourceDir)

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			files, err := os.ReadDir(w.cfg.SourceDir)
			if err != nil {
				w.logger.Error("error while reading source directory", "error", err.Error())
				continue
			}

			currentFiles := make(map[string]bool)

			for _, file := range files {
				if file.IsDir() {
					continue
				}

				filePath := filepath.Join(w.cfg.SourceDir, file.Name())
				currentFiles[filePath] = true

				w.fileMutex.Lock()
				if w.filesProcessing[filePath] {
					w.fileMutex.Unlock()
					continue
				}
				firstSeen, seen := w.fileFirstSeen[filePath]
				if !seen {
					w.fileFirstSeen[filePath] = time.Now()
					w.logger.Info("new file detected", "file", filePath)
					w.fileMutex.Unlock()
					continue
				}
				w.fileMutex.Unlock()

				if time.Since(firstSeen) > w.cfg.MonitoringTime {
					w.fileMutex.Lock()
					w.filesProcessing[filePath] = true
					w.fileMutex.Unlock()

					select {
					case fileChan <- filePath:
					case <-ctx.Done():
						return
					}
				}
			}

			// drop tracking state for files that disappeared from the directory
			w.fileMutex.Lock()
			for filePath := range w.fileFirstSeen {
				if !currentFiles[filePath] {
					delete(w.fileFirstSeen, filePath)
					delete(w.filesProcessing, filePath)
				}
			}
			w.fileMutex.Unlock()
		}
	}
}

func (w *Watcher) process(ctx context.Context, fileChan <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case filePath, ok := <-fileChan:
			if !ok {
				return
			}

			if err := w.ingest(ctx, filePath); err != nil {
				w.logger.Error("error processing file", "file", filePath, "error", err.Error())
				w.moveTo(filePath, w.cfg.BadDir)
			} else {
				w.moveTo(filePath, w.cfg.ArchiveDir)
			}

			w.fileMutex.Lock()
			delete(w.filesProcessing, filePath)
			delete(w.fileFirstSeen, filePath)
			w.fileMutex.Unlock()
		}
	}
}

func (w *Watcher) ingest(ctx context.Context, filePath string) error {
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", filePath, err)
	}

	already, err := w.engine.ProcessDocument(ctx, contents, filepath.Base(filePath))
	if err != nil {
		return err
	}
	if already {
		w.logger.Info("file already indexed", "file", filePath)
	}
	return nil
}

// moveTo archives a processed file under destRoot/YYYY-MM-DD, renaming on
// name conflicts.
func (w *Watcher) moveTo(filePath, destRoot string) {
	destDir := filepath.Join(destRoot, time.Now().Format("2006-01-02"))
	if err := os.MkdirAll(destDir, 0755); err != nil {
		w.logger.Error("error creating archive directory", "error", err.Error())
		return
	}

	destPath := filepath.Join(destDir, filepath.Base(filePath))
	counter := 1
	for {
		if _, err := os.Stat(destPath); os.IsNotExist(err) {
			break
		}
		ext := filepath.Ext(filePath)
		baseName := strings.TrimSuffix(filepath.Base(filePath), ext)
		destPath = filepath.Join(destDir, fmt.Sprintf("%s_%d%s", baseName, counter, ext))
		counter++
	}

	if err := os.Rename(filePath, destPath); err == nil {
		w.logger.Info("file archived", "dest", destPath)
		return
	}

	// rename fails across filesystems, fall back to copy+remove
	in, err := os.Open(filePath)
	if err != nil {
		w.logger.Error("error open file", "error", err.Error())
		return
	}
	defer in.Close()

	out, err := os.Create(destPath)
	if err != nil {
		w.logger.Error("error create file", "error", err.Error())
		return
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		w.logger.Error("error moving file to archive", "error", err.Error())
		return
	}
	os.Remove(filePath)
	w.logger.Info("file archived", "dest", destPath)
}

func createDirectories(dirs ...string) {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			slog.Default().Error("error creating directory", "dir", dir, "error", err.Error())
		}
	}
}
