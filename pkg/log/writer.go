package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

var _ io.Writer = new(FileWriter)

const (
	defaultMaxSize  = 1024 * 1024
	defaultKeep     = 5
	defaultInterval = time.Hour
)

// FileWriter appends to path and renames it to path_<unix> once it grows
// over MaxSize. The size is only checked every Interval.
type FileWriter struct {
	MaxSize  int64
	Keep     int
	Interval time.Duration

	path      string
	lastCheck time.Time
	w         *os.File
	log       *log.Logger

	fileLock sync.Mutex
}

func NewLogWriter(file string) *FileWriter {
	return &FileWriter{
		MaxSize:  defaultMaxSize,
		Keep:     defaultKeep,
		Interval: defaultInterval,
		path:     file,
		log:      log.New(os.Stderr, "[log]: ", 0),
	}
}

func (f *FileWriter) Close() error {
	f.fileLock.Lock()
	defer f.fileLock.Unlock()

	if f.w == nil {
		return nil
	}

	err := f.w.Close()
	f.w = nil
	return err
}

func (f *FileWriter) Write(p []byte) (n int, err error) {
	f.fileLock.Lock()
	defer f.fileLock.Unlock()

	if time.Since(f.lastCheck) >= f.Interval {
		f.lastCheck = time.Now()
		f.rotate()
	}

	if f.w == nil {
		if dir := filepath.Dir(f.path); dir != "" {
			_ = os.MkdirAll(dir, os.ModePerm)
		}

		f.w, err = os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			f.log.Println(err)
			return 0, err
		}
	}

	return f.w.Write(p)
}

func (f *FileWriter) rotate() {
	fs, err := os.Stat(f.path)
	if err != nil {
		return
	}

	if fs.Size() < f.MaxSize {
		return
	}

	if f.w != nil {
		_ = f.w.Close()
		f.w = nil
	}

	err = os.Rename(f.path, fmt.Sprintf("%s_%d", f.path, time.Now().UnixNano()))
	if err != nil {
		f.log.Println(err)
	}

	f.removeOldFile()
}

func (f *FileWriter) removeOldFile() {
	dir, filename := filepath.Split(f.path)
	if dir == "" {
		dir = "."
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		f.log.Println(err)
		return
	}

	logfiles := make([]string, 0, len(files))
	for _, file := range files {
		if file.Name() == filename || !strings.HasPrefix(file.Name(), filename+"_") {
			continue
		}

		logfiles = append(logfiles, file.Name())
	}

	if len(logfiles) <= f.Keep {
		return
	}

	sort.Strings(logfiles)

	for _, name := range logfiles[:len(logfiles)-f.Keep] {
		if err = os.Remove(filepath.Join(dir, name)); err != nil {
			f.log.Printf("remove log file %s failed: %v\n", name, err)
		}
	}
}
