package history

import (
	"bufio"
	"errors"
	"io/fs"
	"sync"

	"github.com/spf13/afero"
)

// History is a bounded list of input lines, persisted to a file after every
// change. An empty file name keeps it in memory.
type History struct {
	items    []string
	fs       afero.Fs
	file     string
	maxItems int
	mu       sync.Mutex
}

func New(fsys afero.Fs, file string, maxItems int) (*History, error) {
	h := &History{
		fs:       fsys,
		file:     file,
		maxItems: maxItems,
	}
	if err := h.load(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *History) Add(item string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.maxItems == 0 {
		return nil
	}
	h.items = append(h.items, item)
	h.trim()
	return h.save()
}

func (h *History) GetAll() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]string{}, h.items...)
}

// Clear drops every entry.
func (h *History) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = nil
	return h.save()
}

func (h *History) trim() {
	if len(h.items) > h.maxItems {
		h.items = h.items[len(h.items)-h.maxItems:]
	}
}

func (h *History) load() error {
	if h.file == "" {
		return nil
	}
	file, err := h.fs.Open(h.file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		h.items = append(h.items, scanner.Text())
	}
	h.trim()
	return scanner.Err()
}

func (h *History) save() error {
	if h.file == "" {
		return nil
	}
	file, err := h.fs.Create(h.file)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, item := range h.items {
		if _, err := writer.WriteString(item + "\n"); err != nil {
			return err
		}
	}
	return writer.Flush()
}
