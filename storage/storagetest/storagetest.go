// Package storagetest provides an in-memory blob store for tests.
package storagetest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Memory keeps blobs in a map; URLs use the memory:// scheme.
type Memory struct {
	mu    sync.Mutex
	blobs map[string][]byte
	// Fail lists original file names whose uploads should fail.
	Fail map[string]bool
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte), Fail: make(map[string]bool)}
}

func (m *Memory) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	m.mu.Lock()
	fail := false
	for fileName := range m.Fail {
		if strings.HasSuffix(name, "-"+fileName) {
			fail = true
		}
	}
	m.mu.Unlock()
	if fail {
		return "", fmt.Errorf("upload %s: simulated failure", name)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.blobs[name] = data
	m.mu.Unlock()
	return "memory://" + name, nil
}

func (m *Memory) Get(name string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[strings.TrimPrefix(name, "memory://")]
	return data, ok
}
