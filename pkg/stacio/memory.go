package stacio

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/robert-malhotra/go-stac-catalog/pkg/stac"
)

// Memory is an in-memory stac.ReadWriter. Documents are stored as encoded
// JSON, so callers never share maps with it.
type Memory struct {
	mu    sync.Mutex
	docs  map[string][]byte
	reads map[string]int
}

var _ stac.ReadWriter = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte), reads: make(map[string]int)}
}

func (m *Memory) Read(_ context.Context, href string) (map[string]any, error) {
	m.mu.Lock()
	data, ok := m.docs[href]
	m.reads[href]++
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", stac.ErrNotFound, href)
	}
	return decode(href, data)
}

func (m *Memory) Write(_ context.Context, href string, doc map[string]any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", href, err)
	}
	m.PutRaw(href, data)
	return nil
}

// PutRaw stores data at href without validating it.
func (m *Memory) PutRaw(href string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[href] = data
}

// Reads returns how many times href has been read.
func (m *Memory) Reads(href string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads[href]
}

// Hrefs lists the stored hrefs in sorted order.
func (m *Memory) Hrefs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.docs))
	for h := range m.docs {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}
