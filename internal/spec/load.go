package spec

import (
	_ "embed"
	"sync"
)

//go:embed specs.yaml
var embedded []byte

var (
	loadOnce sync.Once
	loaded   *Specs
	loadErr  error
)

// Load parses the embedded specs on first use and returns the same tree on
// every later call.
func Load() (*Specs, error) {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(embedded)
	})
	return loaded, loadErr
}

// MustLoad is Load for process start, where a broken tree is unrecoverable.
func MustLoad() *Specs {
	s, err := Load()
	if err != nil {
		panic(err)
	}
	return s
}
