package docker

import "time"

// Runtime is the image and interpreter invocation for one language. The
// program text is appended as the final argument of Command.
type Runtime struct {
	Image   string
	Command []string
}

// Config holds sandbox limits shared by every language and the per-language
// runtimes. Each runtime gets its own pool of PoolSize warm containers.
type Config struct {
	Runtimes    map[string]Runtime
	MemoryLimit int64   // bytes
	CPULimit    float64 // fraction of one CPU
	Timeout     time.Duration
	PoolSize    int
}

func DefaultConfig() Config {
	return Config{
		Runtimes: map[string]Runtime{
			"python":     {Image: "python:3.12-alpine", Command: []string{"python", "-c"}},
			"javascript": {Image: "node:20-alpine", Command: []string{"node", "-e"}},
			"ruby":       {Image: "ruby:3.3-alpine", Command: []string{"ruby", "-e"}},
		},
		MemoryLimit: 128 * 1024 * 1024,
		CPULimit:    0.5,
		Timeout:     5 * time.Second,
		PoolSize:    2,
	}
}
