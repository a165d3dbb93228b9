package main

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/alnah/go-lark2html/internal/config"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now        func() time.Time
	Stdout     io.Writer
	Stderr     io.Writer
	HTTPClient *http.Client   // nil = library default
	Config     *config.Config // Set by the running command once resolved
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Config: config.DefaultConfig(),
	}
}
