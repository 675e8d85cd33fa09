package main

import (
	"os"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/typelattice/internal/config"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiDim   = "\x1b[2m"
)

var (
	colorOnce    sync.Once
	colorEnabled bool
)

func detectColor(f *os.File) bool {
	// NO_COLOR convention: https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if config.IsTestMode || os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func useColor() bool {
	colorOnce.Do(func() {
		colorEnabled = detectColor(os.Stdout)
	})
	return colorEnabled
}

func paint(code, s string) string {
	if !useColor() {
		return s
	}
	return code + s + ansiReset
}

func pass(s string) string { return paint(ansiGreen, s) }
func fail(s string) string { return paint(ansiRed, s) }
func dim(s string) string  { return paint(ansiDim, s) }
