package main

import (
	"os"

	"github.com/lixenwraith/stagecraft/core"
)

func main() {
	// Terminal reset and stack trace on a panic escaping the command
	defer func() {
		if r := recover(); r != nil {
			core.HandleCrash(r)
		}
	}()

	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
