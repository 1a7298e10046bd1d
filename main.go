/*
Umbra renders the scene described by a TOML file with the deferred
Vulkan renderer.
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/umbra/engine"
	"github.com/spaghettifunk/umbra/engine/core"
	"github.com/spaghettifunk/umbra/testbed"
)

func main() {
	configPath := flag.String("config", engine.DefaultConfigPath, "path of the scene configuration")
	flag.Parse()

	if err := run(*configPath); err != nil {
		core.LogError("%s: %+v", core.ErrorClass(err), err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	config, err := engine.LoadConfig(configPath)
	if err != nil {
		return err
	}
	tb := testbed.NewTestGame(config)

	e, err := engine.New(tb.Game)
	if err != nil {
		return err
	}
	defer func() {
		if err := e.Shutdown(); err != nil {
			core.LogError("shutdown failed: %s", err)
		}
	}()

	if err := e.Initialize(); err != nil {
		return err
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	go func() {
		<-sigCh
		e.Quit()
	}()

	return e.Run()
}
