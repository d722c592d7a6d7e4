// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"

	"github.com/ezrec/ucbasic/config"
	"github.com/ezrec/ucbasic/emulator"
	"github.com/ezrec/ucbasic/internal/logger"
	"github.com/ezrec/ucbasic/io"
	"github.com/ezrec/ucbasic/session"
	"github.com/ezrec/ucbasic/translate"
)

func main() {
	var cfgPath string
	var run string
	var assemble string
	var serve bool
	var verbose bool
	var noColor bool

	flag.StringVar(&cfgPath, "c", "", "TOML configuration file")
	flag.StringVar(&run, "r", "", "BASIC program in the store to run")
	flag.StringVar(&assemble, "a", "", "Assembly source file to assemble and execute")
	flag.BoolVar(&serve, "serve", false, "Serve remote sessions")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.BoolVar(&noColor, "no-color", false, "Disable colored logging")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(run) == 0 && len(assemble) == 0 && !serve {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	verbose = verbose || cfg.Log.Verbose
	cfg.Log.Verbose = verbose
	logger.Init(verbose, noColor || !cfg.Log.Color)

	err = translate.SetLanguage(cfg.Log.Locale)
	if err != nil {
		log.Warn("locale ignored", "locale", cfg.Log.Locale, "err", err)
	}

	store, err := io.OpenStore(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		log.Fatalf("%v: %v", cfg.Storage.Path, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tape := &io.Tape{Input: os.Stdin, Output: os.Stdout}
	emu := emulator.NewEmulator(tape, store)
	emu.Verbose = verbose
	cfg.Apply(emu.Basic)
	defer emu.Close()

	// Assemble and execute a source file.
	if len(assemble) != 0 {
		inf, err := os.Open(assemble)
		if err != nil {
			log.Fatalf("%v: %v", assemble, err)
		}
		defer inf.Close()

		_, err = emu.Asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", assemble, err)
		}

		err = emu.Execute()
		for line := range emu.Registers() {
			tape.EmitLine(line)
		}
		if err != nil {
			log.Fatalf("%v: %v", assemble, err)
		}
	}

	if len(run) != 0 {
		err = emu.RunBasic(ctx, run)
		if err != nil {
			log.Error("run failed", "file", run, "err", err)
		}
	}

	if serve {
		srv := &session.Server{
			Store:  store,
			Config: cfg,
		}
		err = srv.ListenAndServe(ctx)
		if err != nil {
			log.Fatal(err)
		}
	}
}
