// Copyright 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command osdloader uploads firmware and parameters to an OSD board over
// its USB serial port.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	osd "github.com/ZaparooProject/go-osd"
	"github.com/ZaparooProject/go-osd/config"
	"github.com/ZaparooProject/go-osd/detection"
	"github.com/ZaparooProject/go-osd/flasher"
	"github.com/ZaparooProject/go-osd/transport/uart"
	"github.com/rs/zerolog/log"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("exactly one of -fw_w, -pm_w or -pm_r is required")

// optionalPath is a flag that may be given bare or with a value, like
// -pm_w or -pm_w=osd.txt.
type optionalPath struct {
	path string
	set  bool
}

func (o *optionalPath) String() string { return o.path }

func (o *optionalPath) Set(s string) error {
	o.set = true
	if s != "true" {
		o.path = s
	}
	return nil
}

func (*optionalPath) IsBoolFlag() bool { return true }

type cliOptions struct {
	firmware   string
	paramsOut  string
	port       string
	configPath string
	paramsIn   optionalPath
	debug      bool
	sessionLog bool
	warnCRC    bool
}

type action int

const (
	actionFirmware action = iota
	actionUploadParams
	actionDownloadParams
)

func parseFlags(args []string, output io.Writer) (*cliOptions, error) {
	opts := &cliOptions{}
	fs := flag.NewFlagSet("osdloader", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.firmware, "fw_w", "", "Upload a firmware `file` to the board")
	fs.Var(&opts.paramsIn, "pm_w", "Upload a parameter `file` (defaults when no file is given)")
	fs.StringVar(&opts.paramsOut, "pm_r", "", "Download the board parameters to `file`")
	fs.StringVar(&opts.port, "port", "", "Only try this serial port")
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration `file`")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug output")
	fs.BoolVar(&opts.sessionLog, "log", false, "Write a session log file")
	fs.BoolVar(&opts.warnCRC, "warn-crc", false, "Reboot into new firmware even if its checksum does not match")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// -pm_w osd.txt: the bare flag consumed no value and parsing stopped
	// at the path. Take it and resume with the flags after it.
	if opts.paramsIn.set && opts.paramsIn.path == "" && fs.NArg() > 0 && !isFlag(fs.Arg(0)) {
		opts.paramsIn.path = fs.Arg(0)
		if err := fs.Parse(fs.Args()[1:]); err != nil {
			return nil, err
		}
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

func isFlag(arg string) bool {
	return len(arg) > 1 && arg[0] == '-'
}

// action returns the single requested operation.
func (o *cliOptions) action() (action, error) {
	var picked []action
	if o.firmware != "" {
		picked = append(picked, actionFirmware)
	}
	if o.paramsIn.set {
		picked = append(picked, actionUploadParams)
	}
	if o.paramsOut != "" {
		picked = append(picked, actionDownloadParams)
	}
	if len(picked) != 1 {
		return 0, errUsage
	}
	return picked[0], nil
}

// apply folds the command line into the file configuration.
func (o *cliOptions) apply(cfg *config.Config) {
	if o.port != "" {
		cfg.Ports = []string{o.port}
	}
	if o.debug {
		cfg.Debug = true
	}
	if o.warnCRC {
		cfg.ChecksumPolicy = flasher.ChecksumWarn.String()
	}
	if o.sessionLog && cfg.SessionLog == "" {
		cfg.SessionLog = "."
	}
}

func run(ctx context.Context, opts *cliOptions, act action, cfg *config.Config, open osd.Opener, progress io.Writer) error {
	reporter := newProgressReporter(progress)
	defer reporter.finish()

	loc := detection.New(open, cfg.LocatorOptions(osd.WithProgressCallback(reporter.update)))
	f := flasher.New(loc, cfg.FlasherOptions()...)

	switch act {
	case actionFirmware:
		result, err := f.UploadFirmware(ctx, opts.firmware)
		if err != nil {
			return err
		}
		reporter.finish()
		if !result.ChecksumOK {
			log.Warn().Msg("firmware uploaded but the board checksum did not match")
		}
		log.Info().Str("port", result.Port).Msg("firmware upload complete")
		return nil
	case actionUploadParams:
		return f.UploadParams(ctx, opts.paramsIn.path)
	case actionDownloadParams:
		return f.DownloadParams(ctx, opts.paramsOut)
	default:
		return errUsage
	}
}

// interruptContext ignores the first interrupt so a half written flash is
// not abandoned by accident. A second interrupt cancels.
func interruptContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			log.Warn().Msg("operation in progress, interrupt again to abort")
		case <-ctx.Done():
			return
		}
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

func mainWithExitCode(args []string, stderr io.Writer, open osd.Opener) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	act, err := opts.action()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%v\n", err)
		return exitUsage
	}

	setupLogging(stderr, opts.debug)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		log.Error().Err(err).Msg("loading configuration")
		return exitError
	}
	opts.apply(cfg)

	if cfg.SessionLog != "" {
		if _, err := osd.InitSessionLog(cfg.SessionLog); err != nil {
			log.Error().Err(err).Msg("opening session log")
			return exitError
		}
		defer func() { _ = osd.CloseSessionLog() }()
	}
	setupLogging(stderr, cfg.Debug)
	if path := osd.GetSessionLogPath(); path != "" {
		log.Info().Str("file", path).Msg("session log opened")
	}

	ctx, cancel := interruptContext()
	defer cancel()

	if err := run(ctx, opts, act, cfg, open, stderr); err != nil {
		log.Error().Err(err).Msg("failed")
		if trace := osd.GetTrace(err); trace != nil && osd.DebugEnabled() {
			_, _ = fmt.Fprint(stderr, trace.FormatTrace())
		}
		return exitError
	}
	return exitOK
}

func main() {
	os.Exit(mainWithExitCode(os.Args[1:], os.Stderr, uart.Open))
}
