// Copyright (c) 2026 The XGo Authors (xgo.dev). All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goplus/xstage/internal/env"
	"github.com/goplus/xstage/internal/fetch"
	"github.com/goplus/xstage/internal/manifest"
	"github.com/goplus/xstage/internal/project"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "XSTAGE"

// settings are the resolved flag, environment and config file values.
type settings struct {
	LogLevel    string
	Root        string
	Manifest    string
	Verbose     bool
	HTTPTimeout time.Duration
	UserAgent   string
}

type app struct {
	v          *viper.Viper
	configFile string
	cfg        settings
}

// Execute runs xstage with the process arguments and exits with the code
// matching the outcome.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: stderr})
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		err = wrapError(err)
		log.Error().Msg(errorMessage(err))
		return exitCodeForError(err)
	}
	return 0
}

func newRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	cmd := &cobra.Command{
		Use:   "xstage",
		Short: "xstage stages native third-party dependencies",
		Long: `xstage downloads, extracts and builds the third-party source packages a
project depends on into per-platform staging directories, skipping every
package whose artifacts are already installed.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.initConfig(); err != nil {
				return err
			}
			setupLogging(a.cfg.LogLevel, cmd.ErrOrStderr())
			return nil
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file path")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("root", ".", "Workspace root holding External, ExternalSource, Local and Downloads")
	flags.String("manifest", manifest.DefaultFile, "Dependency manifest")
	flags.BoolP("verbose", "v", false, "Stream build output instead of capturing it")
	_ = a.v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("root", flags.Lookup("root"))
	_ = a.v.BindPFlag("manifest", flags.Lookup("manifest"))
	_ = a.v.BindPFlag("verbose", flags.Lookup("verbose"))

	cmd.AddCommand(newBuildCommand(a))
	cmd.AddCommand(newDepsCommand(a))
	cmd.AddCommand(newStatusCommand(a))
	cmd.AddCommand(newFetchCommand(a))
	return cmd
}

func (a *app) initConfig() error {
	v := a.v
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault("http_timeout", time.Duration(0))
	v.SetDefault("user_agent", fetch.DefaultUserAgent)

	if a.configFile != "" {
		v.SetConfigFile(a.configFile)
		if err := v.ReadInConfig(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("failed to read config file: %v", err)).
				WithCause(err)
		}
	} else {
		v.SetConfigName("xstage.config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/xstage")
		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("failed to read config file: %v", err)).
				WithCause(err)
		}
	}

	a.cfg = settings{
		LogLevel:    v.GetString("log_level"),
		Root:        v.GetString("root"),
		Manifest:    v.GetString("manifest"),
		Verbose:     v.GetBool("verbose"),
		HTTPTimeout: v.GetDuration("http_timeout"),
		UserAgent:   v.GetString("user_agent"),
	}
	return nil
}

func setupLogging(level string, out io.Writer) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: out})
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func (a *app) layout() (*env.Layout, error) {
	return env.NewLayout(a.cfg.Root, env.Current())
}

func (a *app) fetcher() *fetch.Fetcher {
	return fetch.New(fetch.WithTimeout(a.cfg.HTTPTimeout), fetch.WithUserAgent(a.cfg.UserAgent))
}

func exitCodeForError(err error) int {
	var exitErr *project.ExitError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		return exitErr.Code
	}
	switch errbuilder.CodeOf(err) {
	case errbuilder.CodeInvalidArgument, errbuilder.CodeAlreadyExists:
		return 2
	case errbuilder.CodePermissionDenied:
		return 3
	case errbuilder.CodeFailedPrecondition:
		return 4
	case errbuilder.CodeNotFound, errbuilder.CodeInternal:
		return 5
	default:
		return 1
	}
}

func errorMessage(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}
