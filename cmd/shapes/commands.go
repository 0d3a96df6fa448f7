package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shape-editor/backend/internal/parser"
	"github.com/shape-editor/backend/internal/serializer"
	"github.com/shape-editor/backend/internal/watch"
)

const stdinArg = "-"

// errLossyRewrite refuses fmt -w when only the legacy parser could read the file.
var errLossyRewrite = errors.New("refusing to overwrite with legacy parser output")

func newParseCmd(app *cli) *cobra.Command {
	var format, strategy string

	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse a shapes file and print the model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := serializer.ParseFormat(format)
			if err != nil {
				return err
			}
			if strategy == "" {
				strategy = app.strategy
			}

			text, err := app.readInput(cmd, args[0])
			if err != nil {
				return err
			}
			res, err := app.parse(text, strategy)
			if err != nil {
				return err
			}
			app.report(cmd, args[0], res)

			data, err := serializer.Encode(res.File, f)
			if err != nil {
				return fmt.Errorf("encoding %s: %w", f, err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, yaml, msgpack or lua")
	cmd.Flags().StringVarP(&strategy, "strategy", "s", "", "parser: auto, strict or legacy (default from config, else auto)")
	return cmd
}

func newFmtCmd(app *cli) *cobra.Command {
	var write, allowLossy bool

	cmd := &cobra.Command{
		Use:   "fmt FILE",
		Short: "Rewrite a shapes file in canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if write && args[0] == stdinArg {
				return errors.New("cannot use -w with standard input")
			}
			text, err := app.readInput(cmd, args[0])
			if err != nil {
				return err
			}
			res, err := app.parse(text, "auto")
			if err != nil {
				return err
			}
			if len(res.File.Shapes) == 0 && res.StrictErr != nil {
				return fmt.Errorf("%s: %w", args[0], res.StrictErr)
			}
			app.report(cmd, args[0], res)

			if res.Strategy == parser.StrategyLegacy && res.StrictErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %v; legacy output keeps only ids, scales and launcher_radial\n",
					args[0], res.StrictErr)
				if write && !allowLossy {
					return fmt.Errorf("%s: %w (pass --allow-lossy to write anyway)", args[0], errLossyRewrite)
				}
			}

			out := serializer.Serialize(res.File)
			if write {
				return writeFileAtomic(args[0], []byte(out))
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "write result to FILE instead of stdout")
	cmd.Flags().BoolVar(&allowLossy, "allow-lossy", false, "allow -w when only the legacy parser could read FILE")
	return cmd
}

func newRepairCmd(app *cli) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "repair FILE",
		Short: "Apply the textual repair pass without parsing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if write && args[0] == stdinArg {
				return errors.New("cannot use -w with standard input")
			}
			text, err := app.readInput(cmd, args[0])
			if err != nil {
				return err
			}
			out := parser.Repair(text)
			app.logger.Debug("repaired", zap.String("file", args[0]), zap.Bool("changed", out != text))

			if write {
				if out == text {
					return nil
				}
				return writeFileAtomic(args[0], []byte(out))
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "write result to FILE instead of stdout")
	return cmd
}

func newWatchCmd(app *cli) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-parse a shapes file each time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == stdinArg {
				return errors.New("cannot watch standard input")
			}
			if !cmd.Flags().Changed("debounce") {
				debounce = app.debounce
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			w, err := watch.New(args[0], app.opts, debounce, func(ev watch.Event) {
				fmt.Fprintln(out, summarize(ev))
			}, app.logger)
			if err != nil {
				return err
			}

			w.ParseNow()
			if err := w.Start(ctx); err != nil {
				w.Stop()
				return err
			}
			<-ctx.Done()
			w.Stop()

			stats := w.Stats()
			app.logger.Info("watch finished",
				zap.Int("events", stats.Events),
				zap.Int("parses", stats.Parses),
				zap.Int("errors", stats.Errors))
			return nil
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "settle time after the last change")
	return cmd
}

// readInput reads FILE, or standard input for "-", honouring the size limit.
func (app *cli) readInput(cmd *cobra.Command, name string) (string, error) {
	var r io.Reader
	if name == stdinArg {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(name)
		if err != nil {
			return "", &parser.IOError{Op: "open", Path: name, Err: err}
		}
		defer f.Close()
		r = f
	}

	limit := app.opts.MaxFileSize
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", &parser.IOError{Op: "read", Path: name, Err: err}
	}
	if limit > 0 && int64(len(data)) > limit {
		return "", &parser.IOError{Op: "read", Path: name, Err: fmt.Errorf("%w: limit %d bytes", parser.ErrFileTooLarge, limit)}
	}
	return string(data), nil
}

// parse runs the pipeline for "auto", or one registered parser by name.
func (app *cli) parse(text, strategy string) (*parser.Result, error) {
	switch strings.ToLower(strategy) {
	case "", "auto":
		return parser.ParseWithOptions(text, app.opts), nil
	}

	p, err := parser.GetGlobalRegistry().GetParserByName(strings.ToLower(strategy))
	if err != nil {
		return nil, err
	}
	return parser.ParseWith(p, text, app.opts)
}

// report logs how the file was read and warns when nothing was recovered.
func (app *cli) report(cmd *cobra.Command, name string, res *parser.Result) {
	fields := []zap.Field{
		zap.String("file", name),
		zap.String("strategy", string(res.Strategy)),
		zap.Int("shapes", len(res.File.Shapes)),
	}
	if res.StrictErr != nil {
		fields = append(fields, zap.NamedError("strictErr", res.StrictErr))
	}
	app.logger.Debug("parsed", fields...)

	if res.NothingRecovered() {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %d shape-like lines found but no shape could be recovered\n",
			name, res.Report.CandidateLines)
	}
}

func summarize(ev watch.Event) string {
	stamp := ev.At.Format("15:04:05")
	if ev.Err != nil {
		return fmt.Sprintf("%s error: %v", stamp, ev.Err)
	}
	msg := fmt.Sprintf("%s %s: %d shapes", stamp, ev.Result.Strategy, len(ev.Result.File.Shapes))
	if ev.Result.StrictErr != nil {
		msg += fmt.Sprintf(" (strict: %v)", ev.Result.StrictErr)
	}
	if ev.Result.NothingRecovered() {
		msg += " (nothing recovered)"
	}
	return msg
}

// writeFileAtomic replaces path via a temp file in the same directory.
func writeFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
