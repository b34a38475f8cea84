package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

type runFlags struct {
	watch       bool
	metricsAddr string
}

func newRunCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the modules and feed them host events from stdin",
		Long: `run starts every enabled module and reads host events from stdin, one per line:

  <point> [args...]   fire a hook point; numbers and true/false are converted
  world               world transition: clean up every module
  reload              re-read the configuration and restart the modules
  quit                stop`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runModules(ctx, cmd, g, f)
		},
	}

	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "Reload when the configuration file changes")
	cmd.Flags().StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	return cmd
}

func runModules(ctx context.Context, cmd *cobra.Command, g *globalFlags, f *runFlags) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	s, err := openSession(cmd, g, sessionOptions{registerer: reg})
	if err != nil {
		return err
	}
	defer s.close()

	if _, err := s.app.Bootstrap(); err != nil {
		s.logger.Warn().Err(err).Msg("Started with errors")
	}

	if f.watch {
		if err := s.app.WatchConfig(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Cannot watch configuration")
		}
	}

	if f.metricsAddr != "" {
		srv := &http.Server{
			Addr:              f.metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
		defer srv.Close()
	}

	return s.serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}

// serve reads commands from in until EOF, quit or ctx is done.
func (s *session) serve(ctx context.Context, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if quit := s.handle(line, out); quit {
				return nil
			}
		}
	}
}

func (s *session) handle(line string, out io.Writer) (quit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return false
	}

	switch fields[0] {
	case "quit", "exit":
		return true
	case "world":
		if err := s.app.TransitionWorld(); err != nil {
			fmt.Fprintf(out, "world transition: %v\n", err)
		}
	case "reload":
		if _, err := s.app.Reload(); err != nil {
			fmt.Fprintf(out, "reload: %v\n", err)
		}
	default:
		point, args := fields[0], parseArgs(fields[1:])
		var delivered bool
		s.app.Do(func() {
			delivered = s.host.Fire(point, args...)
		})
		if !delivered {
			fmt.Fprintf(out, "no module listens on %s\n", point)
		}
	}
	return false
}

// parseArgs converts numeric and boolean words; everything else stays a
// string.
func parseArgs(words []string) []any {
	args := make([]any, 0, len(words))
	for _, w := range words {
		if b, err := strconv.ParseBool(w); err == nil && (w == "true" || w == "false") {
			args = append(args, b)
			continue
		}
		if n, err := strconv.ParseFloat(w, 64); err == nil {
			args = append(args, n)
			continue
		}
		args = append(args, w)
	}
	return args
}
