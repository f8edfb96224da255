package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Asutorufa/wsserver/pkg/config"
	"github.com/Asutorufa/wsserver/pkg/log"
	"github.com/Asutorufa/wsserver/pkg/metrics"
	"github.com/Asutorufa/wsserver/pkg/websocket"
	"github.com/gobwas/ws/wsutil"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func listenSign(closers ...io.Closer) {
	signChannel := make(chan os.Signal, 1)
	signal.Notify(signChannel, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		sig := <-signChannel
		log.Info("received signal, shutting down", "signal", sig)
		for _, c := range closers {
			_ = c.Close()
		}
	}()
}

func parseOptions(args []string) (config.Options, error) {
	fs := flag.NewFlagSet("wsserver", flag.ContinueOnError)

	path := fs.String("config", "", "json config file, flags override its values")
	host := fs.String("host", config.DefaultHost, "listen host")
	port := fs.Int("port", config.DefaultPort, "first port tried, taken ports are skipped")
	timeout := fs.Int("timeout", 0, "accept and read/write timeout in seconds, 0 blocks")
	fragment := fs.Int("fragment-size", config.DefaultFragmentSize, "max frame payload when sending")
	level := fs.String("log-level", "info", "debug, info, warn or error")
	file := fs.String("log-file", "", "also write logs to this file")
	metricsAddr := fs.String("metrics", "", "serve prometheus metrics on this address")
	proxyProtocol := fs.Bool("proxy-protocol", false, "expect a PROXY protocol header on accepted connections")

	if err := fs.Parse(args); err != nil {
		return config.Options{}, err
	}

	opts := config.Default()
	if *path != "" {
		var err error
		opts, err = config.Load(*path)
		if err != nil {
			return opts, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			opts.Host = *host
		case "port":
			opts.Port = *port
		case "timeout":
			opts.Timeout = *timeout
		case "fragment-size":
			opts.FragmentSize = *fragment
		case "log-level":
			opts.Log.Level = *level
		case "log-file":
			opts.Log.File = *file
		case "metrics":
			opts.MetricsAddr = *metricsAddr
		case "proxy-protocol":
			opts.ProxyProtocol = *proxyProtocol
		}
	})

	return opts, opts.Validate()
}

// echo sends every message back until the client closes.
func echo(c *websocket.Conn) error {
	for {
		op, msg, err := c.Receive()
		if err != nil {
			var closed wsutil.ClosedError
			if errors.As(err, &closed) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if err := c.Send(op, msg); err != nil {
			return err
		}
	}
}

// serve upgrades and echoes one client at a time until s is closed.
// Failed accepts are retried at most once per second after a short burst.
func serve(ctx context.Context, s *websocket.Server) error {
	limiter := rate.NewLimiter(rate.Every(time.Second), 5)

	for {
		c, err := s.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
			continue
		}

		if err := echo(c); err != nil {
			log.Warn("echo failed", "path", c.Result().Path(), "err", err)
		}
		_ = c.Close()
	}
}

func run(opts config.Options) error {
	log.Set(opts.Log)
	defer log.Close()

	s, err := websocket.NewServer(opts)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	closers := []io.Closer{s, closerFunc(cancel)}

	var metricsServer *http.Server
	if opts.MetricsAddr != "" {
		metrics.SetPrometheus()

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: opts.MetricsAddr, Handler: mux}
		closers = append(closers, metricsServer)
	}

	listenSign(closers...)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		defer s.Close()
		return serve(ctx, s)
	})

	if metricsServer != nil {
		g.Go(func() error {
			log.Info("metrics listening", "addr", opts.MetricsAddr)
			err := metricsServer.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
		g.Go(func() error {
			<-ctx.Done()
			return metricsServer.Close()
		})
	}

	return g.Wait()
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}

func main() {
	opts, err := parseOptions(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(opts); err != nil {
		log.Error("wsserver exit", "err", err)
		os.Exit(1)
	}
}
