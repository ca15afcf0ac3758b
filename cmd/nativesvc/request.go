package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/nativesvc/component"
	"github.com/kbukum/nativesvc/connection"
	"github.com/kbukum/nativesvc/logger"
	"github.com/kbukum/nativesvc/observability"
	"github.com/kbukum/nativesvc/version"
)

type requestOptions struct {
	method     string
	headers    []string
	data       string
	stream     bool
	include    bool
	configPath string
}

func newRequestCmd() *cobra.Command {
	var opts requestOptions
	cmd := &cobra.Command{
		Use:   "request URL",
		Short: "Send one request through the blocking HTTP bridge",
		Example: `  nativesvc request http://localhost:8080/get
  nativesvc request -X POST -H 'Content-Type: application/json' -d '{"a":1}' http://localhost:8080/post
  nativesvc request --stream http://localhost:8080/stream-bytes/1048576
  nativesvc request -d @payload.json -X PUT http://localhost:8080/put`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.method, "request", "X", "GET", "request method")
	cmd.Flags().StringArrayVarP(&opts.headers, "header", "H", nil, "request header 'Name: value' (repeatable)")
	cmd.Flags().StringVarP(&opts.data, "data", "d", "", "request body; @file reads a file, @- reads stdin")
	cmd.Flags().BoolVar(&opts.stream, "stream", false, "hand the body out frame by frame as it arrives")
	cmd.Flags().BoolVarP(&opts.include, "include", "i", false, "print the status line and headers before the body")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file path")
	return cmd
}

func runRequest(cmd *cobra.Command, uri string, opts requestOptions) error {
	m, ok := connection.ParseMethod(opts.method)
	if !ok {
		return fmt.Errorf("request: unknown method %q", opts.method)
	}
	pairs, err := parseHeaders(opts.headers)
	if err != nil {
		return err
	}
	body, err := readBody(opts.data, cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.stream {
		cfg.Connection.BodyMode = connection.BodyModeStreamed
	}
	logger.Init(cfg.Logging)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	shutdown, err := observability.Setup(ctx, cfg.Observability, cfg.Name, version.GetVersion())
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(context.Background()) }()

	metrics, err := observability.NewBridgeMetrics(observability.Meter(serviceName))
	if err != nil {
		return err
	}

	bridge := connection.NewComponent(cfg.Connection,
		connection.WithLogger(logger.GetGlobalLogger()),
		connection.WithMetrics(metrics),
	)
	components := component.NewRegistry()
	if err := components.Register(bridge); err != nil {
		return err
	}
	if err := components.StartAll(ctx); err != nil {
		return err
	}
	defer func() { _ = components.StopAll(context.Background()) }()

	return doRequest(ctx, cmd.OutOrStdout(), bridge.Connection(), m, uri, pairs, body, opts.include)
}

// doRequest runs one request cycle on conn and copies the response to
// out. Cancelling ctx abandons the wait for the response head.
func doRequest(ctx context.Context, out io.Writer, conn *connection.HTTPConnection, m connection.Method, uri string, headers []connection.HeaderPair, body []byte, include bool) error {
	if err := conn.InitiateRequest(m, uri, headers); err != nil {
		return err
	}
	if len(body) > 0 {
		if _, err := conn.Write(body); err != nil {
			return err
		}
	}
	if err := conn.InitiateResponseContext(ctx); err != nil {
		return err
	}

	head, reader, err := conn.Split()
	if err != nil {
		return err
	}
	if include {
		writeHead(out, head)
	}
	if _, err := io.Copy(out, reader); err != nil {
		return err
	}
	if head.Status() >= 400 {
		return fmt.Errorf("request: server responded %d", head.Status())
	}
	return nil
}

func writeHead(w io.Writer, head *connection.ResponseHead) {
	msg, _ := head.StatusMessage()
	fmt.Fprintf(w, "%s %d %s\n", head.Proto(), head.Status(), msg)
	h := head.Headers()
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range h[name] {
			fmt.Fprintf(w, "%s: %s\n", name, v)
		}
	}
	fmt.Fprintln(w)
}

// parseHeaders turns "Name: value" flags into header pairs. Name and
// value checks happen in the bridge.
func parseHeaders(raw []string) ([]connection.HeaderPair, error) {
	pairs := make([]connection.HeaderPair, 0, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, fmt.Errorf("request: header %q is not 'Name: value'", h)
		}
		pairs = append(pairs, connection.HeaderPair{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
		})
	}
	return pairs, nil
}

func readBody(data string, stdin io.Reader) ([]byte, error) {
	path, ok := strings.CutPrefix(data, "@")
	if !ok {
		return []byte(data), nil
	}
	if path == "-" {
		return io.ReadAll(stdin)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("request: read body file: %w", err)
	}
	return b, nil
}
