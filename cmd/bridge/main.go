package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/wippyai/http-bridge/bridge"
	"github.com/wippyai/http-bridge/config"
	"github.com/wippyai/http-bridge/entrypoint"
	"github.com/wippyai/http-bridge/examples/hello"
	"github.com/wippyai/http-bridge/managed/vm"
	"github.com/wippyai/http-bridge/sdk"
	"github.com/wippyai/http-bridge/trigger"
	"github.com/wippyai/http-bridge/wire"
)

func main() {
	var (
		envFile     = flag.String("env", "", "Env file to load (defaults to .env when present)")
		mode        = flag.String("mode", "", "Trigger: http or lambda (overrides BRIDGE_SERVER_MODE)")
		addr        = flag.String("addr", "", "HTTP listen address (overrides BRIDGE_SERVER_ADDR)")
		call        = flag.String("call", "", "Send one request, e.g. \"GET /path?q=1\", print the response and exit")
		body        = flag.String("body", "", "Body for -call")
		list        = flag.Bool("list", false, "List loaded classes and methods and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		fatal(err)
	}
	if *mode != "" {
		cfg.Server.Mode = strings.ToLower(*mode)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := config.Validate(cfg); err != nil {
		fatal(err)
	}

	log, err := config.NewLogger(cfg.Log)
	if err != nil {
		fatal(err)
	}
	defer func() { _ = log.Sync() }()
	bridge.SetLogger(log)
	entrypoint.SetLogger(log)

	rt := vm.New(
		vm.WithAssemblies(sdk.Assembly(), hello.Assembly()),
		vm.WithLogger(log.Named("vm")),
	)
	d := bridge.New(rt, entrypoint.New(rt), bridge.WithConfig(cfg.Bridge), bridge.WithLogger(log.Named("bridge")))

	switch {
	case *list:
		err = listCatalog(rt)
	case *interactive:
		err = runInteractive(d)
	case *call != "":
		err = callOnce(d, *call, *body)
	default:
		err = serve(d, cfg, log)
	}
	if err != nil {
		fatal(err)
	}
}

func serve(d *bridge.Dispatcher, cfg *config.Config, log *zap.Logger) error {
	opts := trigger.Options{
		Logger:       log.Named("trigger"),
		RateLimit:    cfg.Server.RateLimit,
		Burst:        cfg.Server.Burst,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	}
	if cfg.Server.Prewarm {
		d.Prewarm()
		log.Info("handler prewarmed", zap.Stringer("state", d.State()))
	}

	if cfg.Server.Mode == "lambda" {
		lambda.Start(trigger.NewLambda(d, opts))
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return trigger.NewServer(d, opts).ListenAndServe(ctx, cfg.Server.Addr)
}

func callOnce(d *bridge.Dispatcher, line, body string) error {
	req, err := parseCall(line, body)
	if err != nil {
		return err
	}
	printResponse(os.Stdout, d.Handle(req))
	return nil
}

func listCatalog(rt *vm.Runtime) error {
	if err := rt.RegisterBundledAssemblies(); err != nil {
		return err
	}
	for _, img := range rt.Images() {
		fmt.Printf("%s\n", img.Name())
		for _, c := range rt.Classes(img) {
			fmt.Printf("  %s\n", c.FullName())
			for _, m := range rt.Methods(c) {
				static := ""
				if m.IsStatic() {
					static = "static "
				}
				fmt.Printf("    %s%s/%d\n", static, m.Name(), m.NumParams())
			}
		}
	}
	return nil
}

// parseCall reads "METHOD URI". The query string of URI becomes the
// parameter list.
func parseCall(line, body string) (wire.Request, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return wire.Request{}, fmt.Errorf("request must be \"METHOD URI\", got %q", line)
	}
	method, ok := wire.ParseMethod(fields[0])
	if !ok {
		return wire.Request{}, fmt.Errorf("unsupported method %q", fields[0])
	}

	req := wire.Request{Method: method, URI: fields[1]}
	if _, query, found := strings.Cut(fields[1], "?"); found {
		req.Params = trigger.ParseQuery(query)
	}
	if body != "" {
		req.Body = wire.Some([]byte(body))
	}
	return req, nil
}

func printResponse(w io.Writer, resp wire.Response) {
	fmt.Fprintf(w, "%d\n", resp.Status)
	if headers, ok := resp.Headers.Get(); ok {
		for _, kv := range headers {
			fmt.Fprintf(w, "%s: %s\n", kv.Key, kv.Value)
		}
	}
	if b, ok := resp.Body.Get(); ok {
		fmt.Fprintf(w, "\n%s\n", b)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
