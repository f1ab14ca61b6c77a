// framelens: capture a frame from a video, camera or image and show the
// proxy's scene analysis in the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/teslashibe/framelens/internal/log"
	"github.com/teslashibe/framelens/pkg/capture"
	"github.com/teslashibe/framelens/pkg/capture/opencv"
	"github.com/teslashibe/framelens/pkg/client"
	"github.com/teslashibe/framelens/pkg/render"
)

var (
	proxyURL = flag.String("proxy", envOr("FRAMELENS_PROXY", "http://localhost:5000"), "Proxy base URL")
	source   = flag.String("source", "0", "Video file, stream URL, camera index or still image")
	seek     = flag.Duration("seek", 0, "Start position within a video file")
	quality  = flag.Int("jpeg", 0, "Send JPEG at this quality instead of PNG (1-100)")
	timeout  = flag.Duration("timeout", client.DefaultTimeout, "Analysis round-trip timeout")
	once     = flag.Bool("once", false, "Capture and analyze one frame, then exit")
	debug    = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	level := "warn"
	if *debug {
		level = "debug"
	}
	log.Init(level)

	src, err := openSource(*source)
	if err != nil {
		return err
	}
	defer src.Close()

	if v, ok := src.(*opencv.VideoSource); ok {
		w, h := v.Size()
		log.Info("video source opened", "source", *source, "width", w, "height", h)
		if *seek > 0 {
			v.Seek(*seek)
		}
	}

	var opts []capture.Option
	if *quality > 0 {
		opts = append(opts, capture.WithJPEG(*quality))
	}

	app := &app{
		src:    src,
		client: client.New(*proxyURL, client.WithTimeout(*timeout), client.WithLogger(log.L())),
		opts:   opts,
		out:    os.Stdout,
	}

	if *once {
		return app.analyze(context.Background())
	}
	return app.loop()
}

// openSource picks a still-image source for image files and OpenCV for everything else.
func openSource(name string) (capture.Source, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return capture.OpenImage(name)
	}
	return opencv.Open(name)
}

type app struct {
	src    capture.Source
	client *client.Client
	opts   []capture.Option
	out    io.Writer
}

func (a *app) loop() error {
	rl, err := readline.New("framelens> ")
	if err != nil {
		return err
	}
	defer func() {
		_ = rl.Close()
	}()

	render.Render(a.out, render.View{State: render.Idle})
	fmt.Fprintln(a.out, "Commands: <Enter> capture, seek <duration>, quit")

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			return nil
		}

		fields := strings.Fields(line)
		switch {
		case len(fields) == 0 || fields[0] == "capture":
			if err := a.analyze(context.Background()); err != nil {
				fmt.Fprintln(a.out, err)
			}
		case fields[0] == "seek" && len(fields) == 2:
			a.seek(fields[1])
		case fields[0] == "quit" || fields[0] == "exit":
			return nil
		default:
			fmt.Fprintf(a.out, "unknown command %q\n", line)
		}
	}
}

func (a *app) seek(arg string) {
	v, ok := a.src.(*opencv.VideoSource)
	if !ok {
		fmt.Fprintln(a.out, "seek needs a video source")
		return
	}
	d, err := time.ParseDuration(arg)
	if err != nil {
		fmt.Fprintf(a.out, "invalid duration %q\n", arg)
		return
	}
	v.Seek(d)
	fmt.Fprintf(a.out, "at %s\n", v.Position())
}

// analyze captures one frame, sends it and renders the outcome.
func (a *app) analyze(ctx context.Context) error {
	frame, err := capture.Capture(ctx, a.src, a.opts...)
	if err != nil {
		if errors.Is(err, capture.ErrSourceNotReady) {
			err = fmt.Errorf("video is not ready yet, wait for it to load and try again: %w", err)
		}
		return render.Render(a.out, render.View{State: render.Resolved, Err: err})
	}

	if err := render.Render(a.out, render.View{State: render.Analyzing, Preview: frame}); err != nil {
		return err
	}

	result, err := a.client.Analyze(ctx, frame.DataURI, frame.MIMEType)
	if err != nil {
		return render.Render(a.out, render.View{State: render.Resolved, Err: err, Preview: frame})
	}
	return render.Render(a.out, render.View{State: render.Resolved, Result: &result, Preview: frame})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
