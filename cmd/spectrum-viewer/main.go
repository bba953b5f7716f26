// spectrum-viewer renders a spectrum chart from a salsa server, either by
// following a live stream for a while or by fetching one stored observation.
//
// Examples:
//
//	spectrum-viewer -stream ws://localhost:8080/api/stream/vale -duration 10s -html chart.html
//	spectrum-viewer -observation http://localhost:8080/api/observations/42 -unit velocity -png chart.png
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/salsa-telescope/salsa/internal/session"
	"github.com/salsa-telescope/salsa/internal/spectrum"
)

var (
	streamURL      = flag.String("stream", "", "Websocket URL of a live spectrum stream")
	observationURL = flag.String("observation", "", "HTTP URL of a stored observation")
	duration       = flag.Duration("duration", 10*time.Second, "How long to follow a live stream")
	unit           = flag.String("unit", "frequency", "Display unit: frequency or velocity")
	htmlOut        = flag.String("html", "", "Write the chart as HTML to this path")
	pngOut         = flag.String("png", "", "Write the chart as PNG to this path")
	width          = flag.Float64("width", 900, "Chart width in pixels")
	height         = flag.Float64("height", 500, "Chart height in pixels")
	title          = flag.String("title", "Spectrum", "Chart title")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if (*streamURL == "") == (*observationURL == "") {
		return errors.New("exactly one of -stream or -observation is required")
	}
	if *htmlOut == "" && *pngOut == "" {
		return errors.New("at least one of -html or -png is required")
	}
	switch *unit {
	case "frequency", "velocity":
	default:
		return fmt.Errorf("unknown unit %q", *unit)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	chart := spectrum.NewChartState(*width, *height, nil)
	var mount session.Mount
	defer mount.Close()

	var sess *session.Session
	if *streamURL != "" {
		// Follow the stream until the duration elapses or it drops.
		streamCtx, cancel := context.WithTimeout(ctx, *duration)
		defer cancel()
		sess = mount.Attach(streamCtx, &session.StreamingSource{URL: *streamURL}, chart, nil)
	} else {
		sess = mount.Attach(ctx, &session.FetchedSource{URL: *observationURL}, chart, nil)
	}

	<-sess.Done()
	switch sess.State() {
	case session.StateReady, session.StateClosed, session.StateDisconnected:
	default:
		return fmt.Errorf("session ended in state %s: %w", sess.State(), sess.Err())
	}
	if chart.Empty() {
		return errors.New("no spectrum received")
	}

	if *unit == "velocity" {
		if err := chart.ToggleUnit(); err != nil {
			return fmt.Errorf("cannot display velocity: %w", err)
		}
	}

	if *htmlOut != "" {
		render := func(w io.Writer) error { return chart.RenderHTML(w, *title) }
		if err := writeChart(*htmlOut, render); err != nil {
			return err
		}
		log.Printf("wrote %s", *htmlOut)
	}
	if *pngOut != "" {
		if err := writeChart(*pngOut, chart.RenderPNG); err != nil {
			return err
		}
		log.Printf("wrote %s", *pngOut)
	}
	return nil
}

func writeChart(path string, render func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	return f.Close()
}
