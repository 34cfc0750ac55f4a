// Command facewatch follows a running session in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"

	"github.com/toddllm/face-controls/internal/sim"
	"github.com/toddllm/face-controls/internal/spectate"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "server websocket URL")
	sid := flag.String("sid", "", "session ID to follow")
	logPath := flag.String("log", "", "write logs to this file")
	width := flag.Float64("w", sim.DefaultTuning().Width, "canvas width of the session")
	height := flag.Float64("h", sim.DefaultTuning().Height, "canvas height of the session")
	flag.Parse()

	if *sid == "" {
		fmt.Fprintln(os.Stderr, "facewatch: -sid is required")
		os.Exit(2)
	}

	var out io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "facewatch: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	log := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	if err := run(*url, *sid, *width, *height, log); err != nil {
		fmt.Fprintf(os.Stderr, "facewatch: %v\n", err)
		os.Exit(1)
	}
}

func run(url, sid string, cw, ch float64, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := spectate.Dial(ctx, url, sid, log)
	if err != nil {
		return err
	}
	defer client.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	snaps := make(chan *sim.Snapshot, 1)
	errc := make(chan error, 1)
	go func() {
		errc <- client.Run(ctx, func(u spectate.Update) {
			if u.Message != nil {
				log.Info("server message", "type", u.Message.T, "data", string(u.Message.D))
				return
			}
			select {
			case snaps <- u.Snapshot:
			default:
				// drop the stale one
				select {
				case <-snaps:
				default:
				}
				snaps <- u.Snapshot
			}
		})
	}()

	keys := make(chan tcell.Event, 8)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			keys <- ev
		}
	}()

	var last *sim.Snapshot
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return err
		case snap := <-snaps:
			last = snap
			render(screen, last, cw, ch)
			screen.Show()
		case ev := <-keys:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					return nil
				}
			case *tcell.EventResize:
				screen.Sync()
				if last != nil {
					render(screen, last, cw, ch)
					screen.Show()
				}
			}
		}
	}
}
