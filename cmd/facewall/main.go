// Command facewall shows a running session on a desktop window, for a
// second screen next to the players.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/toddllm/face-controls/internal/sim"
	"github.com/toddllm/face-controls/internal/spectate"
)

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "server websocket URL")
	sid := flag.String("sid", "", "session ID to show")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if *sid == "" {
		fmt.Fprintln(os.Stderr, "facewall: -sid is required")
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client, err := spectate.Dial(ctx, *url, *sid, log)
	if err != nil {
		log.Error("attach failed", "err", err)
		os.Exit(1)
	}
	defer client.Close()

	tu := sim.DefaultTuning()
	wall := NewWall(int(tu.Width), int(tu.Height))
	go func() {
		err := client.Run(ctx, func(u spectate.Update) {
			if u.Snapshot != nil {
				wall.Push(u.Snapshot)
				return
			}
			wall.Announce(announcement(u.Message))
		})
		if err != nil {
			wall.Fail(err)
		}
	}()

	ebiten.SetWindowSize(int(tu.Width), int(tu.Height))
	ebiten.SetWindowTitle("face-controls " + *sid)
	if err := ebiten.RunGame(wall); err != nil {
		log.Error("wall stopped", "err", err)
		os.Exit(1)
	}
}
