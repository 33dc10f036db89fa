// showctl is a thin remote control for a running showd daemon.
package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"

	"github.com/stagecue/stagecue/internal/httpc"
)

func main() {
	host := flag.String("host", "localhost:8080", "daemon address")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	base := "http://" + *host
	var err error

	switch cmd := args[0]; cmd {
	case "status":
		err = get(base + "/api/status")
	case "compositions":
		err = get(base + "/api/compositions")
	case "play", "pause", "stop", "toggle", "next", "previous":
		err = post(base + "/api/transport/" + cmd)
	case "seek":
		if len(args) < 2 {
			err = fmt.Errorf("seek needs a position in milliseconds")
			break
		}
		err = post(base + "/api/transport/seek?millis=" + url.QueryEscape(args[1]))
	case "set":
		if len(args) < 2 {
			err = fmt.Errorf("set needs a composition name")
			break
		}
		err = post(base + "/api/transport/set?composition=" + url.QueryEscape(args[1]))
	case "sample":
		if len(args) < 2 {
			err = fmt.Errorf("sample needs a file name")
			break
		}
		err = post(base + "/api/sample/play?name=" + url.QueryEscape(args[1]))
	case "reload":
		err = post(base + "/api/compositions/reload")
	case "tail":
		err = tail(*host)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: showctl [-host addr] <command>

commands:
  status            print the transport snapshot
  compositions      list the loaded compositions
  play              play the current composition
  pause             pause playback
  stop              stop playback
  toggle            stop if playing, otherwise play
  next              select the next composition
  previous          select the previous composition
  seek <millis>     jump to a position
  set <name>        select a composition by name
  sample <file>     preview a single audio file
  reload            re-read the composition directory
  tail              stream live updates until interrupted
`)
}

func get(target string) error {
	resp, err := httpc.Get(target)
	if err != nil {
		return err
	}
	return printResponse(resp)
}

func post(target string) error {
	resp, err := httpc.Post(target, "application/json", nil)
	if err != nil {
		return err
	}
	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s: %s", resp.Status, body)
	}
	fmt.Println(string(body))
	return nil
}

// tail subscribes to the update websocket and prints every message until the
// connection closes or the user interrupts.
func tail(host string) error {
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+host+"/ws/updates", nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			fmt.Println(string(msg))
		}
	}()

	select {
	case <-done:
		return nil
	case <-interrupt:
		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		conn.WriteMessage(websocket.CloseMessage, closeMsg)
		return nil
	}
}
