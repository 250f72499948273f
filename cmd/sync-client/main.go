package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"resephub/pkg/logging"
)

type AnyEvent map[string]any

// sync-client prints catalog and favorites events, from the TCP stream by
// default or from a websocket with -ws.
func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "TCP sync server address")
	wsURL := flag.String("ws", "", "websocket URL, e.g. ws://localhost:8080/ws")
	pretty := flag.Bool("pretty", true, "pretty print JSON events")
	flag.Parse()

	logging.Init(logging.Config{Format: "console"})
	log := logging.With("sync-client")

	for {
		var err error
		if *wsURL != "" {
			err = runWS(*wsURL, *pretty)
		} else {
			err = runTCP(*addr, *pretty)
		}
		log.Warn().Err(err).Msg("disconnected")
		time.Sleep(1 * time.Second) // auto reconnect
	}
}

func runTCP(addr string, pretty bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	logging.Info().Str("addr", addr).Msg("connected")

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		printEvent(sc.Bytes(), pretty)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

func runWS(u string, pretty bool) error {
	ws, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u, err)
	}
	defer ws.Close()

	logging.Info().Str("url", u).Msg("connected")

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		printEvent(msg, pretty)
	}
}

func printEvent(line []byte, pretty bool) {
	if !pretty {
		fmt.Println(string(line))
		return
	}

	var obj AnyEvent
	if err := json.Unmarshal(line, &obj); err != nil {
		// not JSON? print raw
		fmt.Println(string(line))
		return
	}

	b, _ := json.MarshalIndent(obj, "", "  ")
	fmt.Println(string(b))
}
