package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"botarena.ai/internal/protocol"
)

func main() {
	var (
		addr      = flag.String("addr", "localhost:8080", "arena http address")
		events    = flag.Bool("events", true, "print turn events")
		narrative = flag.Bool("narrative", true, "print event text instead of raw event fields")
		plain     = flag.Bool("plain", false, "do not clear the terminal between frames")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[watch] ", log.LstdFlags|log.Lmicroseconds)

	boot, err := fetchBootstrap(*addr)
	if err != nil {
		logger.Fatalf("bootstrap: %v", err)
	}
	logger.Printf("match=%s board=%dx%d max_turns=%d seed=%d roster=%d",
		boot.MatchID, boot.Board.Width, boot.Board.Height, boot.Board.MaxTurns, boot.Board.Seed, len(boot.Roster))

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/v1/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	sub := protocol.SubscribeMsg{
		Type:            protocol.TypeSubscribe,
		ProtocolVersion: protocol.Version,
		Events:          *events,
		Narrative:       *narrative,
	}
	if err := conn.WriteJSON(sub); err != nil {
		logger.Fatalf("send SUBSCRIBE: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeTurn:
			var tm protocol.TurnMsg
			if err := json.Unmarshal(msg, &tm); err != nil {
				continue
			}
			if !*plain {
				fmt.Print("\033[H\033[2J")
			}
			fmt.Print(renderTurn(boot.Board, tm))
			if tm.Outcome.Status != "ongoing" {
				logger.Printf("match over: %s", outcomeLine(tm.Outcome))
				return
			}
		case protocol.TypeError:
			var em protocol.ErrorMsg
			_ = json.Unmarshal(msg, &em)
			logger.Fatalf("server error %s: %s", em.Code, em.Message)
		}
	}
}

func fetchBootstrap(addr string) (protocol.BootstrapResponse, error) {
	var boot protocol.BootstrapResponse
	u := url.URL{Scheme: "http", Host: addr, Path: "/v1/bootstrap"}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(u.String())
	if err != nil {
		return boot, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return boot, fmt.Errorf("GET %s: %s", u.Path, resp.Status)
	}
	err = json.NewDecoder(resp.Body).Decode(&boot)
	return boot, err
}
