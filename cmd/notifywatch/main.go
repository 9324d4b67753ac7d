// notifywatch tails the notification websocket for one profile. It is a
// development tool: pass signed telegram init data in NOTIFYWATCH_INIT_DATA
// and optionally the feed url as the first argument.
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/OpenClique85/openclique-sub010/internal/notify"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const defaultURL = "ws://localhost:8888/api/v1/notifications/ws"

func main() {
	url := defaultURL
	if len(os.Args) > 1 {
		url = os.Args[1]
	}

	header := http.Header{}
	header.Add("Authorization", "Telegram "+os.Getenv("NOTIFYWATCH_INIT_DATA"))

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		if resp != nil {
			log.Fatalf("dial %s: %v (HTTP %d)", url, err, resp.StatusCode)
		}
		log.Fatalf("dial %s: %v", url, err)
	}
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	messages := make(chan notify.Message)
	go func() {
		defer close(messages)
		for {
			_, p, err := conn.ReadMessage()
			if err != nil {
				log.Println("read error:", err)
				return
			}
			var msg notify.Message
			if err := json.Unmarshal(p, &msg); err != nil {
				log.Println("skipping malformed frame:", err)
				continue
			}
			messages <- msg
		}
	}()

	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				return
			}
			printMessage(msg)
		case <-interrupt:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}

func printMessage(msg notify.Message) {
	stamp := color.New(color.FgHiBlack).Sprint(time.Now().Format(time.TimeOnly))
	kind := color.New(color.FgCyan).Sprint(msg.Type)
	fmt.Printf("%s %s %v\n", stamp, kind, msg.Payload["title"])
	if body, ok := msg.Payload["body"].(string); ok {
		fmt.Printf("    %s\n", body)
	}
	if questID, ok := msg.Payload["quest_id"].(string); ok {
		fmt.Printf("    quest %s\n", questID)
	}
}
