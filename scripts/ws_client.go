//go:build ignore

// Smoke client for the solve progress websocket:
//
//	go run scripts/ws_client.go ws://localhost:8080/v1/solves/ws <solveId>
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	if len(os.Args) < 3 {
		log.Fatalf("usage: %s <ws-url> <solveId>", os.Args[0])
	}
	url, solveID := os.Args[1], os.Args[2]

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(wsMessage{Type: "connection_init"}); err != nil {
		log.Fatalf("init: %v", err)
	}
	payload, _ := json.Marshal(map[string]string{"solveId": solveID})
	if err := conn.WriteJSON(wsMessage{Type: "subscribe", ID: "1", Payload: payload}); err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	deadline := time.Now().Add(5 * time.Minute)
	for time.Now().Before(deadline) {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			log.Fatalf("read: %v", err)
		}
		switch msg.Type {
		case "ping":
			_ = conn.WriteJSON(wsMessage{Type: "pong"})
		case "next":
			fmt.Printf("%s\n", msg.Payload)
		case "complete":
			return
		}
	}
}
