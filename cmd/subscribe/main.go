// Command subscribe is an example consumer of the notification stream: it
// dials the server's /ws endpoint and prints each roster event as it arrives.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"golang.org/x/net/websocket"
)

type wireEvent struct {
	Type              string `json:"type"`
	Activity          string `json:"activity"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	ParticipantsCount int    `json:"participants_count"`
	MaxParticipants   int    `json:"max_participants"`
	Details           *struct {
		Description     string `json:"description"`
		Schedule        string `json:"schedule"`
		MaxParticipants int    `json:"max_participants"`
	} `json:"details"`
}

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "WebSocket URL of the event stream")
	origin := flag.String("origin", "http://localhost/", "Origin header for the handshake")
	flag.Parse()

	conn, err := websocket.Dial(*url, "", *origin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", *url, err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Printf("connected to %s, waiting for updates...\n", *url)
	for {
		var raw string
		if err := websocket.Message.Receive(conn, &raw); err != nil {
			fmt.Println("connection closed by server")
			return
		}
		var e wireEvent
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			fmt.Printf("[?] %s\n", raw)
			continue
		}
		printEvent(e)
	}
}

func printEvent(e wireEvent) {
	switch e.Type {
	case "signup":
		fmt.Printf("[signup] %s joined %s (%d/%d)\n", e.Email, e.Activity, e.ParticipantsCount, e.MaxParticipants)
	case "unregister":
		fmt.Printf("[unregister] %s left %s (%d/%d)\n", e.Email, e.Activity, e.ParticipantsCount, e.MaxParticipants)
	case "activity_created":
		fmt.Printf("[activity_created] %s", e.Name)
		if e.Details != nil {
			fmt.Printf(" - %s", e.Details.Description)
		}
		fmt.Println()
	case "activity_updated":
		fmt.Printf("[activity_updated] %s\n", e.Name)
	default:
		fmt.Printf("[%s]\n", e.Type)
	}
}
