// Package main runs a demo WebSocket client that prints dashboard refresh
// events. It imports a sample load so at least one event arrives.
package main

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	user := os.Getenv("DISPATCH_USER")
	if user == "" {
		user = "demo"
	}
	hdr := http.Header{}
	hdr.Set("X-User", user)
	hdr.Set("X-Role", "admin")

	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), hdr)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	go func() {
		time.Sleep(500 * time.Millisecond)
		body := []byte(`[{"driver":"Demo Driver","team":"Demo","pu_date":"` + time.Now().Format("2006-01-02") + `","price":1200,"trip_miles":600}]`)
		req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("http://localhost:%s/v1/loads", port), bytes.NewReader(body))
		req.Header = hdr.Clone()
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			log.Printf("import: %v", err)
			return
		}
		_ = resp.Body.Close()
		log.Printf("import: %s", resp.Status)
	}()

	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	for {
		var evt event
		if err := conn.ReadJSON(&evt); err != nil {
			log.Printf("read: %v", err)
			return
		}
		fmt.Printf("%s %v\n", evt.Type, evt.Data)
	}
}
