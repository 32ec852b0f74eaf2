package server

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/xhad/jurnalcek/pkg/scorer"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     sameOrigin,
}

type Message struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	TopK    int    `json:"top_k,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Browsers always send Origin; non-browser clients may omit it.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("level=warn msg=\"websocket upgrade failed\" request_id=%s err=%q", RequestIDFrom(r.Context()), err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(s.config.MaxBodyBytes)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("level=warn msg=\"websocket read\" request_id=%s err=%q", RequestIDFrom(r.Context()), err)
			}
			return
		}

		// Handled inline: a connection allows one concurrent writer.
		if err := conn.WriteJSON(s.handleMessage(r, msg)); err != nil {
			log.Printf("level=warn msg=\"websocket write\" request_id=%s err=%q", RequestIDFrom(r.Context()), err)
			return
		}
	}
}

func (s *Server) handleMessage(r *http.Request, msg Message) Message {
	if msg.Type != "check" {
		return Message{Type: "error", Content: "unknown message type " + msg.Type}
	}
	if strings.TrimSpace(msg.Content) == "" {
		return Message{Type: "error", Content: msgNoTitle}
	}

	result, err := s.checker.Check(r.Context(), msg.Content, msg.TopK)
	if err != nil {
		if errors.Is(err, scorer.ErrEmptyTitle) {
			return Message{Type: "error", Content: msgNoTitle}
		}
		log.Printf("level=error msg=\"check failed\" request_id=%s err=%q", RequestIDFrom(r.Context()), err)
		return Message{Type: "error", Content: "failed to check title"}
	}

	return Message{Type: "result", Data: result}
}
