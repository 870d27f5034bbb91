package http

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tably-service/internal/app"
	"tably-service/internal/logger"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the user's saved configuration as a live
// session: session events are forwarded as they happen and answer messages are
// submitted to the active question. The connection is closed once the session
// finishes; a client that disconnects early abandons its session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing userId")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, err := h.service.StartSession(r.Context(), userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	send := make(chan outboundMessage, 16)
	writerDone := make(chan struct{})
	forwardDone := make(chan struct{})
	readDone := make(chan struct{})

	var sendMu sync.Mutex
	closed := false
	push := func(msg outboundMessage) {
		sendMu.Lock()
		defer sendMu.Unlock()
		if !closed {
			send <- msg
		}
	}

	// Single writer; after a write error it keeps draining so producers never block.
	go func() {
		defer close(writerDone)
		failed := false
		for msg := range send {
			if failed {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debug("ws write error for %s: %v", userID, err)
				failed = true
			}
		}
	}()

	go func() {
		defer close(forwardDone)
		for ev := range session.Events() {
			push(outboundMessage{Type: string(ev.Type), Payload: ev})
		}
	}()

	go func() {
		defer close(readDone)
		for {
			var inbound inboundMessage
			if err := conn.ReadJSON(&inbound); err != nil {
				return
			}
			switch inbound.Type {
			case "answer":
				var payload answerPayload
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					push(outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
					continue
				}
				if err := session.Submit(r.Context(), payload.Answer); err != nil {
					push(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
				}
			default:
				push(outboundMessage{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
			}
		}
	}()

	select {
	case <-forwardDone:
	case <-readDone:
		logger.Debug("client of %s disconnected", userID)
	}
	h.service.Abandon(session)
	<-forwardDone

	sendMu.Lock()
	closed = true
	close(send)
	sendMu.Unlock()
	<-writerDone

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session finished"),
		time.Now().Add(time.Second))
	_ = conn.Close()
	<-readDone
}
