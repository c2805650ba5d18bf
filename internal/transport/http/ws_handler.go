package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"onboarding-service/internal/app"
	"onboarding-service/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type WSHandler struct {
	service  *app.OnboardingService
	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

func NewWSHandler(service *app.OnboardingService, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type personaPayload struct {
	Persona string `json:"persona"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Value      string `json:"value"`
}

type togglePayload struct {
	QuestionID string `json:"questionId"`
	Option     string `json:"option"`
}

type otherTextPayload struct {
	QuestionID string `json:"questionId"`
	Text       string `json:"text"`
}

type reviewEditPayload struct {
	QuestionID string        `json:"questionId"`
	Answer     domain.Answer `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the onboarding use cases.
// Without a sessionId a new session is started and discarded when the socket closes;
// with one, the socket attaches to an existing session without owning it.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := r.URL.Query().Get("sessionId")
	owned := sessionID == ""
	if !owned {
		if _, err := h.service.View(ctx, sessionID); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	if owned {
		view, err := h.service.Start(ctx)
		if err != nil {
			_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: toErrorPayload(err)})
			return
		}
		sessionID = view.SessionID
	}
	logger := h.logger.With().Str("session_id", sessionID).Logger()

	updates, cancel, err := h.service.Subscribe(ctx, sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: toErrorPayload(err)})
		return
	}
	defer cancel()
	if owned {
		// Leaving stops the transition timer, so no callback outlives the socket.
		defer h.service.Leave(context.Background(), sessionID)
	}

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer; gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debug().Err(err).Msg("ws write error")
				// Unblocks the read loop as well.
				_ = conn.Close()
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case view, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: view}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(ctx, sessionID, inbound); err != nil {
			logger.Debug().Err(err).Str("op", inbound.Type).Msg("ws message rejected")
			msg := outboundMessage[any]{Type: "error", Payload: toErrorPayload(err)}
			if !deliver(send, writerDone, msg) {
				break
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// deliver queues msg for the writer. It reports false once the writer has
// exited, instead of blocking on a queue nobody drains.
func deliver(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}

var errUnsupportedMessage = errors.New("unsupported message type")

// dispatch maps one inbound message onto a service call. Resulting views
// reach the client through the session subscription.
func (h *WSHandler) dispatch(ctx context.Context, sessionID string, in inboundMessage) error {
	var err error
	switch in.Type {
	case "choosePersona":
		var p personaPayload
		if err = decode(in.Payload, &p); err == nil {
			_, err = h.service.ChoosePersona(ctx, sessionID, p.Persona)
		}
	case "setAnswer":
		var p answerPayload
		if err = decode(in.Payload, &p); err == nil {
			_, err = h.service.SetAnswer(ctx, sessionID, p.QuestionID, p.Value)
		}
	case "toggleChoice":
		var p togglePayload
		if err = decode(in.Payload, &p); err == nil {
			_, err = h.service.ToggleChoice(ctx, sessionID, p.QuestionID, p.Option)
		}
	case "setOtherText":
		var p otherTextPayload
		if err = decode(in.Payload, &p); err == nil {
			_, err = h.service.SetOtherText(ctx, sessionID, p.QuestionID, p.Text)
		}
	case "reviewEdit":
		var p reviewEditPayload
		if err = decode(in.Payload, &p); err == nil {
			_, err = h.service.ReviewEdit(ctx, sessionID, p.QuestionID, p.Answer)
		}
	case "advance":
		_, err = h.service.Advance(ctx, sessionID)
	case "retreat":
		_, err = h.service.Retreat(ctx, sessionID)
	case "backToQuestions":
		_, err = h.service.BackToQuestions(ctx, sessionID)
	case "submit":
		_, err = h.service.Submit(ctx, sessionID)
	case "restart":
		_, err = h.service.Restart(ctx, sessionID)
	default:
		err = errUnsupportedMessage
	}
	return err
}

type payloadError struct {
	err error
}

func (e payloadError) Error() string { return "invalid payload: " + e.err.Error() }
func (e payloadError) Unwrap() error { return e.err }

func decode(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return payloadError{err: errors.New("missing payload")}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return payloadError{err: err}
	}
	return nil
}

func toErrorPayload(err error) errorPayload {
	return errorPayload{Code: errorCode(err), Message: err.Error()}
}

func errorCode(err error) string {
	var perr payloadError
	switch {
	case errors.As(err, &perr):
		return "invalid_payload"
	case errors.Is(err, errUnsupportedMessage):
		return "unsupported_message"
	case errors.Is(err, domain.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, domain.ErrUnknownPersona):
		return "unknown_persona"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrCannotProceed):
		return "cannot_proceed"
	case errors.Is(err, domain.ErrUnknownQuestion):
		return "unknown_question"
	case errors.Is(err, domain.ErrUnknownOption):
		return "unknown_option"
	case errors.Is(err, domain.ErrKindMismatch):
		return "kind_mismatch"
	case errors.Is(err, domain.ErrOtherNotSelected):
		return "other_not_selected"
	default:
		return "internal"
	}
}
