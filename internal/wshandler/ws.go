package wshandler

import (
	"log/slog"
	"sync/atomic"

	"github.com/gofiber/contrib/websocket"

	"github.com/fieldops/missiond/internal/model"
)

type WebMessage struct {
	Typ    string           `json:"type"`
	Change *model.ChangeDTO `json:"change,omitempty"`
}

// JSONWsHandler pushes mission change events to one websocket client.
type JSONWsHandler struct {
	log    *slog.Logger
	name   string
	ws     *websocket.Conn
	ch     chan *WebMessage
	active int32
}

func NewHandler(log *slog.Logger, name string, ws *websocket.Conn) *JSONWsHandler {
	return &JSONWsHandler{
		log:    log.With("client", name),
		name:   name,
		ws:     ws,
		ch:     make(chan *WebMessage, 10),
		active: 1,
	}
}

func (w *JSONWsHandler) IsActive() bool {
	return w != nil && atomic.LoadInt32(&w.active) == 1
}

func (w *JSONWsHandler) stop() {
	if atomic.CompareAndSwapInt32(&w.active, 1, 0) {
		close(w.ch)
		w.ws.Close()
	}
}

func (w *JSONWsHandler) writer() {
	for item := range w.ch {
		if !w.IsActive() {
			return
		}

		if item == nil {
			continue
		}

		if err := w.ws.WriteJSON(item); err != nil {
			w.log.Debug("write error", slog.Any("error", err))

			return
		}
	}
}

func (w *JSONWsHandler) reader() {
	defer w.stop()

	for {
		if _, _, err := w.ws.ReadMessage(); err != nil {
			return
		}
	}
}

// SendChange queues a change event, dropping it if the client is slow.
func (w *JSONWsHandler) SendChange(c *model.Change) bool {
	if w == nil || !w.IsActive() {
		return false
	}

	select {
	case w.ch <- &WebMessage{Typ: "change", Change: model.ToChangeDTO(c)}:
	default:
	}

	return true
}

func (w *JSONWsHandler) Listen() {
	go w.writer()
	w.reader()
}
