package board

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	boardpkg "omega/internal/board"
	"omega/internal/diagram"
	errs "omega/internal/errors"
	"omega/internal/httpresponse"
	"omega/internal/usecase/session"
	"omega/internal/utils"
)

type PlaceRequest struct {
	X    *int   `json:"x,omitempty"`
	Y    *int   `json:"y,omitempty"`
	Move string `json:"move,omitempty"`
}

type ModeRequest struct {
	Mode string `json:"mode"`
}

type LoadRequest struct {
	SGF string `json:"sgf"`
}

type SGFResponse struct {
	SGF string `json:"sgf"`
}

type StepsResponse struct {
	Steps int           `json:"steps"`
	State session.State `json:"state"`
}

type BoardHandler struct {
	log     *zap.SugaredLogger
	session *session.Session
	hub     *Hub
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func NewBoardHandler(log *zap.SugaredLogger, s *session.Session, hub *Hub) *BoardHandler {
	return &BoardHandler{log: log, session: s, hub: hub}
}

func (b *BoardHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, b.session.State())
}

func (b *BoardHandler) HandlePlace(w http.ResponseWriter, r *http.Request) {
	var req PlaceRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	var ok bool
	switch {
	case req.Move != "":
		var err error
		if ok, err = b.session.PlayNamed(req.Move); err != nil {
			httpresponse.WriteError(w, b.log, err)
			return
		}
	case req.X != nil && req.Y != nil:
		ok = b.session.Place(*req.X, *req.Y)
	default:
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, httpresponse.ErrorResponse{ErrorDescription: "either move or x and y are required"})
		return
	}
	if !ok {
		httpresponse.WriteError(w, b.log, fmt.Errorf("%w: %s", errs.ErrIllegalMove, describe(req)))
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, b.session.State())
}

func describe(req PlaceRequest) string {
	if req.Move != "" {
		return req.Move
	}
	return fmt.Sprintf("(%d, %d)", *req.X, *req.Y)
}

func (b *BoardHandler) HandlePass(w http.ResponseWriter, r *http.Request) {
	b.session.Pass()
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, b.session.State())
}

func (b *BoardHandler) HandleUndo(w http.ResponseWriter, r *http.Request) {
	if !b.session.Undo() {
		httpresponse.WriteResponseWithStatus(w, http.StatusConflict, httpresponse.ErrorResponse{ErrorDescription: "already at the first position"})
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, b.session.State())
}

func (b *BoardHandler) HandleRedo(w http.ResponseWriter, r *http.Request) {
	if !b.session.Redo() {
		httpresponse.WriteResponseWithStatus(w, http.StatusConflict, httpresponse.ErrorResponse{ErrorDescription: "already at the last position"})
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, b.session.State())
}

func (b *BoardHandler) HandleToStart(w http.ResponseWriter, r *http.Request) {
	n := b.session.ToStart()
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, StepsResponse{Steps: n, State: b.session.State()})
}

func (b *BoardHandler) HandleToEnd(w http.ResponseWriter, r *http.Request) {
	n := b.session.ToEnd()
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, StepsResponse{Steps: n, State: b.session.State()})
}

func (b *BoardHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	b.session.Clear()
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, b.session.State())
}

func (b *BoardHandler) HandleMode(w http.ResponseWriter, r *http.Request) {
	var req ModeRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}
	mode, ok := boardpkg.ParsePlaceMode(req.Mode)
	if !ok {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, httpresponse.ErrorResponse{ErrorDescription: "unknown mode " + req.Mode})
		return
	}
	b.session.SetPlaceMode(mode)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, b.session.State())
}

// HandleLoadSGF accepts either a raw record or {"sgf": "..."}.
func (b *BoardHandler) HandleLoadSGF(w http.ResponseWriter, r *http.Request) {
	body, err := utils.ReadRequestBody(r)
	if err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, httpresponse.ErrorResponse{ErrorDescription: "failed to read request body"})
		return
	}
	text := string(body)
	if strings.HasPrefix(strings.TrimSpace(text), "{") {
		var req LoadRequest
		if err := json.Unmarshal(body, &req); err != nil {
			httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, httpresponse.ErrorResponse{ErrorDescription: httpresponse.MALFORMEDJSON_errorDesc})
			return
		}
		text = req.SGF
	}

	info, err := b.session.LoadSGF(text)
	if err != nil {
		httpresponse.WriteError(w, b.log, err)
		return
	}
	b.log.Infow("record loaded over http", "black", info.PlayerBlack, "white", info.PlayerWhite)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, b.session.State())
}

func (b *BoardHandler) HandleSaveSGF(w http.ResponseWriter, r *http.Request) {
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, SGFResponse{SGF: b.session.SaveSGF()})
}

// HandleDiagram renders the current position as a PDF. With from and to it
// renders that range of the line instead, one page per position.
func (b *BoardHandler) HandleDiagram(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	line, idx := b.session.Line()
	info := b.session.State().Info
	title := "omega"
	if info.PlayerBlack != "" || info.PlayerWhite != "" {
		title = info.PlayerBlack + " - " + info.PlayerWhite
	}

	w.Header().Set("Content-Type", "application/pdf")
	var err error
	if q.Has("from") || q.Has("to") {
		first, errFrom := strconv.Atoi(q.Get("from"))
		last, errTo := strconv.Atoi(q.Get("to"))
		if errFrom != nil || errTo != nil {
			w.Header().Del("Content-Type")
			httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, httpresponse.ErrorResponse{ErrorDescription: "from and to must be numbers"})
			return
		}
		if first < 0 || last >= len(line) || first > last {
			w.Header().Del("Content-Type")
			httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, httpresponse.ErrorResponse{ErrorDescription: "range outside the line"})
			return
		}
		err = diagram.RenderLine(w, line, first, last, title)
	} else {
		opts := diagram.Options{Title: title, MoveNumbers: q.Get("numbers") == "true"}
		if q.Get("influence") == "true" {
			opts.Heat = b.session.Influence()
		}
		err = diagram.Render(w, line[idx], opts)
	}
	if err != nil {
		b.log.Errorw("render diagram", "error", err)
	}
}

// HandleWS streams state and suggestion updates until the viewer leaves.
func (b *BoardHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Warnw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	client := &Client{hub: b.hub, send: make(chan []byte, 32)}
	b.hub.Register(client)
	client.sendJSON(wsMessage{Type: "state", Payload: mustMarshal(b.session.State())})

	go func() {
		defer b.hub.Unregister(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeWSWithHeartbeat(conn, client.send); err != nil {
		b.log.Debugw("websocket closed", "error", err)
		b.hub.Unregister(client)
	}
}
