package analysis

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"omega/internal/bootstrap"
	"omega/internal/domain"
	"omega/internal/httpresponse"
	"omega/internal/usecase/session"
)

type PonderResponse struct {
	Pondering bool `json:"pondering"`
}

type GenmoveResponse struct {
	Move  string        `json:"move"`
	State session.State `json:"state"`
}

type SuggestionsResponse struct {
	Moves []domain.MoveData `json:"moves"`
}

type InfluenceResponse struct {
	Influence []float64 `json:"influence"`
}

type AnalysisHandler struct {
	cfg     *bootstrap.Config
	log     *zap.SugaredLogger
	session *session.Session
}

func NewAnalysisHandler(cfg *bootstrap.Config, log *zap.SugaredLogger, s *session.Session) *AnalysisHandler {
	return &AnalysisHandler{cfg: cfg, log: log, session: s}
}

func (a *AnalysisHandler) HandleTogglePonder(w http.ResponseWriter, r *http.Request) {
	on, err := a.session.TogglePonder()
	if err != nil {
		httpresponse.WriteError(w, a.log, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, PonderResponse{Pondering: on})
}

func (a *AnalysisHandler) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	moves, err := a.session.Suggestions()
	if err != nil {
		httpresponse.WriteError(w, a.log, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, SuggestionsResponse{Moves: moves})
}

func (a *AnalysisHandler) HandleHeatmap(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.withDeadline(r.Context())
	defer cancel()

	h, err := a.session.Heatmap(ctx)
	if err != nil {
		httpresponse.WriteError(w, a.log, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, h)
}

func (a *AnalysisHandler) HandleGenerateMove(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := a.withDeadline(r.Context())
	defer cancel()

	move, err := a.session.Genmove(ctx)
	if err != nil {
		httpresponse.WriteError(w, a.log, err)
		return
	}
	a.log.Infow("engine move", "move", move)
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, GenmoveResponse{Move: move, State: a.session.State()})
}

func (a *AnalysisHandler) HandleInfluence(w http.ResponseWriter, r *http.Request) {
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, InfluenceResponse{Influence: a.session.Influence()})
}

func (a *AnalysisHandler) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	d := a.cfg.RequestTimeout()
	if d <= 0 {
		d = 30 * time.Second
	}
	return context.WithTimeout(ctx, d)
}
