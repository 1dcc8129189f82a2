package delivery

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"omega/internal/delivery/analysis"
	"omega/internal/delivery/archive"
	"omega/internal/delivery/board"
	ownMiddleware "omega/internal/middleware"
)

type MainDeliveryHandler struct {
	Board    *board.BoardHandler
	Analysis *analysis.AnalysisHandler
	Archive  *archive.ArchiveHandler
}

func (h *MainDeliveryHandler) Router(r chi.Router, isLocalCors bool) {
	if isLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.Recoverer)

	r.Get("/ws", h.Board.HandleWS)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Logger)

		r.Get("/state", h.Board.HandleState)
		r.Post("/place", h.Board.HandlePlace)
		r.Post("/pass", h.Board.HandlePass)
		r.Post("/undo", h.Board.HandleUndo)
		r.Post("/redo", h.Board.HandleRedo)
		r.Post("/start", h.Board.HandleToStart)
		r.Post("/end", h.Board.HandleToEnd)
		r.Post("/clear", h.Board.HandleClear)
		r.Post("/mode", h.Board.HandleMode)
		r.Post("/sgf/load", h.Board.HandleLoadSGF)
		r.Get("/sgf", h.Board.HandleSaveSGF)
		r.Get("/diagram", h.Board.HandleDiagram)

		r.Post("/ponder", h.Analysis.HandleTogglePonder)
		r.Get("/suggestions", h.Analysis.HandleSuggestions)
		r.Post("/heatmap", h.Analysis.HandleHeatmap)
		r.Post("/genmove", h.Analysis.HandleGenerateMove)
		r.Get("/influence", h.Analysis.HandleInfluence)

		r.Route("/archive", func(r chi.Router) {
			r.Get("/", h.Archive.HandleFindGames)
			r.Post("/", h.Archive.HandleImportRecord)
			r.Post("/import", h.Archive.HandleImportDir)
			r.Get("/{id}", h.Archive.HandleGetGame)
			r.Post("/{id}/load", h.Archive.HandleLoadGame)
		})
		r.Post("/search", h.Archive.HandleSearch)
		r.Get("/search/{id}", h.Archive.HandleSearchResult)
	})
}
