package archive

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"omega/internal/domain/game"
	"omega/internal/httpresponse"
	"omega/internal/repository"
	archiveuc "omega/internal/usecase/archive"
	"omega/internal/usecase/search"
	"omega/internal/usecase/session"
	"omega/internal/utils"
)

type ImportRequest struct {
	Dir string `json:"dir,omitempty"`
}

type ArchiveHandler struct {
	log       *zap.SugaredLogger
	archiveUC *archiveuc.ArchiveUseCase
	searchUC  *search.SearchUseCase
	session   *session.Session
}

func NewArchiveHandler(log *zap.SugaredLogger, archiveUC *archiveuc.ArchiveUseCase, searchUC *search.SearchUseCase, s *session.Session) *ArchiveHandler {
	return &ArchiveHandler{
		log:       log,
		archiveUC: archiveUC,
		searchUC:  searchUC,
		session:   s,
	}
}

func (ah *ArchiveHandler) HandleImportDir(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	n, err := ah.archiveUC.ImportDir(r.Context(), req.Dir)
	if err != nil {
		httpresponse.WriteError(w, ah.log, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, game.ArchiveImportResponse{Imported: n})
}

// HandleImportRecord stores the raw SGF body under the name query parameter.
func (ah *ArchiveHandler) HandleImportRecord(w http.ResponseWriter, r *http.Request) {
	body, err := utils.ReadRequestBody(r)
	if err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, httpresponse.ErrorResponse{ErrorDescription: "failed to read request body"})
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload"
	}

	g, err := repository.NewArchiveGame(name, string(body))
	if err != nil {
		httpresponse.WriteError(w, ah.log, err)
		return
	}
	if err := ah.archiveUC.ImportRecord(r.Context(), g); err != nil {
		httpresponse.WriteError(w, ah.log, err)
		return
	}
	g.SGF = ""
	httpresponse.WriteResponseWithStatus(w, http.StatusCreated, g)
}

func (ah *ArchiveHandler) HandleGetGame(w http.ResponseWriter, r *http.Request) {
	g, err := ah.archiveUC.GetGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpresponse.WriteError(w, ah.log, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, g)
}

func (ah *ArchiveHandler) HandleFindGames(w http.ResponseWriter, r *http.Request) {
	pageNum := 1
	if page := r.URL.Query().Get("page"); page != "" {
		var err error
		pageNum, err = strconv.Atoi(page)
		if err != nil || pageNum < 1 {
			httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, httpresponse.ErrorResponse{ErrorDescription: "page must be a positive number"})
			return
		}
	}

	resp, err := ah.archiveUC.GetGamesByNameByPage(r.Context(), r.URL.Query().Get("name"), pageNum)
	if err != nil {
		httpresponse.WriteError(w, ah.log, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, resp)
}

// HandleLoadGame replaces the live game with an archived one.
func (ah *ArchiveHandler) HandleLoadGame(w http.ResponseWriter, r *http.Request) {
	g, err := ah.archiveUC.GetGame(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpresponse.WriteError(w, ah.log, err)
		return
	}
	if _, err := ah.session.LoadSGF(g.SGF); err != nil {
		httpresponse.WriteError(w, ah.log, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, ah.session.State())
}

func (ah *ArchiveHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req search.Request
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	res, err := ah.searchUC.Search(r.Context(), req)
	if err != nil {
		httpresponse.WriteError(w, ah.log, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, res)
}

func (ah *ArchiveHandler) HandleSearchResult(w http.ResponseWriter, r *http.Request) {
	res, err := ah.searchUC.Result(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpresponse.WriteError(w, ah.log, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, res)
}
