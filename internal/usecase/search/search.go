// Package search looks for a position pattern across archived games.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"omega/internal/board"
	"omega/internal/domain"
	"omega/internal/domain/game"
	sgfdomain "omega/internal/domain/sgf"
	"omega/internal/domain/stone"
	errs "omega/internal/errors"
	"omega/internal/sgf"
	"omega/internal/symmetry"
)

const defaultLimit = 100

type ArchiveStore interface {
	GetGameFromArchiveById(ctx context.Context, id string) (*game.ArchiveGame, error)
	ListArchiveGames(ctx context.Context) ([]game.ArchiveGame, error)
	SaveSearchResult(ctx context.Context, id string, result any) error
	LoadSearchResult(ctx context.Context, id string, dst any) error
}

// Analyzer computes a heatmap for one position of a recorded line.
type Analyzer interface {
	AnalyzePosition(ctx context.Context, line []*board.Position, index int) (*domain.Heatmap, error)
}

type Request struct {
	// Query is drawn as 19 rows, top first; see symmetry.ParseQuery.
	Query    []string `json:"query"`
	GameIDs  []string `json:"game_ids,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Heatmaps bool     `json:"heatmaps,omitempty"`
}

type Hit struct {
	GameID     string             `json:"game_id,omitempty"`
	GameName   string             `json:"game_name"`
	Info       sgfdomain.GameInfo `json:"info"`
	Index      int                `json:"index"`
	MoveNumber int                `json:"move_number"`
	Transform  int                `json:"transform"`
	Inverted   bool               `json:"inverted"`
	Stones     []stone.Stone      `json:"stones"`
	// Query is the query under Transform and Inverted, as it matched.
	Query      []stone.Stone      `json:"query"`
	Heatmap    *domain.Heatmap    `json:"heatmap,omitempty"`
}

type Result struct {
	ID        string    `json:"id"`
	Searched  int       `json:"searched"`
	Truncated bool      `json:"truncated"`
	Hits      []Hit     `json:"hits"`
	CreatedAt time.Time `json:"created_at"`
}

type SearchUseCase struct {
	log      *zap.SugaredLogger
	archive  ArchiveStore
	analyzer Analyzer
}

// NewSearchUseCase builds the use case. analyzer may be nil, in which case
// heatmaps are never attached.
func NewSearchUseCase(log *zap.SugaredLogger, archive ArchiveStore, analyzer Analyzer) *SearchUseCase {
	return &SearchUseCase{log: log, archive: archive, analyzer: analyzer}
}

// Search matches the query against every position of the selected games,
// or the whole archive, and stores the result under a new id.
func (s *SearchUseCase) Search(ctx context.Context, req Request) (*Result, error) {
	query, err := symmetry.ParseQuery(req.Query)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	games, err := s.games(ctx, req.GameIDs)
	if err != nil {
		return nil, err
	}

	res := &Result{ID: uuid.New().String(), CreatedAt: time.Now().UTC()}
	for _, g := range games {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, err := Line(g.SGF)
		if err != nil {
			s.log.Warnw("skipping unreadable archive game", "id", g.ID, "error", err)
			continue
		}
		res.Searched++
		if !s.collect(ctx, res, query, line, &g, limit, req.Heatmaps) {
			res.Truncated = true
			break
		}
	}

	if err := s.archive.SaveSearchResult(ctx, res.ID, res); err != nil {
		s.log.Errorw("save search result", "id", res.ID, "error", err)
	}
	s.log.Infow("search finished", "id", res.ID, "games", res.Searched, "hits", len(res.Hits))
	return res, nil
}

// collect appends the matches of one game to res and reports whether the
// limit still leaves room for more.
func (s *SearchUseCase) collect(ctx context.Context, res *Result, query []stone.Stone, line []*board.Position, g *game.ArchiveGame, limit int, heatmaps bool) bool {
	analyzed := make(map[int]*domain.Heatmap)
	for m := range symmetry.Matches(query, line) {
		if len(res.Hits) >= limit {
			return false
		}
		hit := Hit{
			GameID:     g.ID,
			GameName:   g.Name,
			Info:       g.Info,
			Index:      m.Index,
			MoveNumber: m.MoveNumber,
			Transform:  m.Transform,
			Inverted:   m.Inverted,
			Stones:     m.Position().CopyStones(),
			Query:      append([]stone.Stone(nil), m.Stones...),
		}
		if heatmaps && s.analyzer != nil {
			h, ok := analyzed[m.Index]
			if !ok {
				var err error
				h, err = s.analyzer.AnalyzePosition(ctx, line, m.Index)
				if err != nil {
					s.log.Warnw("heatmap for match", "id", g.ID, "index", m.Index, "error", err)
				}
				analyzed[m.Index] = h
			}
			hit.Heatmap = h
		}
		res.Hits = append(res.Hits, hit)
	}
	return true
}

func (s *SearchUseCase) games(ctx context.Context, ids []string) ([]game.ArchiveGame, error) {
	if len(ids) == 0 {
		return s.archive.ListArchiveGames(ctx)
	}
	games := make([]game.ArchiveGame, 0, len(ids))
	for _, id := range ids {
		g, err := s.archive.GetGameFromArchiveById(ctx, id)
		if err != nil {
			return nil, err
		}
		games = append(games, *g)
	}
	return games, nil
}

// Result returns a stored search result.
func (s *SearchUseCase) Result(ctx context.Context, id string) (*Result, error) {
	var res Result
	if err := s.archive.LoadSearchResult(ctx, id, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SearchFile matches query against the main line of the record at path.
func SearchFile(query []stone.Stone, path string) ([]symmetry.Match, error) {
	b := board.New()
	if _, err := sgf.LoadFile(path, b); err != nil {
		return nil, err
	}
	return symmetry.FindMatches(query, b), nil
}

// Line replays the main line of an SGF record into a fresh board.
func Line(text string) ([]*board.Position, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty record", errs.ErrMalformedRecord)
	}
	b := board.New()
	if _, err := sgf.Load(text, b); err != nil {
		if errors.Is(err, errs.ErrMalformedRecord) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformedRecord, err)
	}
	line, _ := b.Line()
	return line, nil
}
