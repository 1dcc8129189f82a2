package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"omega/internal/board"
	"omega/internal/domain"
	"omega/internal/domain/coord"
	"omega/internal/domain/game"
	"omega/internal/domain/stone"
	errs "omega/internal/errors"
	"omega/internal/symmetry"
)

const record = "(;GM[1]SZ[19]PB[Black]PW[White];B[pd];W[dp])"

type fakeStore struct {
	games   map[string]game.ArchiveGame
	results map[string][]byte
}

func newFakeStore(games ...game.ArchiveGame) *fakeStore {
	f := &fakeStore{games: map[string]game.ArchiveGame{}, results: map[string][]byte{}}
	for _, g := range games {
		f.games[g.ID] = g
	}
	return f
}

func (f *fakeStore) GetGameFromArchiveById(ctx context.Context, id string) (*game.ArchiveGame, error) {
	g, ok := f.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrGameNotFound, id)
	}
	return &g, nil
}

func (f *fakeStore) ListArchiveGames(ctx context.Context) ([]game.ArchiveGame, error) {
	var out []game.ArchiveGame
	for _, g := range f.games {
		out = append(out, g)
	}
	return out, nil
}

func (f *fakeStore) SaveSearchResult(ctx context.Context, id string, result any) error {
	data, err := json.Marshal(result)
	f.results[id] = data
	return err
}

func (f *fakeStore) LoadSearchResult(ctx context.Context, id string, dst any) error {
	data, ok := f.results[id]
	if !ok {
		return errs.ErrGameNotFound
	}
	return json.Unmarshal(data, dst)
}

type fakeAnalyzer struct {
	calls []int
}

func (f *fakeAnalyzer) AnalyzePosition(ctx context.Context, line []*board.Position, index int) (*domain.Heatmap, error) {
	f.calls = append(f.calls, index)
	return &domain.Heatmap{Winrate: float64(index)}, nil
}

func mustIndex(t *testing.T, name string) int {
	t.Helper()
	x, y, err := coord.Parse(name)
	if err != nil {
		t.Fatal(err)
	}
	return coord.Index(x, y)
}

// queryAt pins a single stone letter at name and leaves the rest open.
func queryAt(t *testing.T, name string, letter byte) []string {
	t.Helper()
	x, y, err := coord.Parse(name)
	if err != nil {
		t.Fatal(err)
	}
	rows := make([]string, coord.Size)
	for r := range rows {
		row := []byte(strings.Repeat("?", coord.Size))
		if coord.Size-1-r == y {
			row[x] = letter
		}
		rows[r] = string(row)
	}
	return rows
}

func TestSearchFindsTransformedAndInvertedMatches(t *testing.T) {
	store := newFakeStore(game.ArchiveGame{ID: "g1", Name: "one", SGF: record})
	analyzer := &fakeAnalyzer{}
	uc := NewSearchUseCase(zaptest.NewLogger(t).Sugar(), store, analyzer)

	res, err := uc.Search(context.Background(), Request{Query: queryAt(t, "D4", 'X'), Heatmaps: true})
	if err != nil {
		t.Fatal(err)
	}
	type key struct {
		index, transform int
		inverted         bool
	}
	want := []key{{1, 2, false}, {1, 6, false}, {2, 0, true}, {2, 4, true}}
	if len(res.Hits) != len(want) || res.Searched != 1 || res.Truncated {
		t.Fatalf("result = %+v", res)
	}
	for i, h := range res.Hits {
		if got := (key{h.Index, h.Transform, h.Inverted}); got != want[i] {
			t.Errorf("hit %d = %+v, want %+v", i, got, want[i])
		}
		if h.Heatmap == nil || h.Heatmap.Winrate != float64(h.Index) {
			t.Errorf("hit %d heatmap = %+v", i, h.Heatmap)
		}

		// The matched query pins one stone, and it agrees with the position.
		pinned := 0
		for j, q := range h.Query {
			if q == stone.Unspecified {
				continue
			}
			pinned++
			if q != h.Stones[j] {
				t.Errorf("hit %d query cell %d = %v, position has %v", i, j, q, h.Stones[j])
			}
		}
		if len(h.Query) != coord.Cells || pinned != 1 {
			t.Errorf("hit %d query has %d cells, %d pinned", i, len(h.Query), pinned)
		}
	}
	if h := res.Hits[2]; h.Query[mustIndex(t, "D4")] != stone.White {
		t.Errorf("inverted hit query at D4 = %v, want white", h.Query[mustIndex(t, "D4")])
	}
	if len(analyzer.calls) != 2 {
		t.Fatalf("analyzed positions %v, want one call per position", analyzer.calls)
	}

	stored, err := uc.Result(context.Background(), res.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Hits) != 4 || stored.Hits[0].GameName != "one" {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestSearchLimitTruncates(t *testing.T) {
	store := newFakeStore(game.ArchiveGame{ID: "g1", SGF: record})
	uc := NewSearchUseCase(zaptest.NewLogger(t).Sugar(), store, nil)

	res, err := uc.Search(context.Background(), Request{Query: queryAt(t, "D4", 'X'), Limit: 3, Heatmaps: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Hits) != 3 || !res.Truncated {
		t.Fatalf("result = %+v", res)
	}
	if res.Hits[0].Heatmap != nil {
		t.Fatal("heatmap attached without an analyzer")
	}
}

func TestSearchSkipsUnreadableGamesAndReportsMissingIds(t *testing.T) {
	store := newFakeStore(
		game.ArchiveGame{ID: "good", SGF: record},
		game.ArchiveGame{ID: "bad", SGF: "not a record"},
	)
	uc := NewSearchUseCase(zaptest.NewLogger(t).Sugar(), store, nil)

	res, err := uc.Search(context.Background(), Request{Query: queryAt(t, "D4", 'X')})
	if err != nil {
		t.Fatal(err)
	}
	if res.Searched != 1 || len(res.Hits) != 4 {
		t.Fatalf("result = %+v", res)
	}

	_, err = uc.Search(context.Background(), Request{Query: queryAt(t, "D4", 'X'), GameIDs: []string{"missing"}})
	if !errors.Is(err, errs.ErrGameNotFound) {
		t.Fatalf("err = %v", err)
	}
	_, err = uc.Search(context.Background(), Request{Query: []string{"X"}})
	if !errors.Is(err, errs.ErrInvalidQuery) {
		t.Fatalf("err = %v", err)
	}
}

func TestSearchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.sgf")
	if err := os.WriteFile(path, []byte(record), 0o644); err != nil {
		t.Fatal(err)
	}
	query, err := symmetry.ParseQuery(queryAt(t, "Q16", 'X'))
	if err != nil {
		t.Fatal(err)
	}

	matches, err := SearchFile(query, path)
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 || matches[0].Index != 1 || matches[0].Transform != 0 {
		t.Fatalf("matches = %+v", matches)
	}
}
