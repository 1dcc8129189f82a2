package archive

import (
	"context"
	"errors"
	"testing"

	"omega/internal/domain/game"
	errs "omega/internal/errors"
)

type fakeStore struct {
	importedDir string
	games       map[string]*game.ArchiveGame
	lastName    string
	lastPage    int
}

func (f *fakeStore) PutAllGamesToArchiveByPath(_ context.Context, dir string) (int, error) {
	f.importedDir = dir
	return 3, nil
}

func (f *fakeStore) PutGameToArchive(_ context.Context, g *game.ArchiveGame) error {
	f.games[g.ID] = g
	return nil
}

func (f *fakeStore) GetGameFromArchiveById(_ context.Context, id string) (*game.ArchiveGame, error) {
	g, ok := f.games[id]
	if !ok {
		return nil, errs.ErrGameNotFound
	}
	return g, nil
}

func (f *fakeStore) GetArchiveGamesByName(_ context.Context, name string, pageNum int) (*game.ArchiveResponse, error) {
	f.lastName, f.lastPage = name, pageNum
	return &game.ArchiveResponse{PageNum: pageNum, TotalPages: 1}, nil
}

func TestImportDirDefaultsToConfiguredDir(t *testing.T) {
	store := &fakeStore{games: map[string]*game.ArchiveGame{}}
	uc := NewArchiveUseCase(store, "/data/games")

	tests := []struct {
		dir  string
		want string
	}{
		{"", "/data/games"},
		{"/tmp/other", "/tmp/other"},
	}
	for _, tt := range tests {
		n, err := uc.ImportDir(context.Background(), tt.dir)
		if err != nil {
			t.Fatalf("ImportDir(%q): %v", tt.dir, err)
		}
		if n != 3 || store.importedDir != tt.want {
			t.Errorf("ImportDir(%q) imported %d from %q, want 3 from %q", tt.dir, n, store.importedDir, tt.want)
		}
	}
}

func TestImportRecordThenGet(t *testing.T) {
	store := &fakeStore{games: map[string]*game.ArchiveGame{}}
	uc := NewArchiveUseCase(store, "")
	ctx := context.Background()

	if err := uc.ImportRecord(ctx, &game.ArchiveGame{ID: "g1", Name: "shusaku"}); err != nil {
		t.Fatal(err)
	}
	g, err := uc.GetGame(ctx, "g1")
	if err != nil || g.Name != "shusaku" {
		t.Fatalf("GetGame = %+v, %v", g, err)
	}
	if _, err := uc.GetGame(ctx, "missing"); !errors.Is(err, errs.ErrGameNotFound) {
		t.Errorf("GetGame(missing) error = %v, want ErrGameNotFound", err)
	}
}

func TestGamesByNamePassesPage(t *testing.T) {
	store := &fakeStore{games: map[string]*game.ArchiveGame{}}
	uc := NewArchiveUseCase(store, "")

	resp, err := uc.GetGamesByNameByPage(context.Background(), "Honinbo", 2)
	if err != nil {
		t.Fatal(err)
	}
	if resp.PageNum != 2 || store.lastName != "Honinbo" || store.lastPage != 2 {
		t.Errorf("got page %d for %q/%d", resp.PageNum, store.lastName, store.lastPage)
	}
}
