package archive

import (
	"context"

	"omega/internal/domain/game"
)

type ArchiveStore interface {
	PutAllGamesToArchiveByPath(ctx context.Context, dir string) (int, error)
	PutGameToArchive(ctx context.Context, g *game.ArchiveGame) error
	GetGameFromArchiveById(ctx context.Context, id string) (*game.ArchiveGame, error)
	GetArchiveGamesByName(ctx context.Context, name string, pageNum int) (*game.ArchiveResponse, error)
}

type ArchiveUseCase struct {
	archiveStore ArchiveStore
	archiveDir   string
}

func NewArchiveUseCase(archiveStore ArchiveStore, archiveDir string) *ArchiveUseCase {
	return &ArchiveUseCase{archiveStore: archiveStore, archiveDir: archiveDir}
}

// ImportDir imports every record under dir, or under the configured archive
// directory when dir is empty.
func (a *ArchiveUseCase) ImportDir(ctx context.Context, dir string) (int, error) {
	if dir == "" {
		dir = a.archiveDir
	}
	return a.archiveStore.PutAllGamesToArchiveByPath(ctx, dir)
}

func (a *ArchiveUseCase) ImportRecord(ctx context.Context, g *game.ArchiveGame) error {
	return a.archiveStore.PutGameToArchive(ctx, g)
}

func (a *ArchiveUseCase) GetGame(ctx context.Context, id string) (*game.ArchiveGame, error) {
	return a.archiveStore.GetGameFromArchiveById(ctx, id)
}

func (a *ArchiveUseCase) GetGamesByNameByPage(ctx context.Context, name string, pageNum int) (*game.ArchiveResponse, error) {
	return a.archiveStore.GetArchiveGamesByName(ctx, name, pageNum)
}
