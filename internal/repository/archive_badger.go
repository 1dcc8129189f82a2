package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"omega/internal/bootstrap"
	"omega/internal/domain/game"
	errs "omega/internal/errors"
)

const (
	badgerGamePref   = "game:"
	badgerSearchPref = "search:"
)

// BadgerArchive is an embedded archive for running without MongoDB and
// Redis. An empty ARCHIVE_DB_DIR keeps it in memory.
type BadgerArchive struct {
	cfg *bootstrap.Config
	log *zap.SugaredLogger
	db  *badger.DB
}

func NewBadgerArchive(cfg *bootstrap.Config, log *zap.SugaredLogger) (*BadgerArchive, error) {
	opts := badger.DefaultOptions(cfg.ArchiveDBDir)
	if cfg.ArchiveDBDir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}
	return &BadgerArchive{cfg: cfg, log: log, db: db}, nil
}

func (b *BadgerArchive) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func (b *BadgerArchive) PutGameToArchive(ctx context.Context, g *game.ArchiveGame) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerGamePref+g.ID), data)
	})
}

func (b *BadgerArchive) PutAllGamesToArchiveByPath(ctx context.Context, dir string) (int, error) {
	n, err := walkSgfFiles(ctx, dir, b.PutGameToArchive)
	if err != nil {
		return n, err
	}
	b.log.Infow("archive imported", "dir", dir, "games", n)
	return n, nil
}

func (b *BadgerArchive) GetGameFromArchiveById(ctx context.Context, id string) (*game.ArchiveGame, error) {
	var g game.ArchiveGame
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerGamePref + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &g)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", errs.ErrGameNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (b *BadgerArchive) ListArchiveGames(ctx context.Context) ([]game.ArchiveGame, error) {
	var games []game.ArchiveGame
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(badgerGamePref)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var g game.ArchiveGame
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &g)
			}); err != nil {
				return err
			}
			games = append(games, g)
		}
		return nil
	})
	return games, err
}

// GetArchiveGamesByName matches player names case-insensitively, like the
// MongoDB repository.
func (b *BadgerArchive) GetArchiveGamesByName(ctx context.Context, name string, pageNum int) (*game.ArchiveResponse, error) {
	all, err := b.ListArchiveGames(ctx)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(name)
	var found []game.ArchiveGame
	for _, g := range all {
		if strings.Contains(strings.ToLower(g.Info.PlayerBlack), needle) ||
			strings.Contains(strings.ToLower(g.Info.PlayerWhite), needle) {
			g.SGF = ""
			found = append(found, g)
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].Name < found[j].Name })

	limit := b.cfg.PageLimitGames
	if limit <= 0 {
		limit = 20
	}
	if pageNum < 1 {
		pageNum = 1
	}
	start := min((pageNum-1)*limit, len(found))
	end := min(start+limit, len(found))
	return &game.ArchiveResponse{
		PageNum:    pageNum,
		TotalPages: (len(found) + limit - 1) / limit,
		Games:      found[start:end],
	}, nil
}

func (b *BadgerArchive) SaveSearchResult(ctx context.Context, id string, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(badgerSearchPref+id), data)
		if ttl := b.cfg.ArchiveCacheTTL(); ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

func (b *BadgerArchive) LoadSearchResult(ctx context.Context, id string, dst any) error {
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerSearchPref + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dst)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: search %s", errs.ErrGameNotFound, id)
	}
	return err
}
