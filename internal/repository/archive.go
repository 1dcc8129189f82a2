package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"omega/internal/adapters"
	"omega/internal/bootstrap"
	"omega/internal/domain/game"
	errs "omega/internal/errors"
	"omega/internal/sgf"
)

const (
	archiveCollection = adapters.ArchiveCollection
	archiveCachePref  = "archive:"

	// SearchCachePrefix prefixes the Redis keys of cached search results.
	SearchCachePrefix = "search:"
)

// ArchiveRepository keeps recorded games in MongoDB with a Redis cache of
// single records in front of it.
type ArchiveRepository struct {
	cfg   *bootstrap.Config
	log   *zap.SugaredLogger
	redis *redis.Client
	mongo *mongo.Database
}

func NewArchiveRepository(cfg *bootstrap.Config, log *zap.SugaredLogger, redis *redis.Client, mongo *mongo.Database) *ArchiveRepository {
	return &ArchiveRepository{
		cfg:   cfg,
		log:   log,
		redis: redis,
		mongo: mongo,
	}
}

// ConvertSgfToArchiveGame reads an SGF file into an archive entry.
func ConvertSgfToArchiveGame(path string) (*game.ArchiveGame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewArchiveGame(filepath.Base(path), string(data))
}

// NewArchiveGame validates text and fills the entry's metadata from it.
func NewArchiveGame(name, text string) (*game.ArchiveGame, error) {
	record, err := sgf.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	nodes := record.Root.MainLine()
	moves := 0
	for _, n := range nodes {
		if _, ok := n.Get("B"); ok {
			moves++
		}
		if _, ok := n.Get("W"); ok {
			moves++
		}
	}
	return &game.ArchiveGame{
		ID:         uuid.New().String(),
		Name:       strings.TrimSuffix(name, filepath.Ext(name)),
		Info:       sgf.Info(nodes[0]),
		Moves:      moves,
		SGF:        text,
		ImportedAt: time.Now().UTC(),
	}, nil
}

// walkSgfFiles calls put for every .sgf file under dir.
func walkSgfFiles(ctx context.Context, dir string, put func(context.Context, *game.ArchiveGame) error) (int, error) {
	imported := 0
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.EqualFold(filepath.Ext(info.Name()), ".sgf") {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		g, err := ConvertSgfToArchiveGame(path)
		if err != nil {
			return fmt.Errorf("process %s: %w", path, err)
		}
		g.Path = path
		if err := put(ctx, g); err != nil {
			return fmt.Errorf("store %s: %w", path, err)
		}
		imported++
		return nil
	})
	return imported, err
}

// PutAllGamesToArchiveByPath imports every .sgf file under dir.
func (a *ArchiveRepository) PutAllGamesToArchiveByPath(ctx context.Context, dir string) (int, error) {
	n, err := walkSgfFiles(ctx, dir, a.PutGameToArchive)
	if err != nil {
		return n, err
	}
	a.log.Infow("archive imported", "dir", dir, "games", n)
	return n, nil
}

func (a *ArchiveRepository) PutGameToArchive(ctx context.Context, g *game.ArchiveGame) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	_, err := a.mongo.Collection(archiveCollection).InsertOne(ctx, g)
	return err
}

func (a *ArchiveRepository) GetGameFromArchiveById(ctx context.Context, id string) (*game.ArchiveGame, error) {
	if cached, err := a.loadCachedGame(ctx, id); err == nil {
		return cached, nil
	} else if !errors.Is(err, redis.Nil) {
		a.log.Warnw("archive cache read failed", "id", id, "error", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result game.ArchiveGame
	err := a.mongo.Collection(archiveCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", errs.ErrGameNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if err := a.cacheGame(ctx, &result); err != nil {
		a.log.Warnw("archive cache write failed", "id", id, "error", err)
	}
	return &result, nil
}

// GetArchiveGamesByName pages through games whose black or white player
// name contains name. Records are returned without their SGF text.
func (a *ArchiveRepository) GetArchiveGamesByName(ctx context.Context, name string, pageNum int) (*game.ArchiveResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pattern := primitiveRegex(name)
	filter := bson.M{
		"$or": []bson.M{
			{"info.player_black": pattern},
			{"info.player_white": pattern},
		},
	}
	collection := a.mongo.Collection(archiveCollection)
	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}

	limit := int64(a.pageLimit())
	if pageNum < 1 {
		pageNum = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetSkip(int64(pageNum-1) * limit).
		SetLimit(limit).
		SetProjection(bson.M{"sgf": 0})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var games []game.ArchiveGame
	if err := cursor.All(ctx, &games); err != nil {
		return nil, err
	}
	return &game.ArchiveResponse{
		PageNum:    pageNum,
		TotalPages: int((total + limit - 1) / limit),
		Games:      games,
	}, nil
}

// ListArchiveGames returns every record with its SGF text.
func (a *ArchiveRepository) ListArchiveGames(ctx context.Context) ([]game.ArchiveGame, error) {
	cursor, err := a.mongo.Collection(archiveCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var games []game.ArchiveGame
	for cursor.Next(ctx) {
		var g game.ArchiveGame
		if err := cursor.Decode(&g); err != nil {
			a.log.Errorw("decode archive game", "error", err)
			return games, err
		}
		games = append(games, g)
	}
	return games, cursor.Err()
}

// SaveSearchResult caches a search result for later retrieval by id.
func (a *ArchiveRepository) SaveSearchResult(ctx context.Context, id string, result any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return a.redis.Set(ctx, SearchCachePrefix+id, data, a.cfg.ArchiveCacheTTL()).Err()
}

// LoadSearchResult decodes a cached search result into dst.
func (a *ArchiveRepository) LoadSearchResult(ctx context.Context, id string, dst any) error {
	val, err := a.redis.Get(ctx, SearchCachePrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: search %s", errs.ErrGameNotFound, id)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(val, dst)
}

func (a *ArchiveRepository) cacheGame(ctx context.Context, g *game.ArchiveGame) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return a.redis.Set(ctx, archiveCachePref+g.ID, data, a.cfg.ArchiveCacheTTL()).Err()
}

func (a *ArchiveRepository) loadCachedGame(ctx context.Context, id string) (*game.ArchiveGame, error) {
	val, err := a.redis.Get(ctx, archiveCachePref+id).Bytes()
	if err != nil {
		return nil, err
	}
	var g game.ArchiveGame
	if err := json.Unmarshal(val, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (a *ArchiveRepository) pageLimit() int {
	if a.cfg.PageLimitGames > 0 {
		return a.cfg.PageLimitGames
	}
	return 20
}

func primitiveRegex(name string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(name), "$options": "i"}
}
