package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"lizboard/internal/bootstrap"
	"lizboard/internal/domain/game"
	appErrors "lizboard/internal/errors"
)

const (
	sgfKeyPrefix      = "sgf:"
	archiveCollection = "archived_boards"
	sgfTTL            = 30 * 24 * time.Hour
)

// GameRepository keeps exported records in redis and deleted boards in mongo.
type GameRepository struct {
	cfg   bootstrap.Config
	log   *zap.SugaredLogger
	redis *redis.Client
	mongo *mongo.Database
}

func NewGameRepository(cfg bootstrap.Config, log *zap.SugaredLogger, redis *redis.Client, mongo *mongo.Database) *GameRepository {
	return &GameRepository{
		cfg:   cfg,
		log:   log,
		redis: redis,
		mongo: mongo,
	}
}

func (g *GameRepository) SaveSGF(ctx context.Context, key string, sgfText string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := g.redis.Set(ctx, sgfKeyPrefix+key, sgfText, sgfTTL).Err(); err != nil {
		g.log.Errorw("failed to save sgf", "key", key, "error", err)
		return fmt.Errorf("save sgf %s: %w", key, err)
	}
	return nil
}

func (g *GameRepository) LoadSGF(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	text, err := g.redis.Get(ctx, sgfKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("sgf %s: %w", key, appErrors.ErrRecordNotFound)
	}
	if err != nil {
		g.log.Errorw("failed to load sgf", "key", key, "error", err)
		return "", fmt.Errorf("load sgf %s: %w", key, err)
	}
	return text, nil
}

func (g *GameRepository) ArchiveBoard(ctx context.Context, board game.ArchivedBoard) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection(archiveCollection)

	if _, err := collection.InsertOne(ctx, board); err != nil {
		g.log.Errorf("failed to archive board %d: %v", board.BoardID, err)
		return fmt.Errorf("archive board %d: %w", board.BoardID, err)
	}

	g.log.Infof("board %d archived with key: %s", board.BoardID, board.Key)
	return nil
}

// ListArchived returns up to limit boards, newest first.
func (g *GameRepository) ListArchived(ctx context.Context, limit int) ([]game.ArchivedBoard, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection(archiveCollection)
	opts := options.Find().SetSort(bson.D{{Key: "archived_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	var result []game.ArchivedBoard
	cursor, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		g.log.Error(err)
		return result, err
	}

	defer cursor.Close(ctx)
	for cursor.Next(ctx) {
		var board game.ArchivedBoard
		if err = cursor.Decode(&board); err != nil {
			g.log.Error(err)
			return result, err
		}
		result = append(result, board)
	}

	return result, cursor.Err()
}

func (g *GameRepository) GetArchived(ctx context.Context, key string) (game.ArchivedBoard, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection(archiveCollection)

	var board game.ArchivedBoard
	err := collection.FindOne(ctx, bson.M{"key": key}).Decode(&board)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return board, fmt.Errorf("archived board %s: %w", key, appErrors.ErrRecordNotFound)
	} else if err != nil {
		g.log.Error(err)
		return board, err
	}

	return board, nil
}
