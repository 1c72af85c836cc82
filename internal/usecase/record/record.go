// Package record persists exported records and deleted boards.
package record

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lizboard/internal/domain/game"
	gameUsecase "lizboard/internal/usecase/game"
	"lizboard/internal/usecase/sgf"
)

type Store interface {
	SaveSGF(ctx context.Context, key string, sgfText string) error
	LoadSGF(ctx context.Context, key string) (string, error)
	ArchiveBoard(ctx context.Context, board game.ArchivedBoard) error
	ListArchived(ctx context.Context, limit int) ([]game.ArchivedBoard, error)
	GetArchived(ctx context.Context, key string) (game.ArchivedBoard, error)
}

type UseCase struct {
	store   Store
	session *gameUsecase.Serialized
	log     *zap.SugaredLogger
	now     func() time.Time
}

func NewUseCase(store Store, session *gameUsecase.Serialized, log *zap.SugaredLogger) *UseCase {
	return &UseCase{store: store, session: session, log: log, now: time.Now}
}

// Save stores the active board's record under a new key.
func (u *UseCase) Save(ctx context.Context) (string, error) {
	var text string
	_ = u.session.Do(func(s *gameUsecase.Session) error {
		text = s.ExportSGF()
		return nil
	})
	key := uuid.New().String()
	if err := u.store.SaveSGF(ctx, key, text); err != nil {
		return "", err
	}
	u.log.Infow("record saved", "key", key)
	return key, nil
}

// Load imports a stored record onto a copy of the active board.
func (u *UseCase) Load(ctx context.Context, key string) error {
	text, err := u.store.LoadSGF(ctx, key)
	if err != nil {
		return err
	}
	return u.session.Do(func(s *gameUsecase.Session) error {
		return s.ImportSGF(text)
	})
}

// DeleteActive deletes the active board and archives it. The board stays
// on the undelete stack even if archiving fails.
func (u *UseCase) DeleteActive(ctx context.Context) (game.ArchivedBoard, error) {
	var board game.ArchivedBoard
	key := uuid.New().String()
	_ = u.session.Do(func(s *gameUsecase.Session) error {
		h := s.DeleteActive()
		board = game.Archive(key, h, sgf.Export(h), u.now())
		return nil
	})
	if err := u.store.ArchiveBoard(ctx, board); err != nil {
		return board, fmt.Errorf("delete board %d: %w", board.BoardID, err)
	}
	return board, nil
}

func (u *UseCase) ListArchived(ctx context.Context, limit int) ([]game.ArchivedBoard, error) {
	return u.store.ListArchived(ctx, limit)
}

// Restore imports an archived board's record as a new line.
func (u *UseCase) Restore(ctx context.Context, key string) error {
	board, err := u.store.GetArchived(ctx, key)
	if err != nil {
		return err
	}
	return u.session.Do(func(s *gameUsecase.Session) error {
		s.NewEmptyBoard()
		return s.ImportSGF(board.SGF)
	})
}
