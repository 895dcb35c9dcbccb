package executors

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/richardliu001/ticketing-actions/internal/actions"
	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
)

// UpdateGenresExecutor recomputes the genres derived from artists: those of
// events and, through the tickets they hold, of users.
type UpdateGenresExecutor struct {
	repo *repo.Repository
	book *actions.Bookkeeper
}

func NewUpdateGenresExecutor(d Deps) *UpdateGenresExecutor {
	return &UpdateGenresExecutor{repo: d.Repo, book: d.Book}
}

func (e *UpdateGenresExecutor) Execute(ctx context.Context, action *model.DomainAction, conn *repo.Conn) *actions.Future {
	return e.book.Run(ctx, action, conn, func() error { return e.performJob(ctx, action, conn) })
}

func (e *UpdateGenresExecutor) performJob(ctx context.Context, action *model.DomainAction, conn *repo.Conn) error {
	table, id, err := subject(action)
	if err != nil {
		return err
	}
	tx := conn.Tx()
	switch table {
	case model.TableArtists:
		events, err := e.repo.EventIDsForArtist(ctx, tx, id)
		if err != nil {
			return err
		}
		for _, eventID := range events {
			if err := e.updateEvent(ctx, tx, eventID); err != nil {
				return err
			}
		}
		return nil
	case model.TableEvents:
		if _, err := e.repo.GetEvent(ctx, tx, id); err != nil {
			return fmt.Errorf("load event %s: %w", id, err)
		}
		return e.updateEvent(ctx, tx, id)
	case model.TableUsers:
		if _, err := e.repo.GetUser(ctx, tx, id); err != nil {
			return fmt.Errorf("load user %s: %w", id, err)
		}
		_, err := e.repo.RefreshUserGenres(ctx, tx, id)
		return err
	default:
		return fmt.Errorf("%w: %s for %s", repo.ErrTableNotSupported, table, action.ActionType)
	}
}

func (e *UpdateGenresExecutor) updateEvent(ctx context.Context, tx *gorm.DB, eventID uuid.UUID) error {
	if _, err := e.repo.RefreshEventGenres(ctx, tx, eventID); err != nil {
		return fmt.Errorf("refresh genres of event %s: %w", eventID, err)
	}
	holders, err := e.repo.TicketHolderIDs(ctx, tx, eventID)
	if err != nil {
		return err
	}
	for _, userID := range holders {
		if _, err := e.repo.RefreshUserGenres(ctx, tx, userID); err != nil {
			return fmt.Errorf("refresh genres of user %s: %w", userID, err)
		}
	}
	return nil
}
