package services

import (
	"context"
	"slices"

	"github.com/frontnickson/toolrole-sub001/internal/client/client"
	"github.com/frontnickson/toolrole-sub001/internal/client/repositories/prefs"
	"github.com/frontnickson/toolrole-sub001/internal/logging"
)

// BoardHydrator fetches the board list after sign-in and makes sure
// selectedBoardId points at a board the user can see.
type BoardHydrator struct {
	api   client.Client
	prefs prefs.Repository
	log   logging.Logger
}

var _ Hydrator = (*BoardHydrator)(nil)

func NewBoardHydrator(api client.Client, repo prefs.Repository, log logging.Logger) *BoardHydrator {
	if log == nil {
		log = logging.NewNop()
	}
	return &BoardHydrator{api: api, prefs: repo, log: log}
}

// Hydrate stores the selection through guard, so nothing is written for a
// session that ended while the board list was loading.
func (h *BoardHydrator) Hydrate(ctx context.Context, guard WriteGuard) error {
	boards, err := h.api.ListBoards(ctx)
	if err != nil {
		return err
	}
	h.log.Debug(ctx, "boards loaded", "count", len(boards))
	if len(boards) == 0 || h.prefs == nil {
		return nil
	}

	selected, ok, err := h.prefs.Get(ctx, prefs.KeySelectedBoardID)
	if err != nil {
		return err
	}
	if ok && slices.ContainsFunc(boards, func(b client.Board) bool { return b.ID == selected }) {
		return nil
	}
	return guard(func() error {
		return h.prefs.Set(ctx, prefs.KeySelectedBoardID, boards[0].ID)
	})
}
