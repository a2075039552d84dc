package app

import (
	"context"

	"PackCurator/internal/infrastructure/telegram"
	"PackCurator/internal/usecase"
)

// botHandler translates Telegram updates into curator operations.
type botHandler struct {
	curator *usecase.Curator
}

var _ telegram.Handler = (*botHandler)(nil)

const helpText = "Hi! I curate Minecraft modpacks.\n" +
	"/search — look for new packs to review\n" +
	"/queue — show the publication queue"

func (h *botHandler) HandleCommand(ctx context.Context, chatID, operatorID int64, command string) {
	switch command {
	case "/start":
		_ = h.curator.Notify(ctx, chatID, helpText)
	case "/search":
		h.curator.Search(ctx, chatID, operatorID)
	case "/queue":
		h.curator.ListQueue(ctx, chatID)
	case "/cancel":
		h.curator.CancelEdit(ctx, chatID, operatorID)
	default:
		_ = h.curator.Notify(ctx, chatID, "Unknown command. "+helpText)
	}
}

func (h *botHandler) HandleCallback(ctx context.Context, chatID, operatorID int64, data string) {
	_ = h.curator.Apply(ctx, chatID, operatorID, usecase.Action(data))
}

func (h *botHandler) HandleText(ctx context.Context, chatID, operatorID int64, text string) {
	// Free-form text only matters while the operator is editing; anything
	// else is chatter and SubmitEdit rejects it as an illegal transition.
	_ = h.curator.SubmitEdit(ctx, chatID, operatorID, text)
}
