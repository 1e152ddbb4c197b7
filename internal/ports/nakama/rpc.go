package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"tiledraft/internal/config"
	"tiledraft/internal/domain"

	"github.com/heroiclabs/nakama-common/runtime"
)

// OpenTableRequest is the optional RPC payload.
type OpenTableRequest struct {
	Players int `json:"players"`
}

// OpenTableResponse is the payload returned to clients asking for a table.
type OpenTableResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}

// RegisterRPCs registers Nakama RPC endpoints.
func RegisterRPCs(initializer runtime.Initializer) error {
	return initializer.RegisterRpc(RpcOpenTable, rpcOpenTable)
}

// rpcOpenTable joins the caller to an open table of the requested size or creates one.
func rpcOpenTable(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	req := OpenTableRequest{}
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			logger.Warn("OpenTable [User:%s]: Invalid payload: %v", userID, err)
			return "", runtime.NewError("invalid payload", 3)
		}
	}
	if req.Players == 0 {
		req.Players = config.GetDefaultPlayers()
	}
	if domain.FactoriesForPlayers(req.Players) == 0 {
		return "", runtime.NewError(fmt.Sprintf("players must be %d..%d", domain.MinPlayers, domain.MaxPlayers), 3)
	}

	query := fmt.Sprintf("+label.%s:T +label.game:%s", MatchLabelKey_Open, GameLabel)
	limit := 10
	authoritative := true
	minSize := 1
	maxSize := maxPresences - 1

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("OpenTable [User:%s]: Failed to list matches: %v", userID, err)
		return "", runtime.NewError("failed to list tables", 13)
	}

	resp := OpenTableResponse{}
	if len(matches) > 0 {
		resp.MatchID = matches[0].MatchId
		logger.Info("OpenTable [User:%s]: Found existing table %s", userID, resp.MatchID)
	} else {
		// Operator assignment happens in MatchJoin (server-authoritative).
		resp.MatchID, err = nk.MatchCreate(ctx, MatchNameTileDraft, map[string]interface{}{"players": req.Players})
		if err != nil {
			logger.Error("OpenTable [User:%s]: Failed to create match: %v", userID, err)
			return "", runtime.NewError("failed to create table", 13)
		}
		resp.IsNew = true
		logger.Info("OpenTable [User:%s]: Created new table %s", userID, resp.MatchID)
	}

	b, err := json.Marshal(resp)
	if err != nil {
		return "", runtime.NewError("failed to encode response", 13)
	}
	return string(b), nil
}
