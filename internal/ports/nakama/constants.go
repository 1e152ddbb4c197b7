package nakama

const (
	// RpcOpenTable is the Nakama RPC id clients call to find or create a distribution table.
	RpcOpenTable = "open_table"

	// MatchNameTileDraft is the authoritative match handler name registered with Nakama.
	MatchNameTileDraft = "tiledraft_match"

	// GameLabel identifies this module's matches in label queries.
	GameLabel = "tiledraft"

	// EnvPlayers overrides the configured table size.
	EnvPlayers = "tiledraft_players"

	// EnvConfigPath overrides the game config location.
	EnvConfigPath = "tiledraft_config"

	defaultConfigPath = "data/game_config.json"

	// maxPresences caps operator plus spectators per table.
	maxPresences = 8
)

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpNewGame           int64 = 1
	OpBeginDistribution int64 = 2
	OpPlaceTile         int64 = 3
	OpRemoveTile        int64 = 4
	OpStartRound        int64 = 5
	OpRoundEnded        int64 = 6
	OpDraftTiles        int64 = 7
	OpRequestState      int64 = 8

	// Server -> Client events
	OpTableState          int64 = 100
	OpGameReset           int64 = 101
	OpDistributionStarted int64 = 102
	OpTilePlaced          int64 = 103
	OpTileRemoved         int64 = 104
	OpCommandRejected     int64 = 105 // sent to the operator only
	OpCompletionChanged   int64 = 106
	OpDistributionApplied int64 = 107
	OpDiscardRecorded     int64 = 108
	OpTilesDrafted        int64 = 109
	OpError               int64 = 110
)
