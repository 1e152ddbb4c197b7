package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/heroiclabs/nakama-common/rtapi"
	"github.com/heroiclabs/nakama-go/v2"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServerKey = "defaultkey"
	Host      = "127.0.0.1"
	Port      = 7350
)

// Op codes mirrored from the server module.
const (
	OpBeginDistribution int64 = 2
	OpPlaceTile         int64 = 3
	OpStartRound        int64 = 5
	OpDraftTiles        int64 = 7

	OpTableState          int64 = 100
	OpDistributionStarted int64 = 102
	OpTilePlaced          int64 = 103
	OpCompletionChanged   int64 = 106
	OpDistributionApplied int64 = 107
	OpError               int64 = 110
)

type TestClient struct {
	Client  *nakama.Client
	Session *nakama.Session
	Socket  *nakama.Socket
	UserID  string

	data chan *rtapi.MatchData
}

func NewTestClient(t *testing.T) *TestClient {
	t.Helper()
	client := nakama.NewClient(ServerKey, Host, Port, false)

	deviceID := fmt.Sprintf("tiledraft_device_%d", time.Now().UnixNano())
	session, err := client.AuthenticateDevice(context.Background(), deviceID, true, "")
	if err != nil {
		t.Fatalf("Failed to authenticate: %v", err)
	}

	tc := &TestClient{
		Client:  client,
		Session: session,
		Socket:  client.NewSocket(),
		UserID:  session.UserId,
		data:    make(chan *rtapi.MatchData, 256),
	}
	tc.Socket.OnMatchData = func(d *rtapi.MatchData) {
		select {
		case tc.data <- d:
		default:
		}
	}
	if err := tc.Socket.Connect(context.Background(), session, true); err != nil {
		t.Fatalf("Failed to connect socket: %v", err)
	}
	return tc
}

func (tc *TestClient) Close() {
	if tc.Socket != nil {
		tc.Socket.Close()
	}
}

// OpenTable calls the 'open_table' RPC and joins the returned match.
func (tc *TestClient) OpenTable(t *testing.T, players int) string {
	t.Helper()
	payload := fmt.Sprintf(`{"players": %d}`, players)
	rpc, err := tc.Client.RpcFunc(context.Background(), tc.Session, "open_table", payload)
	if err != nil {
		t.Fatalf("RPC open_table failed: %v", err)
	}

	var resp struct {
		MatchID string `json:"match_id"`
	}
	if err := json.Unmarshal([]byte(rpc.Payload), &resp); err != nil || resp.MatchID == "" {
		t.Fatalf("RPC open_table returned %q: %v", rpc.Payload, err)
	}

	if _, err := tc.Socket.JoinMatch(context.Background(), nil, resp.MatchID, nil); err != nil {
		t.Fatalf("Failed to join match %s: %v", resp.MatchID, err)
	}
	return resp.MatchID
}

// Send encodes fields as a protobuf Struct and sends them on opCode.
func (tc *TestClient) Send(t *testing.T, matchID string, opCode int64, fields map[string]any) {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("Failed to build payload: %v", err)
	}
	b, err := proto.Marshal(s)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	if _, err := tc.Socket.SendMatchState(context.Background(), matchID, opCode, b, nil); err != nil {
		t.Fatalf("Failed to send op %d: %v", opCode, err)
	}
}

// WaitFor returns the next message with opCode, skipping others.
func (tc *TestClient) WaitFor(t *testing.T, opCode int64, timeout time.Duration) *structpb.Struct {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case d := <-tc.data:
			if d.OpCode != opCode {
				continue
			}
			s := &structpb.Struct{}
			if err := proto.Unmarshal(d.Data, s); err != nil {
				t.Fatalf("Failed to decode op %d: %v", opCode, err)
			}
			return s
		case <-deadline:
			t.Fatalf("Timeout waiting for OpCode %d", opCode)
			return nil
		}
	}
}
