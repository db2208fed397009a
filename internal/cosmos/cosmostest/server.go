// Package cosmostest provides a fake CometBFT JSON-RPC server for
// protocol client tests. Smart queries are dispatched to per-contract
// handlers keyed by the query's top-level field.
package cosmostest

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// SmartHandler receives the decoded query JSON and returns the contract's
// reply JSON.
type SmartHandler func(query json.RawMessage) (any, error)

// Server fakes the subset of CometBFT RPC the SDK uses.
type Server struct {
	t        *testing.T
	srv      *httptest.Server
	handlers map[string]SmartHandler
	balances map[string][]balanceCoin
	height   string
}

type balanceCoin struct {
	Denom  string
	Amount string
}

// New starts a fake node.
func New(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		t:        t,
		handlers: make(map[string]SmartHandler),
		balances: make(map[string][]balanceCoin),
		height:   "100",
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.srv.Close)
	return s
}

// URL returns the fake node's RPC endpoint.
func (s *Server) URL() string { return s.srv.URL }

// HandleSmart registers a smart-query handler for a contract address.
func (s *Server) HandleSmart(contract string, handler SmartHandler) {
	s.handlers[contract] = handler
}

// SetBalance sets a bank balance returned by AllBalances.
func (s *Server) SetBalance(address, denom, amount string) {
	s.balances[address] = append(s.balances[address], balanceCoin{denom, amount})
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     int64           `json:"id"`
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.t.Fatalf("cosmostest: decode request: %v", err)
	}

	reply := func(result any) {
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
	abciError := func(code uint32, log string) {
		reply(map[string]any{"response": map[string]any{"code": code, "log": log}})
	}

	switch req.Method {
	case "status":
		reply(map[string]any{
			"node_info": map[string]any{"network": "mantra-dukong-1"},
			"sync_info": map[string]any{
				"latest_block_height": s.height,
				"catching_up":         false,
			},
		})
	case "abci_query":
		var params struct {
			Path string `json:"path"`
			Data string `json:"data"`
		}
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.t.Fatalf("cosmostest: decode params: %v", err)
		}
		raw, err := hex.DecodeString(params.Data)
		if err != nil {
			s.t.Fatalf("cosmostest: decode data: %v", err)
		}
		fields := s.decodeFields(raw)

		switch params.Path {
		case "/cosmwasm.wasm.v1.Query/SmartContractState":
			contract := string(fields[1])
			handler, ok := s.handlers[contract]
			if !ok {
				abciError(6, "contract not found: "+contract)
				return
			}
			result, err := handler(fields[2])
			if err != nil {
				abciError(5, err.Error())
				return
			}
			payload, err := json.Marshal(result)
			if err != nil {
				s.t.Fatalf("cosmostest: encode handler result: %v", err)
			}
			reply(map[string]any{"response": map[string]any{
				"code":  0,
				"value": s.frame(1, payload),
			}})
		case "/cosmos.bank.v1beta1.Query/AllBalances":
			address := string(fields[1])
			var value []byte
			for _, coin := range s.balances[address] {
				entry := s.frame(1, []byte(coin.Denom))
				entry = append(entry, s.frame(2, []byte(coin.Amount))...)
				value = append(value, s.frame(1, entry)...)
			}
			reply(map[string]any{"response": map[string]any{"code": 0, "value": value}})
		default:
			abciError(3, "unknown query path: "+params.Path)
		}
	default:
		s.t.Fatalf("cosmostest: unexpected method %s", req.Method)
	}
}

// decodeFields extracts length-delimited fields, last occurrence wins.
func (s *Server) decodeFields(msg []byte) map[int][]byte {
	fields := make(map[int][]byte)
	for len(msg) > 0 {
		tag, n := binary.Uvarint(msg)
		if n <= 0 || tag&0x7 != 2 {
			s.t.Fatalf("cosmostest: malformed protobuf request")
		}
		msg = msg[n:]
		length, n := binary.Uvarint(msg)
		if n <= 0 || uint64(len(msg)-n) < length {
			s.t.Fatalf("cosmostest: truncated protobuf request")
		}
		msg = msg[n:]
		fields[int(tag>>3)] = msg[:length]
		msg = msg[length:]
	}
	return fields
}

func (s *Server) frame(field int, value []byte) []byte {
	buf := []byte{byte(field<<3 | 2)}
	buf = binary.AppendUvarint(buf, uint64(len(value)))
	return append(buf, value...)
}
