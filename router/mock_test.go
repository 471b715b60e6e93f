// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/tracing"
	ethtypes "github.com/luxfi/geth/core/types"

	"github.com/luxfi/swaprouter/contract"
)

var _ contract.StateDB = (*mockStateDB)(nil)
var _ contract.AccessibleState = (*mockEnv)(nil)

// mockStateDB implements contract.StateDB with working snapshots.
type mockStateDB struct {
	storage  map[common.Address]map[common.Hash]common.Hash
	balances map[common.Address]*uint256.Int
	nonces   map[common.Address]uint64
	logs     []*ethtypes.Log

	snapshots []mockSnapshot
}

type mockSnapshot struct {
	storage  map[common.Address]map[common.Hash]common.Hash
	balances map[common.Address]*uint256.Int
	logCount int
}

func newMockStateDB() *mockStateDB {
	return &mockStateDB{
		storage:  make(map[common.Address]map[common.Hash]common.Hash),
		balances: make(map[common.Address]*uint256.Int),
		nonces:   make(map[common.Address]uint64),
	}
}

func (m *mockStateDB) GetState(addr common.Address, key common.Hash) common.Hash {
	if m.storage[addr] == nil {
		return common.Hash{}
	}
	return m.storage[addr][key]
}

func (m *mockStateDB) SetState(addr common.Address, key, value common.Hash) common.Hash {
	if m.storage[addr] == nil {
		m.storage[addr] = make(map[common.Hash]common.Hash)
	}
	prev := m.storage[addr][key]
	m.storage[addr][key] = value
	return prev
}

func (m *mockStateDB) GetBalance(addr common.Address) *uint256.Int {
	if bal, ok := m.balances[addr]; ok {
		return bal.Clone()
	}
	return uint256.NewInt(0)
}

func (m *mockStateDB) AddBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) uint256.Int {
	if m.balances[addr] == nil {
		m.balances[addr] = uint256.NewInt(0)
	}
	prev := m.balances[addr].Clone()
	m.balances[addr] = new(uint256.Int).Add(m.balances[addr], amount)
	return *prev
}

func (m *mockStateDB) SubBalance(addr common.Address, amount *uint256.Int, _ tracing.BalanceChangeReason) uint256.Int {
	if m.balances[addr] == nil {
		m.balances[addr] = uint256.NewInt(0)
	}
	prev := m.balances[addr].Clone()
	m.balances[addr] = new(uint256.Int).Sub(m.balances[addr], amount)
	return *prev
}

func (m *mockStateDB) GetNonce(addr common.Address) uint64 { return m.nonces[addr] }

func (m *mockStateDB) SetNonce(addr common.Address, nonce uint64, _ tracing.NonceChangeReason) {
	m.nonces[addr] = nonce
}

func (m *mockStateDB) CreateAccount(common.Address) {}
func (m *mockStateDB) Exist(common.Address) bool    { return true }

func (m *mockStateDB) AddLog(log *ethtypes.Log) { m.logs = append(m.logs, log) }
func (m *mockStateDB) Logs() []*ethtypes.Log    { return m.logs }

func (m *mockStateDB) TxHash() common.Hash { return common.Hash{} }

func (m *mockStateDB) Snapshot() int {
	snap := mockSnapshot{
		storage:  make(map[common.Address]map[common.Hash]common.Hash, len(m.storage)),
		balances: make(map[common.Address]*uint256.Int, len(m.balances)),
		logCount: len(m.logs),
	}
	for addr, slots := range m.storage {
		cp := make(map[common.Hash]common.Hash, len(slots))
		for k, v := range slots {
			cp[k] = v
		}
		snap.storage[addr] = cp
	}
	for addr, bal := range m.balances {
		snap.balances[addr] = bal.Clone()
	}
	m.snapshots = append(m.snapshots, snap)
	return len(m.snapshots) - 1
}

func (m *mockStateDB) RevertToSnapshot(id int) {
	snap := m.snapshots[id]
	m.storage = snap.storage
	m.balances = snap.balances
	m.logs = m.logs[:snap.logCount]
	m.snapshots = m.snapshots[:id]
}

// venueHandler scripts the behavior of one contract address in tests.
type venueHandler func(input []byte) ([]byte, error)

type mockCall struct {
	Addr   common.Address
	Input  []byte
	Static bool
}

// mockEnv implements contract.AccessibleState over mockStateDB plus a set
// of scripted contracts (venues and tokens).
type mockEnv struct {
	stateDB  *mockStateDB
	handlers map[common.Address]venueHandler
	calls    []mockCall
}

func newMockEnv() *mockEnv {
	return &mockEnv{
		stateDB:  newMockStateDB(),
		handlers: make(map[common.Address]venueHandler),
	}
}

func (m *mockEnv) GetStateDB() contract.StateDB { return m.stateDB }

func (m *mockEnv) GetBlockContext() contract.BlockContext { return mockBlockContext{} }

func (m *mockEnv) Call(addr common.Address, input []byte, gas uint64, value *uint256.Int) ([]byte, uint64, error) {
	m.calls = append(m.calls, mockCall{Addr: addr, Input: append([]byte(nil), input...)})
	h, ok := m.handlers[addr]
	if !ok {
		return nil, gas, errors.New("no contract at address")
	}
	ret, err := h(input)
	return ret, gas, err
}

func (m *mockEnv) StaticCall(addr common.Address, input []byte, gas uint64) ([]byte, uint64, error) {
	m.calls = append(m.calls, mockCall{Addr: addr, Input: append([]byte(nil), input...), Static: true})
	h, ok := m.handlers[addr]
	if !ok {
		return nil, gas, errors.New("no contract at address")
	}
	ret, err := h(input)
	return ret, gas, err
}

// callsTo returns the recorded non-static calls to [addr].
func (m *mockEnv) callsTo(addr common.Address) []mockCall {
	var out []mockCall
	for _, c := range m.calls {
		if c.Addr == addr && !c.Static {
			out = append(out, c)
		}
	}
	return out
}

type mockBlockContext struct{}

func (mockBlockContext) Number() *big.Int  { return big.NewInt(1_000_000) }
func (mockBlockContext) Timestamp() uint64 { return 1_700_000_000 }

// mockERC20 scripts a minimal token contract. The router precompile is the
// only caller in tests, so transfer debits the precompile's address.
type mockERC20 struct {
	balances map[common.Address]*big.Int
}

func newMockERC20() *mockERC20 {
	return &mockERC20{balances: make(map[common.Address]*big.Int)}
}

func (t *mockERC20) balanceOf(holder common.Address) *big.Int {
	if b, ok := t.balances[holder]; ok {
		return b
	}
	return big.NewInt(0)
}

func (t *mockERC20) mint(holder common.Address, amount *big.Int) {
	t.balances[holder] = new(big.Int).Add(t.balanceOf(holder), amount)
}

func (t *mockERC20) handler() venueHandler {
	return func(input []byte) ([]byte, error) {
		if len(input) < 4 {
			return nil, errors.New("short token calldata")
		}
		var selector [4]byte
		copy(selector[:], input[:4])
		args := input[4:]
		switch selector {
		case selectorBalanceOf:
			holder, _ := readAddress(args, 0)
			return word(t.balanceOf(holder)), nil
		case selectorTransfer:
			to, _ := readAddress(args, 0)
			amount, _ := readWord(args, 1)
			from := ContractAddress
			if t.balanceOf(from).Cmp(amount) < 0 {
				return nil, errors.New("insufficient token balance")
			}
			t.balances[from] = new(big.Int).Sub(t.balanceOf(from), amount)
			t.balances[to] = new(big.Int).Add(t.balanceOf(to), amount)
			return word(big.NewInt(1)), nil
		case selectorApprove:
			return word(big.NewInt(1)), nil
		default:
			return nil, errors.New("unknown token selector")
		}
	}
}

// Test fixture addresses.
var (
	testAdmin     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testFrontDoor = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	testTokenIn   = common.HexToAddress("0x0000000000000000000000000000000000001001")
	testTokenOut  = common.HexToAddress("0x0000000000000000000000000000000000001002")
	testTokenMid  = common.HexToAddress("0x0000000000000000000000000000000000001003")

	testPairRouter   = common.HexToAddress("0x0000000000000000000000000000000000002001")
	testPairRouterV2 = common.HexToAddress("0x0000000000000000000000000000000000002002")
	testCLRouter     = common.HexToAddress("0x0000000000000000000000000000000000002003")
	testBatchVault   = common.HexToAddress("0x0000000000000000000000000000000000002004")
	testCurvePool    = common.HexToAddress("0x0000000000000000000000000000000000002005")
)

// newTestRouter returns a router with the standard test venue table.
func newTestRouter() *routerPrecompile {
	return &routerPrecompile{
		venues: map[common.Address]VenueKind{
			testPairRouter:   VenuePair,
			testPairRouterV2: VenuePair,
			testCLRouter:     VenueConcentrated,
			testBatchVault:   VenueBatchVault,
		},
	}
}

// seedAdminState writes the admin and front door slots.
func seedAdminState(stateDB contract.StateDB) {
	setStateAddress(stateDB, AdminSlot, testAdmin)
	setStateAddress(stateDB, FrontDoorSlot, testFrontDoor)
}

// Payload builders used across tests.

func pairPayload(amountIn int64, deadline int64, path ...common.Address) []byte {
	out := append([]byte{}, word(big.NewInt(amountIn))...)
	out = append(out, word(big.NewInt(deadline))...)
	out = append(out, wordUint64(uint64(len(path)))...)
	for _, a := range path {
		out = append(out, wordAddress(a)...)
	}
	return out
}

func concentratedSinglePayload(amountIn int64, fee uint64, deadline int64) []byte {
	out := []byte{concentratedTagSingle}
	out = append(out, word(big.NewInt(amountIn))...)
	out = append(out, wordUint64(fee)...)
	out = append(out, word(big.NewInt(deadline))...)
	return out
}

func concentratedMultiPayload(amountIn int64, deadline int64, packedPath []byte) []byte {
	out := []byte{concentratedTagMulti}
	out = append(out, word(big.NewInt(amountIn))...)
	out = append(out, word(big.NewInt(deadline))...)
	out = append(out, wordUint64(uint64(len(packedPath)))...)
	out = append(out, packedPath...)
	return out
}

func packedPath(hops ...interface{}) []byte {
	var out []byte
	for _, h := range hops {
		switch v := h.(type) {
		case common.Address:
			out = append(out, v.Bytes()...)
		case uint32:
			out = append(out, byte(v>>16), byte(v>>8), byte(v))
		}
	}
	return out
}

func batchStepWords(poolSeed byte, inIdx, outIdx uint64, amount *big.Int) []byte {
	var poolID [32]byte
	poolID[0] = poolSeed
	out := append([]byte{}, poolID[:]...)
	out = append(out, wordUint64(inIdx)...)
	out = append(out, wordUint64(outIdx)...)
	out = append(out, word(amount)...)
	return out
}

func batchVaultPayload(amountIn *big.Int, deadline int64, assets []common.Address, steps ...[]byte) []byte {
	out := append([]byte{}, word(amountIn)...)
	out = append(out, word(big.NewInt(deadline))...)
	out = append(out, wordUint64(uint64(len(assets)))...)
	for _, a := range assets {
		out = append(out, wordAddress(a)...)
	}
	out = append(out, wordUint64(uint64(len(steps)))...)
	for _, s := range steps {
		out = append(out, s...)
	}
	return out
}

func curvePayload(amountIn int64, version, method uint8, inIdx, outIdx *big.Int) []byte {
	out := append([]byte{}, word(big.NewInt(amountIn))...)
	out = append(out, wordUint64(uint64(version))...)
	out = append(out, wordUint64(uint64(method))...)
	out = append(out, wordInt256(inIdx)...)
	out = append(out, wordInt256(outIdx)...)
	return out
}

// strategyInput builds executeStrategy calldata for the given legs.
func strategyInput(inputToken, outputToken common.Address, declared *big.Int, legs ...Leg) []byte {
	out := append([]byte{}, SelectorExecuteStrategy[:]...)
	out = append(out, wordAddress(inputToken)...)
	out = append(out, wordAddress(outputToken)...)
	out = append(out, word(declared)...)
	out = append(out, wordUint64(uint64(len(legs)))...)
	for _, leg := range legs {
		out = append(out, wordAddress(leg.Venue)...)
		out = append(out, wordUint64(uint64(len(leg.Payload)))...)
		out = append(out, leg.Payload...)
	}
	return out
}

// uintArrayReturn encodes a uint256[] return value.
func uintArrayReturn(vals ...int64) []byte {
	out := append([]byte{}, wordUint64(wordSize)...)
	out = append(out, wordUint64(uint64(len(vals)))...)
	for _, v := range vals {
		out = append(out, word(big.NewInt(v))...)
	}
	return out
}

// intArrayReturn encodes an int256[] return value (negative values allowed).
func intArrayReturn(vals ...int64) []byte {
	out := append([]byte{}, wordUint64(wordSize)...)
	out = append(out, wordUint64(uint64(len(vals)))...)
	for _, v := range vals {
		out = append(out, wordInt256(big.NewInt(v))...)
	}
	return out
}
