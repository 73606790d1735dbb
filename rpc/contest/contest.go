// Package contest contains RPC wrappers for CapyContest Contest contract.
package contest

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// Slot is a contract-specific contest.ParticipantSlot type used by its methods.
type Slot struct {
	Owner      util.Uint160
	TokenID    []byte
	Score      *big.Int
	Supporters []util.Uint160
}

// LeaderBoard is a contract-specific contest.LeaderBoard type used by its methods.
type LeaderBoard struct {
	First  *big.Int
	Second *big.Int
	Third  *big.Int
}

// Invoker is used by ContractReader to call various safe methods.
type Invoker interface {
	Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error)
	CallAndExpandIterator(contract util.Uint160, method string, maxItems int, params ...any) (*result.Invoke, error)
	TerminateSession(sessionID uuid.UUID) error
	TraverseIterator(sessionID uuid.UUID, iterator *result.Iterator, num int) ([]stackitem.Item, error)
}

// Actor is used by Contract to call state-changing methods.
type Actor interface {
	Invoker

	MakeCall(contract util.Uint160, method string, params ...any) (*transaction.Transaction, error)
	MakeUnsignedCall(contract util.Uint160, method string, attrs []transaction.Attribute, params ...any) (*transaction.Transaction, error)
	SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error)
}

// ContractReader implements safe contract methods.
type ContractReader struct {
	invoker Invoker
	hash    util.Uint160
}

// Contract implements all contract methods.
type Contract struct {
	ContractReader
	actor Actor
	hash  util.Uint160
}

// NewReader creates an instance of ContractReader using provided contract hash and the given Invoker.
func NewReader(invoker Invoker, hash util.Uint160) *ContractReader {
	return &ContractReader{invoker, hash}
}

// New creates an instance of Contract using provided contract hash and the given Actor.
func New(actor Actor, hash util.Uint160) *Contract {
	return &Contract{ContractReader{actor, hash}, actor, hash}
}

// Edition invokes `edition` method of contract.
func (c *ContractReader) Edition() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "edition"))
}

// Epoch invokes `epoch` method of contract.
func (c *ContractReader) Epoch() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "epoch"))
}

// PrizePool invokes `prizePool` method of contract.
func (c *ContractReader) PrizePool() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "prizePool"))
}

// StartEpoch invokes `startEpoch` method of contract.
func (c *ContractReader) StartEpoch() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "startEpoch"))
}

// RosterSize invokes `rosterSize` method of contract.
func (c *ContractReader) RosterSize() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "rosterSize"))
}

// Leaders invokes `leaders` method of contract.
func (c *ContractReader) Leaders() (*LeaderBoard, error) {
	return itemToLeaderBoard(unwrap.Item(c.invoker.Call(c.hash, "leaders")))
}

// Slot invokes `slot` method of contract.
func (c *ContractReader) Slot(slotID *big.Int) (*Slot, error) {
	return itemToSlot(unwrap.Item(c.invoker.Call(c.hash, "slot", slotID)))
}

// Slots invokes `slots` method of contract and returns an iterator session
// over key-value pairs of occupied slots.
func (c *ContractReader) Slots() (uuid.UUID, result.Iterator, error) {
	return unwrap.SessionIterator(c.invoker.Call(c.hash, "slots"))
}

// Version invokes `version` method of contract.
func (c *ContractReader) Version() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "version"))
}

// NewEpoch creates a transaction invoking `newEpoch` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) NewEpoch(epochNum *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "newEpoch", epochNum)
}

// NewEpochTransaction creates a transaction invoking `newEpoch` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) NewEpochTransaction(epochNum *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "newEpoch", epochNum)
}

// NewEpochUnsigned creates a transaction invoking `newEpoch` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) NewEpochUnsigned(epochNum *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "newEpoch", nil, epochNum)
}

// Participate creates a transaction invoking `participate` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Participate(owner util.Uint160, tokenID []byte) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "participate", owner, tokenID)
}

// ParticipateTransaction creates a transaction invoking `participate` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) ParticipateTransaction(owner util.Uint160, tokenID []byte) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "participate", owner, tokenID)
}

// ParticipateUnsigned creates a transaction invoking `participate` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) ParticipateUnsigned(owner util.Uint160, tokenID []byte) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "participate", nil, owner, tokenID)
}

// Support creates a transaction invoking `support` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Support(voter util.Uint160, slotID *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "support", voter, slotID)
}

// SupportTransaction creates a transaction invoking `support` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) SupportTransaction(voter util.Uint160, slotID *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "support", voter, slotID)
}

// SupportUnsigned creates a transaction invoking `support` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) SupportUnsigned(voter util.Uint160, slotID *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "support", nil, voter, slotID)
}

// Withdraw creates a transaction invoking `withdraw` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Withdraw(caller util.Uint160, slotID *big.Int) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "withdraw", caller, slotID)
}

// WithdrawTransaction creates a transaction invoking `withdraw` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) WithdrawTransaction(caller util.Uint160, slotID *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "withdraw", caller, slotID)
}

// WithdrawUnsigned creates a transaction invoking `withdraw` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) WithdrawUnsigned(caller util.Uint160, slotID *big.Int) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "withdraw", nil, caller, slotID)
}

// Terminate creates a transaction invoking `terminate` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Terminate() (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "terminate")
}

// TerminateTransaction creates a transaction invoking `terminate` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) TerminateTransaction() (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "terminate")
}

// TerminateUnsigned creates a transaction invoking `terminate` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) TerminateUnsigned() (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "terminate", nil)
}

// Update creates a transaction invoking `update` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Update(script []byte, manifest []byte, data any) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "update", script, manifest, data)
}

func itemToSlot(item stackitem.Item, err error) (*Slot, error) {
	if err != nil {
		return nil, err
	}
	var res = new(Slot)
	err = res.FromStackItem(item)
	return res, err
}

// FromStackItem retrieves fields of Slot from the given stack item
// and returns an error if so.
func (res *Slot) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 4 {
		return errors.New("wrong number of structure elements")
	}

	var err error
	res.Owner, err = itemToUint160(arr[0])
	if err != nil {
		return fmt.Errorf("field Owner: %w", err)
	}

	res.TokenID, err = arr[1].TryBytes()
	if err != nil {
		return fmt.Errorf("field TokenID: %w", err)
	}

	res.Score, err = arr[2].TryInteger()
	if err != nil {
		return fmt.Errorf("field Score: %w", err)
	}

	supArr, ok := arr[3].Value().([]stackitem.Item)
	if !ok {
		return errors.New("field Supporters: not an array")
	}
	res.Supporters = make([]util.Uint160, 0, len(supArr))
	for i := range supArr {
		sup, err := itemToUint160(supArr[i])
		if err != nil {
			return fmt.Errorf("field Supporters, item %d: %w", i, err)
		}
		res.Supporters = append(res.Supporters, sup)
	}

	return nil
}

func itemToLeaderBoard(item stackitem.Item, err error) (*LeaderBoard, error) {
	if err != nil {
		return nil, err
	}
	var res = new(LeaderBoard)
	err = res.FromStackItem(item)
	return res, err
}

// FromStackItem retrieves fields of LeaderBoard from the given stack item
// and returns an error if so.
func (res *LeaderBoard) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 3 {
		return errors.New("wrong number of structure elements")
	}

	var err error
	if res.First, err = arr[0].TryInteger(); err != nil {
		return fmt.Errorf("field First: %w", err)
	}
	if res.Second, err = arr[1].TryInteger(); err != nil {
		return fmt.Errorf("field Second: %w", err)
	}
	if res.Third, err = arr[2].TryInteger(); err != nil {
		return fmt.Errorf("field Third: %w", err)
	}

	return nil
}

func itemToUint160(item stackitem.Item) (util.Uint160, error) {
	b, err := item.TryBytes()
	if err != nil {
		return util.Uint160{}, err
	}
	return util.Uint160DecodeBytesBE(b)
}
