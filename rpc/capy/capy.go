// Package capy contains RPC wrappers for CapyContest Capy contract.
package capy

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/mr-tron/base58"
	"github.com/nspcc-dev/neo-go/pkg/core/transaction"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/nep11"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/unwrap"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// Award is a contract-specific capy.Award type used by its methods.
type Award struct {
	Place      *big.Int
	Edition    *big.Int
	Amount     *big.Int
	Supporters *big.Int
}

// Invoker is used by ContractReader to call various safe methods.
type Invoker interface {
	nep11.Invoker
}

// Actor is used by Contract to call state-changing methods.
type Actor interface {
	Invoker

	nep11.Actor

	MakeCall(contract util.Uint160, method string, params ...any) (*transaction.Transaction, error)
	MakeUnsignedCall(contract util.Uint160, method string, attrs []transaction.Attribute, params ...any) (*transaction.Transaction, error)
	SendCall(contract util.Uint160, method string, params ...any) (util.Uint256, uint32, error)
}

// ContractReader implements safe contract methods.
type ContractReader struct {
	nep11.NonDivisibleReader
	invoker Invoker
	hash    util.Uint160
}

// Contract implements all contract methods.
type Contract struct {
	ContractReader
	nep11.BaseWriter
	actor Actor
	hash  util.Uint160
}

// NewReader creates an instance of ContractReader using provided contract hash and the given Invoker.
func NewReader(invoker Invoker, hash util.Uint160) *ContractReader {
	return &ContractReader{*nep11.NewNonDivisibleReader(invoker, hash), invoker, hash}
}

// New creates an instance of Contract using provided contract hash and the given Actor.
func New(actor Actor, hash util.Uint160) *Contract {
	var nep11ndt = nep11.NewNonDivisible(actor, hash)
	return &Contract{ContractReader{nep11ndt.NonDivisibleReader, actor, hash}, nep11ndt.BaseWriter, actor, hash}
}

// Awards invokes `awards` method of contract.
func (c *ContractReader) Awards(tokenID []byte) ([]*Award, error) {
	arr, err := unwrap.Array(c.invoker.Call(c.hash, "awards", tokenID))
	if err != nil {
		return nil, err
	}
	res := make([]*Award, 0, len(arr))
	for i := range arr {
		var a = new(Award)
		if err := a.FromStackItem(arr[i]); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		res = append(res, a)
	}
	return res, nil
}

// Contest invokes `contest` method of contract.
func (c *ContractReader) Contest() (util.Uint160, error) {
	return unwrap.Uint160(c.invoker.Call(c.hash, "contest"))
}

// Version invokes `version` method of contract.
func (c *ContractReader) Version() (*big.Int, error) {
	return unwrap.BigInt(c.invoker.Call(c.hash, "version"))
}

// Mint creates a transaction invoking `mint` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Mint(owner util.Uint160, tokenID []byte, name string) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "mint", owner, tokenID, name)
}

// MintTransaction creates a transaction invoking `mint` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) MintTransaction(owner util.Uint160, tokenID []byte, name string) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "mint", owner, tokenID, name)
}

// MintUnsigned creates a transaction invoking `mint` method of the contract.
// This transaction is not signed, it's simply returned to the caller.
// Any fields of it that do not affect fees can be changed (ValidUntilBlock,
// Nonce), fee values (NetworkFee, SystemFee) can be increased as well.
func (c *Contract) MintUnsigned(owner util.Uint160, tokenID []byte, name string) (*transaction.Transaction, error) {
	return c.actor.MakeUnsignedCall(c.hash, "mint", nil, owner, tokenID, name)
}

// SetContest creates a transaction invoking `setContest` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) SetContest(addr util.Uint160) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "setContest", addr)
}

// SetContestTransaction creates a transaction invoking `setContest` method of the contract.
// This transaction is signed, but not sent to the network, instead it's
// returned to the caller.
func (c *Contract) SetContestTransaction(addr util.Uint160) (*transaction.Transaction, error) {
	return c.actor.MakeCall(c.hash, "setContest", addr)
}

// Update creates a transaction invoking `update` method of the contract.
// This transaction is signed and immediately sent to the network.
// The values returned are its hash, ValidUntilBlock value and error if any.
func (c *Contract) Update(script []byte, manifest []byte, data any) (util.Uint256, uint32, error) {
	return c.actor.SendCall(c.hash, "update", script, manifest, data)
}

// FromStackItem retrieves fields of Award from the given stack item
// and returns an error if so.
func (res *Award) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not an array")
	}
	if len(arr) != 4 {
		return errors.New("wrong number of structure elements")
	}

	var err error
	if res.Place, err = arr[0].TryInteger(); err != nil {
		return fmt.Errorf("field Place: %w", err)
	}
	if res.Edition, err = arr[1].TryInteger(); err != nil {
		return fmt.Errorf("field Edition: %w", err)
	}
	if res.Amount, err = arr[2].TryInteger(); err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}
	if res.Supporters, err = arr[3].TryInteger(); err != nil {
		return fmt.Errorf("field Supporters: %w", err)
	}

	return nil
}

// EncodeID returns a human-readable representation of a token ID suitable
// for logs and CLI output.
func EncodeID(tokenID []byte) string {
	return base58.Encode(tokenID)
}

// DecodeID parses a token ID previously rendered with EncodeID.
func DecodeID(s string) ([]byte, error) {
	return base58.Decode(s)
}
