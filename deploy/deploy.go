// Package deploy provides CapyContest contract deployment over Neo blockchain.
package deploy

import (
	"context"
	"fmt"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/actor"
	"github.com/nspcc-dev/neo-go/pkg/rpcclient/management"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/manifest"
	"github.com/nspcc-dev/neo-go/pkg/smartcontract/nef"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/vmstate"
	"github.com/nspcc-dev/neo-go/pkg/wallet"
	"go.uber.org/zap"

	capyrpc "github.com/capylabs/capycontest-contract/rpc/capy"
)

// Blockchain groups services provided by particular Neo blockchain network
// that are required for CapyContest deployment.
type Blockchain interface {
	// RPCActor groups functions needed to compose and send transactions to
	// the blockchain.
	actor.RPCActor

	// GetCommittee returns list of public keys owned by Neo blockchain
	// committee members. Resulting list is non-empty, unique and unsorted.
	GetCommittee() (keys.PublicKeys, error)

	// GetContractStateByHash returns network state of the smart contract by
	// its address. GetContractStateByHash returns error with 'Unknown
	// contract' substring if requested contract is missing.
	GetContractStateByHash(util.Uint160) (*state.Contract, error)
}

// ContractPrm groups deployment parameters of a single contract.
type ContractPrm struct {
	NEF      nef.File
	Manifest manifest.Manifest
}

// Prm groups all parameters of the CapyContest deployment procedure.
type Prm struct {
	// Writes progress into the log.
	Logger *zap.Logger

	// Particular Neo blockchain instance hosting the contest.
	Blockchain Blockchain

	// Committee account used for transaction signing (must be unlocked).
	// Both contracts are deployed on behalf of it and the Capy contract is
	// configured with it, so it must carry the committee witness.
	CommitteeAccount *wallet.Account

	Capy    ContractPrm
	Contest ContractPrm
}

// Contracts groups addresses of the deployed CapyContest contracts.
type Contracts struct {
	Capy    util.Uint160
	Contest util.Uint160
}

// Deploy deploys the Capy and Contest contracts to the Neo network
// represented by given Prm.Blockchain and links them together. Deploy is
// idempotent: contracts that are already on the chain are left untouched, so
// it is safe to re-run after a partial failure.
func Deploy(ctx context.Context, prm Prm) (Contracts, error) {
	var res Contracts

	act, err := actor.NewSimple(prm.Blockchain, prm.CommitteeAccount)
	if err != nil {
		return res, fmt.Errorf("init committee actor: %w", err)
	}

	res.Capy, err = deployContract(ctx, prm.Logger, prm.Blockchain, act, prm.Capy)
	if err != nil {
		return res, fmt.Errorf("deploy Capy contract: %w", err)
	}

	res.Contest, err = deployContractWithData(ctx, prm.Logger, prm.Blockchain, act, prm.Contest, []any{res.Capy})
	if err != nil {
		return res, fmt.Errorf("deploy Contest contract: %w", err)
	}

	err = linkContest(ctx, prm.Logger, act, res)
	if err != nil {
		return res, fmt.Errorf("link Contest contract to the Capy one: %w", err)
	}

	return res, nil
}

func deployContract(ctx context.Context, l *zap.Logger, b Blockchain, act *actor.Actor, prm ContractPrm) (util.Uint160, error) {
	return deployContractWithData(ctx, l, b, act, prm, nil)
}

func deployContractWithData(ctx context.Context, l *zap.Logger, b Blockchain, act *actor.Actor, prm ContractPrm, data any) (util.Uint160, error) {
	h := state.CreateContractHash(act.Sender(), prm.NEF.Checksum, prm.Manifest.Name)
	l = l.With(zap.String("contract", prm.Manifest.Name), zap.Stringer("address", h))

	stateOnChain, err := b.GetContractStateByHash(h)
	if err == nil {
		l.Info("contract is already on the chain, skip deployment",
			zap.Uint16("update counter", stateOnChain.UpdateCounter))
		return h, nil
	} else if !isErrContractNotFound(err) {
		return h, fmt.Errorf("read contract state: %w", err)
	}

	l.Info("contract is missing on the chain, deploying...")

	txHash, vub, err := management.New(act).Deploy(&prm.NEF, &prm.Manifest, data)
	if err != nil {
		return h, fmt.Errorf("send deployment transaction: %w", err)
	}

	l.Info("deployment transaction sent, waiting for it to be accepted",
		zap.Stringer("tx", txHash), zap.Uint32("vub", vub))

	if err := waitCtx(ctx, act, txHash, vub); err != nil {
		return h, err
	}

	l.Info("contract deployed successfully")

	return h, nil
}

// linkContest stores the Contest contract address in the Capy one so that
// the latter accepts award bindings. No-op when the link is already set.
func linkContest(ctx context.Context, l *zap.Logger, act *actor.Actor, c Contracts) error {
	capyContract := capyrpc.New(act, c.Capy)

	linked, err := capyContract.Contest()
	if err == nil && linked.Equals(c.Contest) {
		l.Info("Contest contract is already linked to the Capy one, skip")
		return nil
	}

	txHash, vub, err := capyContract.SetContest(c.Contest)
	if err != nil {
		return fmt.Errorf("send setContest transaction: %w", err)
	}

	l.Info("setContest transaction sent, waiting for it to be accepted",
		zap.Stringer("tx", txHash), zap.Uint32("vub", vub))

	if err := waitCtx(ctx, act, txHash, vub); err != nil {
		return err
	}

	l.Info("contracts linked successfully")

	return nil
}

func waitCtx(ctx context.Context, act *actor.Actor, txHash util.Uint256, vub uint32) error {
	res, err := act.Wait(txHash, vub, nil)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("wait for transaction %s: %w", txHash.StringLE(), err)
	}
	if res.VMState != vmstate.Halt {
		return fmt.Errorf("transaction %s failed: %s", txHash.StringLE(), res.FaultException)
	}
	return nil
}

func isErrContractNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Unknown contract")
}
