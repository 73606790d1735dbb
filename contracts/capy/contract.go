package capy

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/iterator"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/crypto"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/ledger"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
	"github.com/capylabs/capycontest-contract/common"
)

type (
	// CapyState is a capy token state.
	CapyState struct {
		// Token owner.
		Owner interop.Hash160
		// Token ID, unique within the contract.
		ID []byte
		// Human-readable capy name.
		Name string
		// Index of the block the token was minted at.
		Birth int
	}

	// Award is a commemorative contest award bound to a token. Awards are
	// immutable and cannot be detached from the token they decorate.
	Award struct {
		// Awarded place, 1 to 3.
		Place int
		// Contest edition the award was granted in.
		Edition int
		// GAS prize paid along with the award.
		Amount int
		// Number of supporter votes the entry held at award time.
		Supporters int
	}
)

// Prefixes used for contract data storage.
const (
	// prefixTotalSupply contains total supply of minted tokens.
	prefixTotalSupply byte = 0x00
	// prefixBalance contains map from the owner to their balance.
	prefixBalance byte = 0x01
	// prefixAccountToken contains map from (owner + token key) to token ID,
	// where token key = hash160(token ID).
	prefixAccountToken byte = 0x02
	// prefixToken contains map from token key to CapyState.
	prefixToken byte = 0x10
	// prefixAward contains map from (token key + award ID) to Award.
	prefixAward byte = 0x20
	// prefixAwardCount contains map from token key to the number of awards
	// bound to the token.
	prefixAwardCount byte = 0x21
)

// Values constraints.
const (
	// maxIDLength is the maximum length of the token ID.
	maxIDLength = 64
	// maxNameLength is the maximum length of the capy name.
	maxNameLength = 128
	// maxAwardID is the upper bound for the number of awards bound to a
	// single token.
	maxAwardID = 255
)

const contestKey = 'c'

// nolint:deadcode,unused
func _deploy(data any, isUpdate bool) {
	if isUpdate {
		args := data.([]any)
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	storage.Put(storage.GetContext(), []byte{prefixTotalSupply}, 0)

	runtime.Log("capy contract initialized")
}

// Update method updates contract source code and manifest. It can be invoked
// only by committee.
func Update(script []byte, manifest []byte, data any) {
	if !common.HasUpdateAccess() {
		panic("only committee can update contract")
	}

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, script, manifest, common.AppendVersion(data))
	runtime.Log("capy contract updated")
}

// Symbol is a NEP-11 standard method that returns the token symbol.
func Symbol() string {
	return "CAPY"
}

// Decimals is a NEP-11 standard method that returns 0: capies are not
// divisible.
func Decimals() int {
	return 0
}

// TotalSupply is a NEP-11 standard method that returns the overall number of
// minted capies.
func TotalSupply() int {
	ctx := storage.GetReadOnlyContext()
	return storage.Get(ctx, []byte{prefixTotalSupply}).(int)
}

// OwnerOf is a NEP-11 standard method that returns the owner of the
// specified token.
func OwnerOf(tokenID []byte) interop.Hash160 {
	ctx := storage.GetReadOnlyContext()
	return getToken(ctx, tokenID).Owner
}

// Properties is a NEP-11 standard method that returns token properties
// including the number of bound awards.
func Properties(tokenID []byte) map[string]any {
	ctx := storage.GetReadOnlyContext()
	token := getToken(ctx, tokenID)
	return map[string]any{
		"id":     token.ID,
		"name":   token.Name,
		"birth":  token.Birth,
		"awards": getAwardCount(ctx, getTokenKey(tokenID)),
	}
}

// BalanceOf is a NEP-11 standard method that returns the overall number of
// capies owned by the specified owner.
func BalanceOf(owner interop.Hash160) int {
	if !isValid(owner) {
		panic("invalid owner")
	}
	ctx := storage.GetReadOnlyContext()
	balance := storage.Get(ctx, append([]byte{prefixBalance}, owner...))
	if balance == nil {
		return 0
	}
	return balance.(int)
}

// Tokens is a NEP-11 optional method that returns an iterator over IDs of
// all minted capies.
func Tokens() iterator.Iterator {
	ctx := storage.GetReadOnlyContext()
	return storage.Find(ctx, []byte{prefixToken}, storage.ValuesOnly|storage.DeserializeValues|storage.PickField1)
}

// TokensOf is a NEP-11 standard method that returns an iterator over IDs of
// capies owned by the specified owner.
func TokensOf(owner interop.Hash160) iterator.Iterator {
	if !isValid(owner) {
		panic("invalid owner")
	}
	ctx := storage.GetReadOnlyContext()
	return storage.Find(ctx, append([]byte{prefixAccountToken}, owner...), storage.ValuesOnly)
}

// Transfer is a NEP-11 standard method that transfers the specified token to
// a new owner. It can be invoked by the owner or by the owning contract
// (this is how the contest contract locks and releases entries). Bound
// awards travel with the token.
func Transfer(to interop.Hash160, tokenID []byte, data any) bool {
	if !isValid(to) {
		panic("invalid receiver")
	}
	var (
		tokenKey = getTokenKey(tokenID)
		ctx      = storage.GetContext()
	)
	token := getTokenWithKey(ctx, tokenKey)
	from := token.Owner
	if !isAuthorized(from) {
		return false
	}
	if !from.Equals(to) {
		token.Owner = to
		putTokenWithKey(ctx, tokenKey, token)

		updateBalance(ctx, tokenID, from, -1)
		updateBalance(ctx, tokenID, to, +1)
	}
	postTransfer(from, to, tokenID, data)
	return true
}

// Mint creates a capy with the given ID and name and assigns it to the
// owner. The call must be witnessed by the owner. Token IDs are unique
// within the contract and never change.
//
// It produces a standard NEP-11 Transfer notification with empty sender.
func Mint(owner interop.Hash160, tokenID []byte, name string) {
	if !isValid(owner) {
		panic("invalid owner")
	}
	common.CheckOwnerWitness(owner)

	if len(tokenID) == 0 || len(tokenID) > maxIDLength {
		panic("invalid token ID length")
	}
	if len(name) == 0 || len(name) > maxNameLength {
		panic("invalid name length")
	}

	ctx := storage.GetContext()
	tokenKey := getTokenKey(tokenID)
	if storage.Get(ctx, append([]byte{prefixToken}, tokenKey...)) != nil {
		panic("token already exists")
	}

	putTokenWithKey(ctx, tokenKey, CapyState{
		Owner: owner,
		ID:    tokenID,
		Name:  name,
		Birth: ledger.CurrentIndex(),
	})
	updateBalance(ctx, tokenID, owner, +1)
	updateTotalSupply(ctx, +1)

	postTransfer(nil, owner, tokenID, nil)
}

// Awards returns all awards bound to the specified token in the order they
// were granted.
func Awards(tokenID []byte) []Award {
	ctx := storage.GetReadOnlyContext()
	tokenKey := getTokenKey(tokenID)
	getTokenWithKey(ctx, tokenKey) // token must exist

	var (
		result = []Award{}
		count  = getAwardCount(ctx, tokenKey)
	)
	for i := 0; i < count; i++ {
		data := storage.Get(ctx, awardKey(tokenKey, i)).([]byte)
		result = append(result, std.Deserialize(data).(Award))
	}
	return result
}

// BindAward permanently attaches a contest award to the specified token. It
// can be invoked only by the contest contract registered via SetContest.
// Awards are immutable, survive token transfers and cannot be removed.
//
// It produces AwardBound notification.
func BindAward(tokenID []byte, place, edition, amount, supporters int) {
	ctx := storage.GetContext()

	contest := storage.Get(ctx, contestKey)
	if contest == nil || !runtime.GetCallingScriptHash().Equals(contest.(interop.Hash160)) {
		panic("only the contest contract can bind awards")
	}

	tokenKey := getTokenKey(tokenID)
	getTokenWithKey(ctx, tokenKey) // token must exist

	count := getAwardCount(ctx, tokenKey)
	if count >= maxAwardID {
		panic("too many awards")
	}

	common.SetSerialized(ctx, awardKey(tokenKey, count), Award{
		Place:      place,
		Edition:    edition,
		Amount:     amount,
		Supporters: supporters,
	})
	storage.Put(ctx, append([]byte{prefixAwardCount}, tokenKey...), count+1)

	runtime.Notify("AwardBound", tokenID, place, edition)
}

// SetContest registers the contest contract allowed to bind awards. It can
// be invoked only by committee.
func SetContest(contest interop.Hash160) {
	common.CheckCommitteeWitness()

	if len(contest) != interop.Hash160Len {
		panic("incorrect length of contest contract script hash")
	}

	storage.Put(storage.GetContext(), contestKey, contest)
	runtime.Log("contest contract registered")
}

// Contest returns the script hash of the registered contest contract or nil
// if it is not set.
func Contest() interop.Hash160 {
	contest := storage.Get(storage.GetReadOnlyContext(), contestKey)
	if contest == nil {
		return nil
	}
	return contest.(interop.Hash160)
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

// isAuthorized checks if the given account witnessed the transaction or is
// the calling contract itself.
func isAuthorized(addr interop.Hash160) bool {
	if len(addr) != interop.Hash160Len {
		return false
	}
	if runtime.CheckWitness(addr) {
		return true
	}
	return runtime.GetCallingScriptHash().Equals(addr)
}

func updateBalance(ctx storage.Context, tokenID []byte, acc interop.Hash160, diff int) {
	balanceKey := append([]byte{prefixBalance}, acc...)
	var balance int
	if b := storage.Get(ctx, balanceKey); b != nil {
		balance = b.(int)
	}
	balance += diff
	if balance == 0 {
		storage.Delete(ctx, balanceKey)
	} else {
		storage.Put(ctx, balanceKey, balance)
	}

	tokenKey := getTokenKey(tokenID)
	accountTokenKey := append(append([]byte{prefixAccountToken}, acc...), tokenKey...)
	if diff < 0 {
		storage.Delete(ctx, accountTokenKey)
	} else {
		storage.Put(ctx, accountTokenKey, tokenID)
	}
}

// postTransfer sends Transfer notification to the network and calls
// onNEP11Payment method on the contract receiver.
func postTransfer(from, to interop.Hash160, tokenID []byte, data any) {
	runtime.Notify("Transfer", from, to, 1, tokenID)
	if management.GetContract(to) != nil {
		contract.Call(to, "onNEP11Payment", contract.All, from, 1, tokenID, data)
	}
}

func updateTotalSupply(ctx storage.Context, diff int) {
	key := []byte{prefixTotalSupply}
	supply := storage.Get(ctx, key).(int)
	storage.Put(ctx, key, supply+diff)
}

// getTokenKey computes hash160 from the given token ID.
func getTokenKey(tokenID []byte) []byte {
	return crypto.Ripemd160(tokenID)
}

func getToken(ctx storage.Context, tokenID []byte) CapyState {
	return getTokenWithKey(ctx, getTokenKey(tokenID))
}

func getTokenWithKey(ctx storage.Context, tokenKey []byte) CapyState {
	data := storage.Get(ctx, append([]byte{prefixToken}, tokenKey...))
	if data == nil {
		panic("token not found")
	}
	return std.Deserialize(data.([]byte)).(CapyState)
}

func putTokenWithKey(ctx storage.Context, tokenKey []byte, token CapyState) {
	common.SetSerialized(ctx, append([]byte{prefixToken}, tokenKey...), token)
}

func getAwardCount(ctx storage.Context, tokenKey []byte) int {
	count := storage.Get(ctx, append([]byte{prefixAwardCount}, tokenKey...))
	if count == nil {
		return 0
	}
	return count.(int)
}

func awardKey(tokenKey []byte, id int) []byte {
	return append(append([]byte{prefixAward}, tokenKey...), byte(id))
}

func isValid(addr interop.Hash160) bool {
	return addr != nil && len(addr) == interop.Hash160Len
}
