package contest

import (
	"github.com/nspcc-dev/neo-go/pkg/interop"
	"github.com/nspcc-dev/neo-go/pkg/interop/contract"
	"github.com/nspcc-dev/neo-go/pkg/interop/convert"
	"github.com/nspcc-dev/neo-go/pkg/interop/iterator"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/gas"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/management"
	"github.com/nspcc-dev/neo-go/pkg/interop/native/std"
	"github.com/nspcc-dev/neo-go/pkg/interop/runtime"
	"github.com/nspcc-dev/neo-go/pkg/interop/storage"
	"github.com/capylabs/capycontest-contract/common"
	"github.com/capylabs/capycontest-contract/contracts/contest/contestconst"
)

type (
	// ParticipantSlot groups data of a single enrolled entry. Slots are
	// identified by their roster index assigned at enrollment; an index is
	// never reassigned within an edition even after the slot is vacated by
	// withdrawal.
	ParticipantSlot struct {
		// Entry owner.
		Owner interop.Hash160
		// Capy token locked into the contest.
		TokenID []byte
		// Number of received support votes.
		Score int
		// Voters in the order of their votes. One account may appear
		// multiple times, each occurrence counts separately.
		Supporters []interop.Hash160
	}

	// LeaderBoard tracks slot IDs of the three highest-scoring entries.
	// All ranks are zero until the first vote of an edition.
	LeaderBoard struct {
		First  int
		Second int
		Third  int
	}

	// nolint:unused
	kv struct {
		k []byte
		v []byte
	}
)

const (
	editionKey  = 'e'
	epochKey    = 'n'
	startKey    = 's'
	poolKey     = 'p'
	nextSlotKey = 'x'
	capyKey     = 'c'
	leadersKey  = 'l'

	slotPrefix = 'm'
)

// Error messages thrown by the contract methods.
const (
	// ErrNotStarted is thrown on operations requiring a running contest.
	ErrNotStarted = "contest not started"
	// ErrParticipationClosed is thrown on enrollment outside the start epoch.
	ErrParticipationClosed = "participation window closed"
	// ErrSupportClosed is thrown on votes outside the support window.
	ErrSupportClosed = "support window closed"
	// ErrTooEarly is thrown on termination before the support window ends.
	ErrTooEarly = "cannot yet terminate contest"
	// ErrInvalidVote is thrown on votes referencing slots outside the roster.
	ErrInvalidVote = "invalid vote"
	// ErrNotFound is thrown on operations referencing vacated slots.
	ErrNotFound = "participant not found"
	// ErrNotOwner is thrown on withdrawal by anyone but the entry owner.
	ErrNotOwner = "not an owner of the entry"
)

// nolint:deadcode,unused
func _deploy(data any, isUpdate bool) {
	ctx := storage.GetContext()

	if isUpdate {
		args := data.([]any)
		common.CheckVersion(args[len(args)-1].(int))
		return
	}

	args := data.(struct {
		addrCapy interop.Hash160
	})

	if len(args.addrCapy) != interop.Hash160Len {
		panic("incorrect length of capy contract script hash")
	}

	storage.Put(ctx, capyKey, args.addrCapy)
	storage.Put(ctx, editionKey, 1)
	storage.Put(ctx, epochKey, 0)
	storage.Put(ctx, poolKey, 0)
	storage.Put(ctx, nextSlotKey, 0)
	common.SetSerialized(ctx, leadersKey, LeaderBoard{})

	runtime.Log("contest contract initialized")
}

// Update method updates contract source code and manifest. It can be invoked
// only by committee.
func Update(script []byte, manifest []byte, data any) {
	if !common.HasUpdateAccess() {
		panic("only committee can update contract")
	}

	contract.Call(interop.Hash160(management.Hash), "update",
		contract.All, script, manifest, common.AppendVersion(data))
	runtime.Log("contest contract updated")
}

// NewEpoch advances the epoch counter up to the provided epochNum argument.
// It can be invoked only by committee. If the provided number is less than
// the current epoch number or equals it, the method throws panic.
//
// It produces NewEpoch notification.
func NewEpoch(epochNum int) {
	common.CheckCommitteeWitness()

	ctx := storage.GetContext()
	if epochNum <= currentEpoch(ctx) {
		panic("invalid epoch")
	}

	storage.Put(ctx, epochKey, epochNum)
	runtime.Notify("NewEpoch", epochNum)
}

// Epoch returns the current epoch number.
func Epoch() int {
	return currentEpoch(storage.GetReadOnlyContext())
}

// Edition returns the number of the current contest edition. Editions are
// counted from 1 and increment on every termination.
func Edition() int {
	return storage.Get(storage.GetReadOnlyContext(), editionKey).(int)
}

// PrizePool returns the amount of GAS accumulated from fees and not yet paid
// out. It may carry an undistributable remainder of previous editions.
func PrizePool() int {
	return getPool(storage.GetReadOnlyContext())
}

// StartEpoch returns the epoch the current edition's enrollment began with,
// or -1 if the contest has not started yet.
func StartEpoch() int {
	start := storage.Get(storage.GetReadOnlyContext(), startKey)
	if start == nil {
		return -1
	}
	return start.(int)
}

// RosterSize returns the number of slot IDs assigned in the current edition,
// vacated slots included.
func RosterSize() int {
	return storage.Get(storage.GetReadOnlyContext(), nextSlotKey).(int)
}

// Leaders returns the current leaderboard. Its ranks reference occupied
// slots only after the first vote of the edition.
func Leaders() LeaderBoard {
	return getLeaders(storage.GetReadOnlyContext())
}

// Slot returns the participant enrolled under the given slot ID. It throws
// panic for vacated or never assigned slots.
func Slot(slotID int) ParticipantSlot {
	slot, ok := getSlot(storage.GetReadOnlyContext(), slotID)
	if !ok {
		panic(ErrNotFound)
	}
	return slot
}

// Slots returns an iterator over all occupied slots. Iteration is through
// key-value pairs where key is the slot ID bytes and value is a serialized
// ParticipantSlot.
func Slots() iterator.Iterator {
	return storage.Find(storage.GetReadOnlyContext(), []byte{slotPrefix}, storage.RemovePrefix)
}

// Participate enrolls the given capy token into the contest. The call must
// be witnessed by the owner which also pays the fixed enrollment fee in GAS.
// The token is transferred into the contract custody until withdrawal or
// termination. The first enrollment starts the contest: the current epoch is
// recorded as the start epoch and enrollment stays legal within it only.
//
// Returns the slot ID assigned to the entry. Slot IDs start with 0 and are
// never reused within an edition.
//
// It produces ContestStarted (on the first enrollment) and ParticipantAdded
// notifications.
func Participate(owner interop.Hash160, tokenID []byte) int {
	common.CheckOwnerWitness(owner)

	ctx := storage.GetContext()
	now := currentEpoch(ctx)
	start := storage.Get(ctx, startKey)
	if start != nil && start.(int) != now {
		panic(ErrParticipationClosed)
	}

	capy := capyContract(ctx)
	tokenOwner := contract.Call(capy, "ownerOf", contract.ReadOnly, tokenID).(interop.Hash160)
	if !tokenOwner.Equals(owner) {
		panic(ErrNotOwner)
	}

	contestAddr := runtime.GetExecutingScriptHash()
	slotID := storage.Get(ctx, nextSlotKey).(int)

	if !gas.Transfer(owner, contestAddr, contestconst.EnrollmentFee, common.EnrollmentFeeDetails(slotID)) {
		panic("failed to pay enrollment fee")
	}

	if !contract.Call(capy, "transfer", contract.All, contestAddr, tokenID, nil).(bool) {
		panic("failed to lock the entry")
	}

	if start == nil {
		edition := storage.Get(ctx, editionKey).(int)
		storage.Put(ctx, startKey, now)
		runtime.Notify("ContestStarted", edition, now)
	}

	putSlot(ctx, slotID, ParticipantSlot{
		Owner:      owner,
		TokenID:    tokenID,
		Score:      0,
		Supporters: []interop.Hash160{},
	})
	storage.Put(ctx, nextSlotKey, slotID+1)
	storage.Put(ctx, poolKey, getPool(ctx)+contestconst.EnrollmentFee)

	runtime.Notify("ParticipantAdded", slotID, owner, tokenID)

	return slotID
}

// Support casts a vote for the entry enrolled under the given slot ID. The
// call must be witnessed by the voter which also pays the fixed support fee
// in GAS. Votes are accepted during the start epoch and the one right after
// it. The same account may vote repeatedly, every vote increments the score
// by one and counts separately in the remainder split on termination.
//
// It produces ParticipantSupported notification carrying the updated
// leaderboard.
func Support(voter interop.Hash160, slotID int) {
	common.CheckWitness(voter)

	ctx := storage.GetContext()
	start := storage.Get(ctx, startKey)
	if start == nil {
		panic(ErrNotStarted)
	}
	now := currentEpoch(ctx)
	if now != start.(int) && now != start.(int)+1 {
		panic(ErrSupportClosed)
	}

	if slotID < 0 || slotID >= storage.Get(ctx, nextSlotKey).(int) {
		panic(ErrInvalidVote)
	}
	slot, ok := getSlot(ctx, slotID)
	if !ok {
		panic(ErrNotFound)
	}

	if !gas.Transfer(voter, runtime.GetExecutingScriptHash(), contestconst.SupportFee, common.SupportFeeDetails(slotID)) {
		panic("failed to pay support fee")
	}

	// the neo-go compiler stores ++ results back for plain identifiers only,
	// a selector target silently loses the increment
	slot.Score = slot.Score + 1
	slot.Supporters = append(slot.Supporters, voter)
	putSlot(ctx, slotID, slot)
	storage.Put(ctx, poolKey, getPool(ctx)+contestconst.SupportFee)

	lb := recordVote(ctx, slotID, slot.Score)

	runtime.Notify("ParticipantSupported", slotID, voter, slot.Score, lb.First, lb.Second, lb.Third)
}

// Withdraw ends the participation of the entry enrolled under the given slot
// ID before termination and returns it to the owner. The call must be
// witnessed by the owner; no fee is refunded. The slot becomes permanently
// vacant, it is never re-enrolled into. Withdrawal is not epoch-gated: an
// owner may leave at any moment once enrolled.
//
// It produces ParticipantRemoved notification.
func Withdraw(caller interop.Hash160, slotID int) {
	common.CheckOwnerWitness(caller)

	ctx := storage.GetContext()
	slot, ok := getSlot(ctx, slotID)
	if !ok {
		panic(ErrNotFound)
	}
	if !slot.Owner.Equals(caller) {
		panic(ErrNotOwner)
	}

	releaseEntry(ctx, slot, slotID)
	storage.Delete(ctx, slotKey(slotID))

	runtime.Notify("ParticipantRemoved", slotID, caller)
}

// Terminate closes the contest once two epochs have passed since the start
// epoch. The three leaderboard slots receive awards permanently bound to
// their entries and GAS prizes of 1/2, 1/4 and 1/8 of the pool; the division
// remainder is split evenly per vote between the supporters of the first
// place. A per-head share of zero stops the split, the residue stays in the
// pool. All entries are returned to their owners and the contract resets for
// the next edition: edition number increments, start epoch is cleared, the
// leaderboard and the roster are emptied.
//
// With an empty roster or an empty pool only the reset is performed.
//
// It produces AwardGranted notifications followed by ContestEnded.
func Terminate() {
	ctx := storage.GetContext()
	start := storage.Get(ctx, startKey)
	if start == nil {
		panic(ErrNotStarted)
	}
	if currentEpoch(ctx) <= start.(int)+1 {
		panic(ErrTooEarly)
	}

	edition := storage.Get(ctx, editionKey).(int)
	pool := getPool(ctx)
	paid := 0

	ids, slots := occupiedSlots(ctx)
	if pool > 0 && len(ids) > 0 {
		pool, paid = settle(ctx, edition, pool)
		// settlement mutated nothing in the roster, re-read is not needed
	}

	for i := range ids {
		releaseEntry(ctx, slots[i], ids[i])
		storage.Delete(ctx, slotKey(ids[i]))
	}

	storage.Put(ctx, poolKey, pool)
	storage.Put(ctx, editionKey, edition+1)
	storage.Delete(ctx, startKey)
	common.SetSerialized(ctx, leadersKey, LeaderBoard{})
	storage.Put(ctx, nextSlotKey, 0)

	runtime.Notify("ContestEnded", edition, paid, pool)
}

// Version returns the version of the contract.
func Version() int {
	return common.Version
}

// OnNEP17Payment is a callback for NEP-17 compatible native GAS contract.
// The contract accepts GAS fee debits initiated by its own methods only.
func OnNEP17Payment(from interop.Hash160, amount int, data any) {
	caller := runtime.GetCallingScriptHash()
	if !caller.Equals(interop.Hash160(gas.Hash)) {
		panic("only GAS is accepted into the prize pool")
	}
}

// OnNEP11Payment is a callback for NEP-11 compatible capy contract. The
// contract takes custody of entries enrolled via Participate only.
func OnNEP11Payment(from interop.Hash160, amount int, tokenID []byte, data any) {
	ctx := storage.GetReadOnlyContext()
	if !runtime.GetCallingScriptHash().Equals(capyContract(ctx)) {
		panic("only capy entries are accepted")
	}
}

// settle pays prizes and the supporter remainder split out of the pool.
// Returns the drained pool value and the total amount paid. Ranked slots
// vacated by withdrawal are skipped, their share stays in the pool.
func settle(ctx storage.Context, edition, pool int) (int, int) {
	var (
		lb          = getLeaders(ctx)
		ranks       = []int{lb.First, lb.Second, lb.Third}
		prizes      = []int{pool / 2, pool / 4, pool / 8}
		contestAddr = runtime.GetExecutingScriptHash()
		capy        = capyContract(ctx)
		paid        = 0
	)

	for i := 0; i < contestconst.Places; i++ {
		slot, ok := getSlot(ctx, ranks[i])
		if !ok {
			continue
		}

		place := i + 1
		contract.Call(capy, "bindAward", contract.All,
			slot.TokenID, place, edition, prizes[i], len(slot.Supporters))

		if prizes[i] > 0 {
			if !gas.Transfer(contestAddr, slot.Owner, prizes[i], common.PrizeDetails(place)) {
				panic("prize payout failed")
			}
			pool -= prizes[i]
			paid += prizes[i]
		}

		runtime.Notify("AwardGranted", place, edition, ranks[i], prizes[i], len(slot.Supporters))
	}

	first, ok := getSlot(ctx, lb.First)
	if !ok || len(first.Supporters) == 0 {
		return pool, paid
	}

	perHead := pool / len(first.Supporters)
	if perHead == 0 {
		return pool, paid
	}

	for _, sup := range first.Supporters {
		if !gas.Transfer(contestAddr, sup, perHead, common.SupporterCutDetails(edition)) {
			panic("supporter payout failed")
		}
	}
	pool -= perHead * len(first.Supporters)
	paid += perHead * len(first.Supporters)

	return pool, paid
}

// recordVote re-ranks the leaderboard against the new score of the given
// slot and stores the result. The comparison is made with the three current
// leaders only; only a strictly greater score displaces a rank holder, so an
// earlier-recorded leader keeps its place on a tie. Relies on scores never
// decreasing.
func recordVote(ctx storage.Context, slotID, newScore int) LeaderBoard {
	lb := getLeaders(ctx)
	if slotID == lb.First {
		return lb
	}

	if newScore > slotScore(ctx, lb.First) {
		if slotID == lb.Second {
			lb.Second = lb.First
		} else {
			lb.Third = lb.Second
			lb.Second = lb.First
		}
		lb.First = slotID
	} else if slotID != lb.Second {
		if newScore > slotScore(ctx, lb.Second) {
			lb.Third = lb.Second
			lb.Second = slotID
		} else if slotID != lb.Third && newScore > slotScore(ctx, lb.Third) {
			lb.Third = slotID
		}
	}

	common.SetSerialized(ctx, leadersKey, lb)
	return lb
}

// releaseEntry hands the locked entry back to its owner.
func releaseEntry(ctx storage.Context, slot ParticipantSlot, slotID int) {
	ok := contract.Call(capyContract(ctx), "transfer", contract.All,
		slot.Owner, slot.TokenID, common.ReleaseDetails(slotID)).(bool)
	if !ok {
		panic("failed to release the entry")
	}
}

// occupiedSlots collects IDs and contents of all occupied roster slots in
// storage order.
func occupiedSlots(ctx storage.Context) ([]int, []ParticipantSlot) {
	// the slices start non-nil: the neo-go compiler emits no nil check for
	// range loops, ranging over a nil slice throws in the VM
	var (
		ids   = []int{}
		slots = []ParticipantSlot{}
	)

	it := storage.Find(ctx, []byte{slotPrefix}, storage.RemovePrefix)
	for iterator.Next(it) {
		pair := iterator.Value(it).(kv)
		ids = append(ids, convert.ToInteger(pair.k))
		slots = append(slots, std.Deserialize(pair.v).(ParticipantSlot))
	}

	return ids, slots
}

func slotKey(slotID int) []byte {
	return append([]byte{slotPrefix}, convert.ToBytes(slotID)...)
}

func getSlot(ctx storage.Context, slotID int) (ParticipantSlot, bool) {
	data := storage.Get(ctx, slotKey(slotID))
	if data == nil {
		return ParticipantSlot{}, false
	}
	return std.Deserialize(data.([]byte)).(ParticipantSlot), true
}

func putSlot(ctx storage.Context, slotID int, slot ParticipantSlot) {
	common.SetSerialized(ctx, slotKey(slotID), slot)
}

// slotScore returns the score of the given slot, 0 for vacant ones.
func slotScore(ctx storage.Context, slotID int) int {
	slot, ok := getSlot(ctx, slotID)
	if !ok {
		return 0
	}
	return slot.Score
}

func getLeaders(ctx storage.Context) LeaderBoard {
	return std.Deserialize(storage.Get(ctx, leadersKey).([]byte)).(LeaderBoard)
}

func getPool(ctx storage.Context) int {
	return storage.Get(ctx, poolKey).(int)
}

func currentEpoch(ctx storage.Context) int {
	return storage.Get(ctx, epochKey).(int)
}

func capyContract(ctx storage.Context) interop.Hash160 {
	return storage.Get(ctx, capyKey).(interop.Hash160)
}
