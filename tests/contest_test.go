package tests

import (
	"math/rand"
	"path"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/core/interop/storage"
	"github.com/nspcc-dev/neo-go/pkg/neotest"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/capylabs/capycontest-contract/common"
	"github.com/capylabs/capycontest-contract/contracts/contest/contestconst"
	"github.com/stretchr/testify/require"
)

const contestPath = "../contracts/contest"

type contestEnv struct {
	e       *neotest.Executor
	contest *neotest.ContractInvoker
	capy    *neotest.ContractInvoker

	contestHash util.Uint160
	capyHash    util.Uint160
}

func newContestEnv(t *testing.T) *contestEnv {
	e := newExecutor(t)

	ctrCapy := neotest.CompileFile(t, e.CommitteeHash, capyPath, path.Join(capyPath, "config.yml"))
	ctrContest := neotest.CompileFile(t, e.CommitteeHash, contestPath, path.Join(contestPath, "config.yml"))

	e.DeployContract(t, ctrCapy, nil)
	e.DeployContract(t, ctrContest, []interface{}{ctrCapy.Hash})

	capyInv := e.CommitteeInvoker(ctrCapy.Hash)
	capyInv.Invoke(t, stackitem.Null{}, "setContest", ctrContest.Hash)

	return &contestEnv{
		e:           e,
		contest:     e.CommitteeInvoker(ctrContest.Hash),
		capy:        capyInv,
		contestHash: ctrContest.Hash,
		capyHash:    ctrCapy.Hash,
	}
}

// enroll mints a fresh capy for the owner and enrolls it into the contest.
func (env *contestEnv) enroll(t *testing.T, owner neotest.Signer, expectedSlot int) []byte {
	tokenID := mintCapy(t, env.capy, owner)
	env.contest.WithSigners(owner).Invoke(t, expectedSlot, "participate", owner.ScriptHash(), tokenID)
	return tokenID
}

func (env *contestEnv) vote(t *testing.T, voter neotest.Signer, slotID int) {
	env.contest.WithSigners(voter).Invoke(t, stackitem.Null{}, "support", voter.ScriptHash(), slotID)
}

func (env *contestEnv) setEpoch(t *testing.T, epoch int) {
	env.contest.Invoke(t, stackitem.Null{}, "newEpoch", epoch)
}

func (env *contestEnv) gasBalance(h util.Uint160) int64 {
	return env.e.Chain.GetUtilityTokenBalance(h).Int64()
}

func leaderBoard(first, second, third int) stackitem.Item {
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.Make(first),
		stackitem.Make(second),
		stackitem.Make(third),
	})
}

func award(place, edition, amount, supporters int) stackitem.Item {
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.Make(place),
		stackitem.Make(edition),
		stackitem.Make(amount),
		stackitem.Make(supporters),
	})
}

func TestContestDeployDefaults(t *testing.T) {
	env := newContestEnv(t)

	env.contest.Invoke(t, 1, "edition")
	env.contest.Invoke(t, 0, "epoch")
	env.contest.Invoke(t, 0, "prizePool")
	env.contest.Invoke(t, -1, "startEpoch")
	env.contest.Invoke(t, 0, "rosterSize")
	env.contest.Invoke(t, leaderBoard(0, 0, 0), "leaders")
	env.contest.InvokeFail(t, "participant not found", "slot", 0)
}

func TestContestNewEpoch(t *testing.T) {
	env := newContestEnv(t)
	acc := env.contest.NewAccount(t)

	env.contest.WithSigners(acc).InvokeFail(t, "not witnessed by committee", "newEpoch", 1)
	env.contest.InvokeFail(t, "invalid epoch", "newEpoch", 0)

	env.setEpoch(t, 2)
	env.contest.Invoke(t, 2, "epoch")

	env.contest.InvokeFail(t, "invalid epoch", "newEpoch", 2)
	env.contest.InvokeFail(t, "invalid epoch", "newEpoch", 1)
}

func TestContestParticipate(t *testing.T) {
	env := newContestEnv(t)
	owner := env.contest.NewAccount(t)
	other := env.contest.NewAccount(t)

	tokenID := mintCapy(t, env.capy, owner)

	env.contest.InvokeFail(t, common.ErrOwnerWitnessFailed, "participate", owner.ScriptHash(), tokenID)
	env.contest.WithSigners(other).InvokeFail(t, "not an owner of the entry", "participate", other.ScriptHash(), tokenID)

	env.contest.WithSigners(owner).Invoke(t, 0, "participate", owner.ScriptHash(), tokenID)

	env.contest.Invoke(t, 0, "startEpoch")
	env.contest.Invoke(t, 1, "rosterSize")
	env.contest.Invoke(t, contestconst.EnrollmentFee, "prizePool")
	env.capy.Invoke(t, env.contestHash.BytesBE(), "ownerOf", tokenID)
	require.EqualValues(t, contestconst.EnrollmentFee, env.gasBalance(env.contestHash))

	// the token is in the contract custody now
	env.contest.WithSigners(owner).InvokeFail(t, "not an owner of the entry", "participate", owner.ScriptHash(), tokenID)

	// slot IDs grow sequentially within the same epoch
	env.enroll(t, other, 1)
	env.contest.Invoke(t, 2, "rosterSize")

	s, err := env.contest.TestInvoke(t, "slots")
	require.NoError(t, err)
	iter, ok := s.Pop().Value().(*storage.Iterator)
	require.True(t, ok)
	require.Len(t, iteratorToArray(iter), 2)

	// enrollment is legal within the start epoch only
	env.setEpoch(t, 1)
	late := env.contest.NewAccount(t)
	lateToken := mintCapy(t, env.capy, late)
	env.contest.WithSigners(late).InvokeFail(t, "participation window closed", "participate", late.ScriptHash(), lateToken)
}

func TestContestSupport(t *testing.T) {
	env := newContestEnv(t)
	voter := env.contest.NewAccount(t)
	voter2 := env.contest.NewAccount(t)

	env.contest.WithSigners(voter).InvokeFail(t, "contest not started", "support", voter.ScriptHash(), 0)

	owner := env.contest.NewAccount(t)
	owner2 := env.contest.NewAccount(t)
	tokenID := env.enroll(t, owner, 0)
	env.enroll(t, owner2, 1)

	env.contest.InvokeFail(t, common.ErrWitnessFailed, "support", voter.ScriptHash(), 0)
	env.contest.WithSigners(voter).InvokeFail(t, "invalid vote", "support", voter.ScriptHash(), 2)
	env.contest.WithSigners(voter).InvokeFail(t, "invalid vote", "support", voter.ScriptHash(), -1)

	// slot 0 holds all default ranks, its own vote changes nothing
	env.vote(t, voter, 0)
	env.contest.Invoke(t, leaderBoard(0, 0, 0), "leaders")

	// a tie does not displace the incumbent
	env.vote(t, voter, 1)
	env.contest.Invoke(t, leaderBoard(0, 0, 0), "leaders")

	// a strictly greater score does
	env.vote(t, voter, 1)
	env.contest.Invoke(t, leaderBoard(1, 0, 0), "leaders")

	// votes are accepted in the epoch right after the start one as well
	env.setEpoch(t, 1)
	env.vote(t, voter2, 0)

	env.contest.Invoke(t, stackitem.NewStruct([]stackitem.Item{
		stackitem.Make(owner.ScriptHash().BytesBE()),
		stackitem.Make(tokenID),
		stackitem.Make(2),
		stackitem.NewArray([]stackitem.Item{
			stackitem.Make(voter.ScriptHash().BytesBE()),
			stackitem.Make(voter2.ScriptHash().BytesBE()),
		}),
	}), "slot", 0)

	env.contest.Invoke(t, int64(2*contestconst.EnrollmentFee+4*contestconst.SupportFee), "prizePool")

	env.setEpoch(t, 2)
	env.contest.WithSigners(voter).InvokeFail(t, "support window closed", "support", voter.ScriptHash(), 0)
}

func TestContestLeaderboard(t *testing.T) {
	env := newContestEnv(t)
	v := env.contest.NewAccount(t)

	for i := 0; i < 4; i++ {
		env.enroll(t, env.contest.NewAccount(t), i)
	}

	steps := []struct {
		slot    int
		leaders stackitem.Item
	}{
		{2, leaderBoard(2, 0, 0)}, // displaces the zero-score default
		{3, leaderBoard(2, 3, 0)},
		{1, leaderBoard(2, 3, 1)},
		{1, leaderBoard(1, 2, 3)}, // third place climbs to the top
		{3, leaderBoard(1, 3, 2)},
		{2, leaderBoard(1, 3, 2)}, // tie with the third keeps the board
		{3, leaderBoard(3, 1, 2)}, // second place climbs to the top
	}
	for _, step := range steps {
		env.vote(t, v, step.slot)
		env.contest.Invoke(t, step.leaders, "leaders")
	}
}

func TestContestLeaderboardRandomized(t *testing.T) {
	env := newContestEnv(t)
	v := env.contest.NewAccount(t)

	const slots = 5
	for i := 0; i < slots; i++ {
		env.enroll(t, env.contest.NewAccount(t), i)
	}

	// reference model of the three-way insertion: only strictly greater
	// scores displace, an incumbent keeps its rank on a tie
	scores := make([]int, slots)
	var first, second, third int
	record := func(slot int) {
		if slot == first {
			return
		}
		s := scores[slot]
		if s > scores[first] {
			if slot == second {
				second = first
			} else {
				third = second
				second = first
			}
			first = slot
		} else if slot != second {
			if s > scores[second] {
				third = second
				second = slot
			} else if slot != third && s > scores[third] {
				third = slot
			}
		}
	}

	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 40; i++ {
		slot := rnd.Intn(slots)
		env.vote(t, v, slot)
		scores[slot]++
		record(slot)
		env.contest.Invoke(t, leaderBoard(first, second, third), "leaders")
	}
}

func TestContestWithdraw(t *testing.T) {
	env := newContestEnv(t)
	owner := env.contest.NewAccount(t)
	owner2 := env.contest.NewAccount(t)

	tokenID := env.enroll(t, owner, 0)
	env.enroll(t, owner2, 1)
	poolBefore := env.gasBalance(env.contestHash)

	env.contest.InvokeFail(t, common.ErrOwnerWitnessFailed, "withdraw", owner.ScriptHash(), 0)
	env.contest.WithSigners(owner2).InvokeFail(t, "not an owner of the entry", "withdraw", owner2.ScriptHash(), 0)
	env.contest.WithSigners(owner).InvokeFail(t, "participant not found", "withdraw", owner.ScriptHash(), 7)

	env.contest.WithSigners(owner).Invoke(t, stackitem.Null{}, "withdraw", owner.ScriptHash(), 0)

	// the entry is back, the fee is not
	env.capy.Invoke(t, owner.ScriptHash().BytesBE(), "ownerOf", tokenID)
	require.Equal(t, poolBefore, env.gasBalance(env.contestHash))
	env.contest.Invoke(t, int64(poolBefore), "prizePool")

	// the slot is permanently vacant
	env.contest.Invoke(t, 2, "rosterSize")
	env.contest.InvokeFail(t, "participant not found", "slot", 0)
	env.contest.WithSigners(owner2).InvokeFail(t, "participant not found", "support", owner2.ScriptHash(), 0)
	env.contest.WithSigners(owner).InvokeFail(t, "participant not found", "withdraw", owner.ScriptHash(), 0)
}

func TestContestTerminate(t *testing.T) {
	env := newContestEnv(t)

	env.contest.InvokeFail(t, "contest not started", "terminate")

	owners := make([]neotest.Signer, 3)
	tokens := make([][]byte, 3)
	for i := range owners {
		owners[i] = env.contest.NewAccount(t)
		tokens[i] = env.enroll(t, owners[i], i)
	}

	v1 := env.contest.NewAccount(t)
	v2 := env.contest.NewAccount(t)
	v3 := env.contest.NewAccount(t)

	// slot 0 wins with 3 votes, slot 1 takes the second place with 2,
	// slot 2 the third with 1
	env.vote(t, v3, 1)
	env.vote(t, v3, 2)
	env.vote(t, v1, 0)
	env.vote(t, v1, 0)
	env.vote(t, v2, 0)
	env.vote(t, v3, 1)
	env.contest.Invoke(t, leaderBoard(0, 1, 2), "leaders")

	const pool = 3*contestconst.EnrollmentFee + 6*contestconst.SupportFee // 18 GAS
	require.EqualValues(t, pool, env.gasBalance(env.contestHash))

	env.contest.InvokeFail(t, "cannot yet terminate contest", "terminate")
	env.setEpoch(t, 1)
	env.contest.InvokeFail(t, "cannot yet terminate contest", "terminate")
	env.setEpoch(t, 2)

	balances := make([]int64, 3)
	for i := range owners {
		balances[i] = env.gasBalance(owners[i].ScriptHash())
	}
	v1Balance := env.gasBalance(v1.ScriptHash())
	v2Balance := env.gasBalance(v2.ScriptHash())
	v3Balance := env.gasBalance(v3.ScriptHash())

	env.contest.Invoke(t, stackitem.Null{}, "terminate")

	// 1/2, 1/4 and 1/8 of the pool to the placed entries
	prizes := []int64{pool / 2, pool / 4, pool / 8}
	for i := range owners {
		require.Equal(t, balances[i]+prizes[i], env.gasBalance(owners[i].ScriptHash()), "owner %d", i)
	}

	// the rest is split per vote between the winner's supporters: v1 voted
	// twice, v2 once, v3 supported other slots only
	perHead := (pool - prizes[0] - prizes[1] - prizes[2]) / 3
	require.Equal(t, v1Balance+2*perHead, env.gasBalance(v1.ScriptHash()))
	require.Equal(t, v2Balance+perHead, env.gasBalance(v2.ScriptHash()))
	require.Equal(t, v3Balance, env.gasBalance(v3.ScriptHash()))

	// this pool drains completely
	require.Zero(t, env.gasBalance(env.contestHash))
	env.contest.Invoke(t, 0, "prizePool")

	// awards are permanently bound to the winning entries
	env.capy.Invoke(t, stackitem.NewArray([]stackitem.Item{award(1, 1, int(prizes[0]), 3)}), "awards", tokens[0])
	env.capy.Invoke(t, stackitem.NewArray([]stackitem.Item{award(2, 1, int(prizes[1]), 2)}), "awards", tokens[1])
	env.capy.Invoke(t, stackitem.NewArray([]stackitem.Item{award(3, 1, int(prizes[2]), 1)}), "awards", tokens[2])

	// entries are back with their owners
	for i := range owners {
		env.capy.Invoke(t, owners[i].ScriptHash().BytesBE(), "ownerOf", tokens[i])
	}

	// the contract is reset for the next edition
	env.contest.Invoke(t, 2, "edition")
	env.contest.Invoke(t, -1, "startEpoch")
	env.contest.Invoke(t, 0, "rosterSize")
	env.contest.Invoke(t, leaderBoard(0, 0, 0), "leaders")
	env.contest.InvokeFail(t, "contest not started", "terminate")

	// awards survive token transfers
	acc := env.contest.NewAccount(t)
	env.capy.WithSigners(owners[0]).Invoke(t, true, "transfer", acc.ScriptHash(), tokens[0], nil)
	env.capy.Invoke(t, stackitem.NewArray([]stackitem.Item{award(1, 1, int(prizes[0]), 3)}), "awards", tokens[0])

	// slot numbering restarts in the new edition
	env.contest.WithSigners(owners[1]).Invoke(t, 0, "participate", owners[1].ScriptHash(), tokens[1])
	env.contest.Invoke(t, 2, "startEpoch")
}

func TestContestResidueCarryOver(t *testing.T) {
	env := newContestEnv(t)

	owners := make([]neotest.Signer, 3)
	for i := range owners {
		owners[i] = env.contest.NewAccount(t)
		env.enroll(t, owners[i], i)
	}

	v1 := env.contest.NewAccount(t)
	v2 := env.contest.NewAccount(t)

	env.vote(t, v2, 1)
	env.vote(t, v2, 2)
	env.vote(t, v1, 0)
	env.vote(t, v1, 0)
	env.vote(t, v1, 0)
	env.contest.Invoke(t, leaderBoard(0, 1, 2), "leaders")

	const pool = int64(3*contestconst.EnrollmentFee + 5*contestconst.SupportFee) // 17.5 GAS
	leftover := pool - pool/2 - pool/4 - pool/8
	residue := leftover - leftover/3*3
	require.NotZero(t, residue)

	env.setEpoch(t, 2)
	env.contest.Invoke(t, stackitem.Null{}, "terminate")

	// per-head shares round down, the residue stays in the pool for the
	// next edition
	require.Equal(t, residue, env.gasBalance(env.contestHash))
	env.contest.Invoke(t, residue, "prizePool")

	env.enroll(t, owners[0], 0)
	env.contest.Invoke(t, residue+contestconst.EnrollmentFee, "prizePool")
}

func TestContestTerminateVacatedRank(t *testing.T) {
	env := newContestEnv(t)

	owner := env.contest.NewAccount(t)
	quitter := env.contest.NewAccount(t)
	v := env.contest.NewAccount(t)

	token := env.enroll(t, owner, 0)
	env.enroll(t, quitter, 1)

	env.vote(t, v, 1)
	env.contest.Invoke(t, leaderBoard(1, 0, 0), "leaders")

	env.contest.WithSigners(quitter).Invoke(t, stackitem.Null{}, "withdraw", quitter.ScriptHash(), 1)

	const pool = int64(2*contestconst.EnrollmentFee + contestconst.SupportFee)
	require.EqualValues(t, pool, env.gasBalance(env.contestHash))

	env.setEpoch(t, 2)
	ownerBalance := env.gasBalance(owner.ScriptHash())
	vBalance := env.gasBalance(v.ScriptHash())

	env.contest.Invoke(t, stackitem.Null{}, "terminate")

	// the first place is vacant: its prize and the supporter split stay in
	// the pool, the remaining entry collects the minor places
	require.Equal(t, ownerBalance+pool/4+pool/8, env.gasBalance(owner.ScriptHash()))
	require.Equal(t, vBalance, env.gasBalance(v.ScriptHash()))
	require.Equal(t, pool-pool/4-pool/8, env.gasBalance(env.contestHash))
	env.contest.Invoke(t, pool-pool/4-pool/8, "prizePool")

	env.capy.Invoke(t, stackitem.NewArray([]stackitem.Item{
		award(2, 1, int(pool/4), 0),
		award(3, 1, int(pool/8), 0),
	}), "awards", token)
}

func TestContestEmptyRosterTerminate(t *testing.T) {
	env := newContestEnv(t)

	owner := env.contest.NewAccount(t)
	env.enroll(t, owner, 0)
	env.contest.WithSigners(owner).Invoke(t, stackitem.Null{}, "withdraw", owner.ScriptHash(), 0)

	env.setEpoch(t, 2)
	env.contest.Invoke(t, stackitem.Null{}, "terminate")

	// no payouts happened, the collected fees carry over
	env.contest.Invoke(t, contestconst.EnrollmentFee, "prizePool")
	require.EqualValues(t, contestconst.EnrollmentFee, env.gasBalance(env.contestHash))
	env.contest.Invoke(t, 2, "edition")
	env.contest.Invoke(t, -1, "startEpoch")
	env.contest.Invoke(t, 0, "rosterSize")
}

func TestContestUpdate(t *testing.T) {
	env := newContestEnv(t)
	acc := env.contest.NewAccount(t)

	env.contest.WithSigners(acc).InvokeFail(t, "only committee can update contract", "update", []byte{}, []byte{}, nil)
	env.capy.WithSigners(acc).InvokeFail(t, "only committee can update contract", "update", []byte{}, []byte{}, nil)
}

func TestContestVersion(t *testing.T) {
	env := newContestEnv(t)
	env.contest.Invoke(t, common.Version, "version")
}
