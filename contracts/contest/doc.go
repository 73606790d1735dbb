/*
Package contest implements CapyContest contract deployed to a Neo N3 chain.

Contest contract runs a recurring, fee-funded popularity contest over capy
tokens. Owners lock a capy into the contest by paying a fixed enrollment fee
in GAS; anyone may pay a fixed support fee to cast a vote for an enrolled
entry. Enrollment is legal before the contest starts or during its start
epoch, support during the start epoch and the one right after it. From two
epochs after the start the contest can be terminated: the three
highest-scoring entries receive awards permanently bound to them through the
capy contract plus 1/2, 1/4 and 1/8 of the accumulated pool, the remainder is
split per vote between the supporters of the first place, all entries return
to their owners and the contest resets under an incremented edition number.

The epoch counter is stored in the contract and advanced by the committee.

# Contract notifications

NewEpoch notification. Produced when the committee advances the epoch
counter.

	NewEpoch:
	  - name: epoch
	    type: Integer

ContestStarted notification. Produced by the first enrollment of an edition.

	ContestStarted:
	  - name: edition
	    type: Integer
	  - name: startEpoch
	    type: Integer

ParticipantAdded notification. Produced on every enrollment.

	ParticipantAdded:
	  - name: slotID
	    type: Integer
	  - name: owner
	    type: Hash160
	  - name: tokenID
	    type: ByteArray

ParticipantRemoved notification. Produced on withdrawal.

	ParticipantRemoved:
	  - name: slotID
	    type: Integer
	  - name: owner
	    type: Hash160

ParticipantSupported notification. Produced on every vote, carries the
updated leaderboard snapshot.

	ParticipantSupported:
	  - name: slotID
	    type: Integer
	  - name: voter
	    type: Hash160
	  - name: score
	    type: Integer
	  - name: first
	    type: Integer
	  - name: second
	    type: Integer
	  - name: third
	    type: Integer

AwardGranted notification. Produced on termination for every awarded place.

	AwardGranted:
	  - name: place
	    type: Integer
	  - name: edition
	    type: Integer
	  - name: slotID
	    type: Integer
	  - name: amount
	    type: Integer
	  - name: supporters
	    type: Integer

ContestEnded notification. Produced on termination after all payouts.

	ContestEnded:
	  - name: edition
	    type: Integer
	  - name: paid
	    type: Integer
	  - name: remainder
	    type: Integer
*/
package contest

/*
Contract storage model.

# Summary
Key-value storage format:
 - 'e' -> int
   number of the current contest edition, counted from 1
 - 'n' -> int
   current epoch
 - 's' -> int
   epoch the current edition's enrollment began with, absent if the
   contest is not started
 - 'p' -> int
   prize pool accumulated from fees, may carry an undistributable
   remainder of previous editions
 - 'x' -> int
   next slot ID to assign, doubles as the roster length
 - 'c' -> 20-byte script hash
   capy contract reference
 - 'l' -> std.Serialize(LeaderBoard)
   slot IDs of the three highest-scoring entries
 - 'm<slotID>' -> std.Serialize(ParticipantSlot)
   occupied roster slot, the ID is an integer in its VM byte encoding;
   vacated slots are deleted and never reused within an edition

# Lifecycle
The contract holds exactly one contest instance. Termination resets the
edition-scoped keys in place, the roster is emptied rather than marked
vacant, so slot IDs restart from 0 in the next edition.
*/
