/*
Package capy contains non-divisible non-fungible NEP11-compatible token
implementation. Capy tokens are the entries of the CapyContest contest: the
contest contract takes them into custody on enrollment and returns them on
withdrawal or termination. Contest awards are bound to tokens through this
contract and stay attached forever: they survive transfers and cannot be
moved independently of the token they decorate.

# Contract notifications

Transfer notification. This is a NEP-11 standard notification.

	Transfer:
	  - name: from
	    type: Hash160
	  - name: to
	    type: Hash160
	  - name: amount
	    type: Integer
	  - name: tokenID
	    type: ByteArray

AwardBound notification. Produced when the contest contract binds an award.

	AwardBound:
	  - name: tokenID
	    type: ByteArray
	  - name: place
	    type: Integer
	  - name: edition
	    type: Integer
*/
package capy

/*
Contract storage model.

# Summary
Key-value storage format:
 - 0x00 -> int
   total number of minted tokens
 - 0x01<owner> -> int
   number of tokens held by the owner
 - 0x02<owner><token_key> -> []byte
   token ID by owner and token key (token key = hash160(token ID))
 - 0x10<token_key> -> std.Serialize(CapyState)
   token state by token key
 - 0x20<token_key><award_id> -> std.Serialize(Award)
   award bound to the token, award IDs are sequential bytes
 - 0x21<token_key> -> int
   number of awards bound to the token
 - 'c' -> 20-byte script hash
   contest contract allowed to bind awards
*/
