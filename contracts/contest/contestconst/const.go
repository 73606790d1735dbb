package contestconst

const (
	// EnrollmentFee is a fixed amount of GAS (in its minimal units) charged
	// for locking an entry into the contest.
	EnrollmentFee = 5_0000_0000

	// SupportFee is a fixed amount of GAS (in its minimal units) charged for
	// a single support vote.
	SupportFee = 5000_0000

	// Places is the number of awarded leaderboard places.
	Places = 3
)
