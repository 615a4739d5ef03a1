// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package consensus decides which crowd-sourced answer is authoritative for each
(icon, question) pair.

# Acceptance

Every pair holds a set of active answers. After each mutation exactly one of
them is accepted when the set is non-empty: the answer with the highest net
votes, ties going to the earliest submission. The first answer for a pair is
accepted on arrival. Later answers enter at zero net votes, so they take over
on arrival only from an answer that has been voted below zero.

# Votes

Each user holds at most one vote per answer:

	out, err := engine.RecordVote(ctx, userID, answerID, models.VoteDown, evidence)

Repeating the same vote type changes nothing. Switching type moves the vote
between the tallies. Downvotes carry counter evidence unless the voter backs
an alternative answer of their own.

# Transactions

Every operation runs in one database transaction. On PostgreSQL the pair's
rows are locked in id order; SQLite transactions start with an immediate
write lock. Storage conflicts (unique violations, serialization failures,
deadlocks, busy databases) restart the whole operation with backoff.

When acceptance moves, the engine asks its ScoreRecomputer to refresh the
icon's scores after commit. A failed refresh is logged and leaves the scores
stale until the next trigger.
*/
package consensus
