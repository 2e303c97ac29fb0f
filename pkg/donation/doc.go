// Package donation turns the raw text of an HCB donation page into a
// Snapshot of fundraising progress.
//
// Extraction is a plain text scan: the page is searched with a single
// currency pattern and the first two amounts, in document order, are taken
// as "raised" and "goal". Nothing in this package ever fails on page
// content:
//
//   - fewer than two amounts on the page default the missing tokens to "$0"
//   - tokens that do not parse as a number are worth 0
//   - progress is 0 whenever the goal is not positive
//
// # Basic Usage
//
//	raised, goal := donation.Extract(body)
//	fmt.Println(donation.ParseMoney(raised), donation.ParseMoney(goal))
//
//	snap := donation.NewSnapshot(body, sourceURL, time.Now())
//	fmt.Printf("%.1f%%\n", snap.ProgressPercent)
//
// Matches exposes the full lazy match sequence for callers that need more
// than the first two amounts.
package donation
