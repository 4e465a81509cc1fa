package roster

// Diff reconciles a roster snapshot against the provisioned accounts.
//
// Both sides are hash-indexed on NormalizedKey so the pass is O(n+m);
// directories routinely exceed a thousand entries and a nested scan is the
// dominant cost at that size. Duplicate keys in target are last-write-wins
// (the target is assumed deduplicated upstream). Two source records sharing
// a key are both retained in MissingInTarget when neither matches: with no
// secondary ID upstream there is nothing to disambiguate on.
func Diff(source []PersonRecord, target []Account) DiffResult {
	targetIdx := make(map[NormalizedKey]Account, len(target))
	for _, acct := range target {
		targetIdx[acct.Key()] = acct
	}

	sourceIdx := make(map[NormalizedKey]PersonRecord, len(source))
	for _, rec := range source {
		sourceIdx[rec.Key()] = rec
	}

	var res DiffResult
	for _, rec := range source {
		if _, ok := targetIdx[rec.Key()]; !ok {
			res.MissingInTarget = append(res.MissingInTarget, rec)
		}
	}
	for _, acct := range target {
		if _, ok := sourceIdx[acct.Key()]; !ok {
			res.ExtraInTarget = append(res.ExtraInTarget, acct)
		}
	}
	return res
}
