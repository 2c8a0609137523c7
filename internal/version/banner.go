package version

// Banner is the UI state driven by check results: the refresh prompt.
type Banner struct {
	Visible  bool
	Applied  string
	Observed string
	// Raised counts how many distinct mismatches were shown.
	Raised int
}

// Reduce folds a Result into the banner. A stale result raises the banner once
// per observed version; repeated polls reporting the same mismatch change nothing.
// Unknown and up-to-date results leave a raised banner in place until Dismiss.
func (b Banner) Reduce(r Result) Banner {
	if r.Status != StatusStale {
		return b
	}
	if b.Visible && b.Observed == r.Observed {
		return b
	}
	b.Visible = true
	b.Applied = r.Applied
	b.Observed = r.Observed
	b.Raised++
	return b
}

// Dismiss hides the banner after a reload.
func (b Banner) Dismiss() Banner {
	b.Visible = false
	return b
}
