package webdriver

// BrowserQuirks describes how a browser's driver departs from the W3C click
// and window algorithms.
type BrowserQuirks interface {
	// NeedsClickCompensation reports that the driver clicks without moving the
	// pointer first and rejects clicks on links wrapping block content.
	NeedsClickCompensation() bool

	// ResolvesWindowNamesNatively reports that window names can be passed to
	// the switch-window command directly.
	ResolvesWindowNamesNatively() bool
}

type quirks struct {
	clickCompensation bool
	nativeWindowNames bool
}

func (q quirks) NeedsClickCompensation() bool      { return q.clickCompensation }
func (q quirks) ResolvesWindowNamesNatively() bool { return q.nativeWindowNames }

// Firefox quirks: geckodriver neither hovers before clicking nor maps window
// names to handles (mozilla/geckodriver#149, #653).
var Firefox BrowserQuirks = quirks{clickCompensation: true}

// Standard quirks for W3C-conformant drivers.
var Standard BrowserQuirks = quirks{nativeWindowNames: true}

// QuirksFor returns the quirks of a browser by name.
func QuirksFor(browser string) BrowserQuirks {
	if browser == "firefox" {
		return Firefox
	}
	return Standard
}

// OverrideQuirks returns base with the non-nil flags replaced.
func OverrideQuirks(base BrowserQuirks, clickCompensation, nativeWindowNames *bool) BrowserQuirks {
	q := quirks{
		clickCompensation: base.NeedsClickCompensation(),
		nativeWindowNames: base.ResolvesWindowNamesNatively(),
	}
	if clickCompensation != nil {
		q.clickCompensation = *clickCompensation
	}
	if nativeWindowNames != nil {
		q.nativeWindowNames = *nativeWindowNames
	}
	return q
}
