package state

// DefaultSharePrefix is prepended to the live data URL to build the share
// link.
const DefaultSharePrefix = "https://apps.untan.gl/live/?url="

// Links is the derived view of the live data URL.
type Links struct {
	Visible      bool
	LocalURL     string
	ShareURL     string
	ShareVisible bool
}

// LinkStore derives share links from the live data URL and the host's
// hide-share-link latch.
type LinkStore interface {
	LiveDataURL() string
	SetLiveDataURL(string)
	ShareHidden() bool
	// HideShare latches the share link off for the rest of the session.
	HideShare()
	// Recompute refreshes Links from the current inputs.
	Recompute()
	Links() Links
}

type linkStore struct {
	prefix      string
	liveDataURL string
	shareHidden bool
	links       Links
}

// NewLinkStore builds a store using prefix for share links; an empty prefix
// selects DefaultSharePrefix.
func NewLinkStore(prefix string) LinkStore {
	if prefix == "" {
		prefix = DefaultSharePrefix
	}
	return &linkStore{prefix: prefix}
}

func (l *linkStore) LiveDataURL() string {
	return l.liveDataURL
}

func (l *linkStore) SetLiveDataURL(url string) {
	l.liveDataURL = url
	l.Recompute()
}

func (l *linkStore) ShareHidden() bool {
	return l.shareHidden
}

func (l *linkStore) HideShare() {
	l.shareHidden = true
	l.Recompute()
}

func (l *linkStore) Recompute() {
	if l.liveDataURL == "" {
		l.links = Links{}
		return
	}
	l.links = Links{Visible: true, LocalURL: l.liveDataURL}
	if !l.shareHidden {
		l.links.ShareURL = l.prefix + l.liveDataURL
		l.links.ShareVisible = true
	}
}

func (l *linkStore) Links() Links {
	return l.links
}
