package v1

// TalkgroupRecord is the body of a talkgroup reference update.
type TalkgroupRecord struct {
	Tag         string `json:"tag"`
	Description string `json:"description"`
	GroupTag    string `json:"group_tag"`
	Group       string `json:"group"`
}

// SourceRecord is the body of a source reference update. A nil Tag keeps
// the stored one.
type SourceRecord struct {
	Tag *string `json:"tag"`
}
