package domain

// Info is one collected article (spec §3: Info). Link is globally unique;
// insertion is "insert if absent" (I4).
type Info struct {
	ID        int64  `json:"id"`
	Link      string `json:"link"`
	Source    string `json:"source"`
	Category  string `json:"category"`
	Publish   string `json:"publish"` // ISO-8601 UTC, or "" if unknown
	Title     string `json:"title"`
	Detail    string `json:"detail"`
	StoreLink string `json:"store_link,omitempty"`
	Creator   string `json:"creator,omitempty"`
	ImgLink   string `json:"img_link,omitempty"`
}

// HasDetail reports whether the article's body has already been
// back-filled (§4.2 op 5-6).
func (i *Info) HasDetail() bool {
	return i.Detail != ""
}
