package models

// PostRow is one captured post, ready for the spreadsheet. Rows are built
// once per fetched post and identified by URI; only the URI outlives the run.
type PostRow struct {
	CapturedAt  string `json:"captured_at"`
	Text        string `json:"text"`
	URI         string `json:"uri"`
	Handle      string `json:"handle"`
	Category    string `json:"category"`
	Controversy int    `json:"controversy"`
}
