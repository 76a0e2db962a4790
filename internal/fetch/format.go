package fetch

// SingleResponse is the success envelope for single-fetch calls, shared by
// the HTTP API and the tool metadata block.
type SingleResponse struct {
	URL            string `json:"url"`
	ResolvedURL    string `json:"resolvedUrl"`
	Status         int    `json:"status"`
	ContentType    string `json:"contentType"`
	Source         string `json:"source"`
	MarkdownTokens int    `json:"markdownTokens"`
	ContentSignal  string `json:"contentSignal"`
	Markdown       string `json:"markdown"`
}

// Metadata is SingleResponse without the markdown body; the tool interface
// returns it as its own JSON block ahead of the raw markdown.
type Metadata struct {
	URL            string `json:"url"`
	ResolvedURL    string `json:"resolvedUrl"`
	Status         int    `json:"status"`
	ContentType    string `json:"contentType"`
	Source         string `json:"source"`
	MarkdownTokens int    `json:"markdownTokens"`
	ContentSignal  string `json:"contentSignal"`
}

// BatchItem is one entry of a batch response, tagged with success. Failed
// items carry only url, success, and error.
type BatchItem struct {
	URL            string `json:"url"`
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
	ResolvedURL    string `json:"resolvedUrl,omitempty"`
	Status         int    `json:"status,omitempty"`
	ContentType    string `json:"contentType,omitempty"`
	Source         string `json:"source,omitempty"`
	MarkdownTokens int    `json:"markdownTokens,omitempty"`
	ContentSignal  string `json:"contentSignal,omitempty"`
	Markdown       string `json:"markdown,omitempty"`
}

// BatchResponse wraps the ordered batch items. A batch response is never
// failed as a whole; per-item flags carry the failures.
type BatchResponse struct {
	Results []BatchItem `json:"results"`
}

// FormatSingle shapes a successful outcome into the single-fetch envelope.
// Callers handle failed outcomes through their own error paths.
func FormatSingle(o Outcome) SingleResponse {
	return SingleResponse{
		URL:            o.URL,
		ResolvedURL:    o.Result.ResolvedURL,
		Status:         o.Result.StatusCode,
		ContentType:    o.Result.ContentType,
		Source:         o.Result.Source,
		MarkdownTokens: o.Result.MarkdownTokens,
		ContentSignal:  o.Result.ContentSignal,
		Markdown:       o.Result.Markdown,
	}
}

// FormatMetadata shapes a successful outcome into the tool metadata block.
func FormatMetadata(o Outcome) Metadata {
	return Metadata{
		URL:            o.URL,
		ResolvedURL:    o.Result.ResolvedURL,
		Status:         o.Result.StatusCode,
		ContentType:    o.Result.ContentType,
		Source:         o.Result.Source,
		MarkdownTokens: o.Result.MarkdownTokens,
		ContentSignal:  o.Result.ContentSignal,
	}
}

// FormatBatchItem shapes one outcome into a tagged batch entry.
func FormatBatchItem(o Outcome) BatchItem {
	if !o.OK() {
		return BatchItem{URL: o.URL, Success: false, Error: o.Err.Error()}
	}
	return BatchItem{
		URL:            o.URL,
		Success:        true,
		ResolvedURL:    o.Result.ResolvedURL,
		Status:         o.Result.StatusCode,
		ContentType:    o.Result.ContentType,
		Source:         o.Result.Source,
		MarkdownTokens: o.Result.MarkdownTokens,
		ContentSignal:  o.Result.ContentSignal,
		Markdown:       o.Result.Markdown,
	}
}

// FormatBatch shapes all outcomes in input order.
func FormatBatch(outcomes []Outcome) BatchResponse {
	items := make([]BatchItem, len(outcomes))
	for i, o := range outcomes {
		items[i] = FormatBatchItem(o)
	}
	return BatchResponse{Results: items}
}
