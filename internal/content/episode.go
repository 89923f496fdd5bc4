package content

// Social holds per-network announcement copy for one episode.
type Social struct {
	Twitter   string `json:"twitter,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

// Episode is the generated marketing content for one episode.
//
// Provider records which model produced the content ("fallback" for the
// deterministic path). Fallback is true when the content was derived from
// the transcript without an LLM; publishing still proceeds, but the
// workflow records the run as degraded.
type Episode struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ShowNotes   string `json:"show_notes"`
	Summary     string `json:"summary,omitempty"`
	Social      Social `json:"social,omitempty"`
	Language    string `json:"language,omitempty"`
	Provider    string `json:"provider,omitempty"`
	Fallback    bool   `json:"fallback,omitempty"`
}

// Request carries the inputs for one content generation pass.
type Request struct {
	// Transcript is the full episode transcript. Required.
	Transcript string
	// Language is the BCP-47 tag of the transcript language. Content is
	// written in this language. Defaults to the show language when empty.
	Language string
	// SourceName is the base name of the input audio file. Fallback titles
	// derive from it when the transcript opening is too thin.
	SourceName string
	// EpisodeNumber is included in prompts when positive.
	EpisodeNumber int
}
