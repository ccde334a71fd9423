package api

type TranslationRequest struct {
	Text         string `json:"text"`
	MaxLength    *int   `json:"max_length,omitempty"`
	NoSubstitute bool   `json:"no_substitute,omitempty"`
	// Store defaults to true. Unstored translations cannot be fetched later.
	Store *bool `json:"store,omitempty"`
}

type Translation struct {
	ID           string            `json:"id"`
	Object       string            `json:"object"`
	CreatedAt    int64             `json:"created_at"`
	Input        string            `json:"input"`
	Substituted  string            `json:"substituted"`
	Decoded      string            `json:"decoded"`
	Output       string            `json:"output"`
	Substitution *SubstitutionInfo `json:"substitution,omitempty"`
	Steps        int               `json:"steps"`
	Stopped      bool              `json:"stopped"`
	DurationMS   float64           `json:"duration_ms"`
}

type SubstitutionInfo struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

type DeleteTranslationResp struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

type VocabularyResp struct {
	Object string         `json:"object"`
	Input  VocabularySide `json:"input"`
	Target VocabularySide `json:"target"`
}

type VocabularySide struct {
	Size    int      `json:"size"`
	Symbols []string `json:"symbols"`
}

type ErrorBody struct {
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}
