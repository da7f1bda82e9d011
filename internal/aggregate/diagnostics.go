package aggregate

// SourceStatus — что источник дал в этом прогоне и почему мог не дать.
type SourceStatus struct {
	Source  string `json:"source"`
	Enabled bool   `json:"enabled"`
	Events  int    `json:"events"`
	Note    string `json:"note,omitempty"`
}

// Diagnostics сопровождает каждый результат агрегации: по ней вызывающий
// код отличает "событий нет" от "синхронизация не настроена".
type Diagnostics struct {
	Cached      bool           `json:"cached"`
	Sources     []SourceStatus `json:"sources,omitempty"`
	Suggestions []string       `json:"suggestions,omitempty"`
	// Failure заполняется только при внутренней ошибке агрегации —
	// единственный фатальный для запроса случай
	Failure string `json:"failure,omitempty"`
}
