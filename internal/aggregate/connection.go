package aggregate

// ConnectionStatus — результат probe-запроса одного источника.
type ConnectionStatus struct {
	Source  string `json:"source"`
	Enabled bool   `json:"enabled"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}
