package driven

// ConfigStore holds flat dotted keys such as "retrieval.top_k".
// Typed getters return the zero value for a missing key or a value of
// another type; numeric getters accept any numeric type.
type ConfigStore interface {
	// Get returns the raw value and whether key is set.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool

	// Set stores value and persists it before returning.
	Set(key string, value any) error

	// Save writes every value to storage.
	Save() error

	// Load replaces the in-memory values with those in storage.
	Load() error

	// Path identifies the backing storage for messages.
	Path() string
}
