package cmd

// Config carries the process settings loaded from the environment.
type Config struct {
	HTTPPort string

	// Storage selects the persistence backend: "memory" or "postgres".
	Storage    string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	// QueueCapacity bounds the assembly admission queue.
	QueueCapacity int

	// DrainBatchSize caps outbox records delivered per drain tick.
	DrainBatchSize int

	// TestRunID tags metrics rows of a load-test run, empty in production.
	TestRunID string
}

const (
	// StorageMemory keeps the outbox and metrics in process memory.
	StorageMemory = "memory"

	// StoragePostgres persists the outbox and metrics through GORM.
	StoragePostgres = "postgres"
)
