package audit

import "time"

// Config controls event recording.
type Config struct {
	Enabled        bool          `env:"AUDIT_ENABLED" envDefault:"true"`
	MemoryCapacity int           `env:"AUDIT_MEMORY_CAPACITY" envDefault:"10000"`
	BufferSize     int           `env:"AUDIT_BUFFER_SIZE" envDefault:"1000"`
	BatchSize      int           `env:"AUDIT_BATCH_SIZE" envDefault:"100"`
	FlushInterval  time.Duration `env:"AUDIT_FLUSH_INTERVAL" envDefault:"100ms"`
}

// AsyncOptions maps the config onto AsyncWriter settings.
func (c Config) AsyncOptions() AsyncOptions {
	return AsyncOptions{
		BufferSize:   c.BufferSize,
		BatchSize:    c.BatchSize,
		BatchTimeout: c.FlushInterval,
	}
}
