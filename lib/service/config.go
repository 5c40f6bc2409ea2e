package service

type Config struct {
	LedgerPath             string  `envconfig:"LEDGER_PATH"`
	Network                string  `envconfig:"RAIL_NETWORK" default:"base-sepolia"`
	AgentAddress           string  `envconfig:"AGENT_ADDRESS"`
	SentryDSN              string  `envconfig:"SENTRY_DSN"`
	SentryTracesSampleRate float64 `envconfig:"SENTRY_TRACES_SAMPLE_RATE"`
	LogFilePath            string  `envconfig:"LOG_FILE_PATH"`
	Host                   string  `envconfig:"HOST" default:"localhost:3000"`
	Port                   int     `envconfig:"PORT" default:"3000"`
	DefaultRateLimit       int     `envconfig:"DEFAULT_RATE_LIMIT" default:"10"`
	StrictRateLimit        int     `envconfig:"STRICT_RATE_LIMIT" default:"10"`
	BurstRateLimit         int     `envconfig:"BURST_RATE_LIMIT" default:"1"`
	WebhookUrl             string  `envconfig:"WEBHOOK_URL"`
	RailTimeout            int     `envconfig:"RAIL_TIMEOUT" default:"30"`            // in seconds
	DefaultDeadlineHours   int     `envconfig:"DEFAULT_DEADLINE_HOURS" default:"24"`  // used when create omits deadline_hours
	DefaultListLimit       int     `envconfig:"DEFAULT_LIST_LIMIT" default:"20"`
	RabbitMQUri            string  `envconfig:"RABBITMQ_URI"`
	RabbitMQExchange       string  `envconfig:"RABBITMQ_INVOICE_EXCHANGE" default:"usdchub_invoice"`
}
