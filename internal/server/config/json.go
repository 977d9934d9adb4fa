package config

import (
	"encoding/json"
	"os"

	"github.com/lostify/lostify/internal/flagx"
	"github.com/lostify/lostify/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept "10s" as well as integer nanoseconds. Absent keys keep the value
// already in Config.
type JsonConfig struct {
	HTTPAddr                string         `json:"http_addr"`
	GRPCHealthAddr          string         `json:"grpc_health_addr"`
	DatabaseDSN             string         `json:"database_dsn"`
	SecretKey               string         `json:"secret_key"`
	SessionValidityDuration timex.Duration `json:"session_validity_duration"`
	EmailDomain             string         `json:"email_domain"`
	SMTPHost                string         `json:"smtp_host"`
	SMTPPort                int            `json:"smtp_port"`
	SMTPUser                string         `json:"smtp_user"`
	SMTPPassword            string         `json:"smtp_password"`
	SenderEmail             string         `json:"sender_email"`
	NotifierPollInterval    timex.Duration `json:"notifier_poll_interval"`
	NotifierMaxPolls        int            `json:"notifier_max_polls"`
	TraceEndpoint           string         `json:"trace_endpoint"`
	ServiceName             string         `json:"service_name"`
}

// parseJson overlays the file named by -c/-config, if any.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.GRPCHealthAddr, c.GRPCHealthAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.EmailDomain, c.EmailDomain)
	setString(&config.SMTPHost, c.SMTPHost)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SenderEmail, c.SenderEmail)
	setString(&config.TraceEndpoint, c.TraceEndpoint)
	setString(&config.ServiceName, c.ServiceName)

	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	if c.NotifierMaxPolls != 0 {
		config.NotifierMaxPolls = c.NotifierMaxPolls
	}
	if c.SessionValidityDuration.Duration != 0 {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	if c.NotifierPollInterval.Duration != 0 {
		config.NotifierPollInterval = c.NotifierPollInterval.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
