package config

import (
	"flag"
	"io"

	"github.com/lostify/lostify/internal/flagx"
)

// parseFlags applies command-line flags, the last configuration layer.
//
//	-a string     HTTP bind address (e.g. ":8080")
//	-g string     gRPC health bind address
//	-d string     PostgreSQL DSN
//	-s string     session signing key
//	-t duration   session validity (e.g. "12h")
//	-e string     email domain appended to usernames
//	-m string     SMTP host
//	-p int        SMTP port
//	-f string     sender address
//	-o string     OTLP/HTTP trace endpoint
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-t", "-e", "-m", "-p", "-f", "-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to serve HTTP on")
	fs.StringVar(&config.GRPCHealthAddr, "g", config.GRPCHealthAddr, "address and port to serve gRPC health on")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.SessionValidityDuration, "t", config.SessionValidityDuration, "session validity")
	fs.StringVar(&config.EmailDomain, "e", config.EmailDomain, "email domain")
	fs.StringVar(&config.SMTPHost, "m", config.SMTPHost, "SMTP host")
	fs.IntVar(&config.SMTPPort, "p", config.SMTPPort, "SMTP port")
	fs.StringVar(&config.SenderEmail, "f", config.SenderEmail, "sender address")
	fs.StringVar(&config.TraceEndpoint, "o", config.TraceEndpoint, "OTLP trace endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
