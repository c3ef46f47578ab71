package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/flippy/internal/flagx"
)

// parseFlags populates Config fields from command-line flags:
//
//	-a string            HTTP bind address (e.g. ":3001")
//	-origin string       allowed CORS origin of the web client
//	-db-host string      PostgreSQL host
//	-db-port int         PostgreSQL port
//	-db-user string      PostgreSQL user
//	-db-password string  PostgreSQL password
//	-db-name string      PostgreSQL database
//	-session-ttl dur     session lifetime (e.g. "168h")
//	-bcrypt-cost int     password hashing cost
//	-log-level string    debug|info|warn|error
//
// Only these flags are looked at; everything else in args is ignored.
func parseFlags(config *Config, args []string) error {
	known := []string{
		"-a", "-origin", "-db-host", "-db-port", "-db-user", "-db-password",
		"-db-name", "-session-ttl", "-bcrypt-cost", "-log-level",
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.ClientOrigin, "origin", config.ClientOrigin, "allowed CORS origin")
	fs.StringVar(&config.DBHost, "db-host", config.DBHost, "database host")
	fs.IntVar(&config.DBPort, "db-port", config.DBPort, "database port")
	fs.StringVar(&config.DBUser, "db-user", config.DBUser, "database user")
	fs.StringVar(&config.DBPassword, "db-password", config.DBPassword, "database password")
	fs.StringVar(&config.DBName, "db-name", config.DBName, "database name")
	fs.DurationVar(&config.SessionTTL, "session-ttl", config.SessionTTL, "session lifetime")
	fs.IntVar(&config.BcryptCost, "bcrypt-cost", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	return fs.Parse(flagx.FilterArgs(args, known))
}
