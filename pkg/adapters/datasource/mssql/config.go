package mssql

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// Authentication methods.
const (
	AuthSQL              = "sql"
	AuthServicePrincipal = "service_principal"
)

// Defaults applied when the corresponding field is zero.
const (
	DefaultPort              = 1433
	DefaultConnectionTimeout = 30 // seconds
)

// Registered by go-mssqldb and its azuread package.
const (
	driverSQLServer = "sqlserver"
	driverAzureSQL  = "azuresql"
)

// Config holds the connection settings for the welfare database.
type Config struct {
	Host     string
	Port     int
	Database string

	// AuthMethod is AuthSQL or AuthServicePrincipal.
	AuthMethod string

	Username string
	Password string

	TenantID     string
	ClientID     string
	ClientSecret string

	Encrypt                bool
	TrustServerCertificate bool
	ConnectionTimeout      int
	MaxOpenConns           int
}

// Validate reports every missing or invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Host == "" {
		errs = append(errs, errors.New("host is required"))
	}
	if c.Database == "" {
		errs = append(errs, errors.New("database is required"))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", c.Port))
	}

	switch c.AuthMethod {
	case AuthSQL:
		if c.Username == "" {
			errs = append(errs, errors.New("username is required for SQL authentication"))
		}
	case AuthServicePrincipal:
		required := []struct{ name, value string }{
			{"tenant_id", c.TenantID},
			{"client_id", c.ClientID},
			{"client_secret", c.ClientSecret},
		}
		for _, f := range required {
			if f.value == "" {
				errs = append(errs, fmt.Errorf("%s is required for service principal", f.name))
			}
		}
	default:
		errs = append(errs, fmt.Errorf("invalid auth method %q (must be %s or %s)", c.AuthMethod, AuthSQL, AuthServicePrincipal))
	}

	return errors.Join(errs...)
}

// dataSource returns the driver name and DSN for the configured auth method.
// Service principal logins go through the azuresql driver, which handles
// fedauth token acquisition.
func (c *Config) dataSource() (driver, dsn string) {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	timeout := c.ConnectionTimeout
	if timeout == 0 {
		timeout = DefaultConnectionTimeout
	}

	q := url.Values{}
	q.Set("database", c.Database)
	q.Set("app name", "welfare-nl2sql")
	q.Set("encrypt", strconv.FormatBool(c.Encrypt))
	if c.TrustServerCertificate {
		q.Set("TrustServerCertificate", "true")
	}
	q.Set("connection timeout", strconv.Itoa(timeout))
	// Every statement the service sends is a read; mark the intent so
	// availability-group routing can send it to a secondary.
	q.Set("ApplicationIntent", "ReadOnly")

	u := url.URL{
		Scheme: "sqlserver",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(port)),
	}

	if c.AuthMethod == AuthServicePrincipal {
		q.Set("fedauth", "ActiveDirectoryServicePrincipal")
		q.Set("user id", c.ClientID+"@"+c.TenantID)
		q.Set("password", c.ClientSecret)
		u.RawQuery = q.Encode()
		return driverAzureSQL, u.String()
	}

	u.User = url.UserPassword(c.Username, c.Password)
	u.RawQuery = q.Encode()
	return driverSQLServer, u.String()
}
