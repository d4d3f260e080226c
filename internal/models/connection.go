package models

import (
	"fmt"
	"strings"
	"time"
)

// Engine identifies one of the supported database dialects
type Engine string

const (
	EngineMySQL    Engine = "mysql"
	EnginePostgres Engine = "postgres"
	EngineSQLite   Engine = "sqlite"
)

// ParseEngine maps a config "type" value to an Engine
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mysql":
		return EngineMySQL, nil
	case "postgres", "postgresql":
		return EnginePostgres, nil
	case "sqlite", "sqlite3":
		return EngineSQLite, nil
	default:
		return "", fmt.Errorf("unknown database type %q (expected mysql, postgres or sqlite)", s)
	}
}

// DefaultPort returns the conventional TCP port for the engine, 0 for file based engines.
func (e Engine) DefaultPort() int {
	switch e {
	case EngineMySQL:
		return 3306
	case EnginePostgres:
		return 5432
	default:
		return 0
	}
}

// ConnectionDescriptor identifies one database target. It is immutable once loaded.
type ConnectionDescriptor struct {
	ID         string
	Engine     Engine
	Name       string
	Host       string
	Port       int
	Path       string // sqlite only
	User       string
	Password   string
	Database   string
	UnixSocket string
	PageSize   int
	Timeout    time.Duration
}

// DisplayName is the label shown in the connection list
func (d ConnectionDescriptor) DisplayName() string {
	url := d.MaskedURL()
	if d.Name != "" {
		return fmt.Sprintf("[%s] %s", d.Name, url)
	}
	return url
}

// URL renders the descriptor as a database URL including the password
func (d ConnectionDescriptor) URL() string {
	return d.buildURL(d.Password)
}

// MaskedURL renders the descriptor as a database URL with the password replaced by asterisks
func (d ConnectionDescriptor) MaskedURL() string {
	return d.buildURL(strings.Repeat("*", len(d.Password)))
}

func (d ConnectionDescriptor) buildURL(password string) string {
	switch d.Engine {
	case EngineMySQL:
		url := fmt.Sprintf("mysql://%s:%s@%s:%d", d.User, password, d.Host, d.Port)
		if d.Database != "" {
			url += "/" + d.Database
		}
		if d.UnixSocket != "" {
			url += "?socket=" + d.UnixSocket
		}
		return url
	case EnginePostgres:
		if d.UnixSocket != "" {
			if d.Database != "" {
				return fmt.Sprintf("postgres://?dbname=%s&host=%s&user=%s&password=%s",
					d.Database, d.UnixSocket, d.User, password)
			}
			return fmt.Sprintf("postgres://?host=%s&user=%s&password=%s", d.UnixSocket, d.User, password)
		}
		url := fmt.Sprintf("postgres://%s:%s@%s:%d", d.User, password, d.Host, d.Port)
		if d.Database != "" {
			url += "/" + d.Database
		}
		return url
	case EngineSQLite:
		return "sqlite://" + d.Path
	default:
		return ""
	}
}

// ConnectionState represents the lifecycle of a connection slot
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	ReconnectRequired
	Failed
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case ReconnectRequired:
		return "reconnect required"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
