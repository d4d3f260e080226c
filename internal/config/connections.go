package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rebeliceyang/lazydb/internal/models"
)

// ConnEntry is one [[conn]] table of the config file
type ConnEntry struct {
	Type             string `mapstructure:"type"`
	Name             string `mapstructure:"name"`
	User             string `mapstructure:"user"`
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	Path             string `mapstructure:"path"`
	Password         string `mapstructure:"password"`
	Database         string `mapstructure:"database"`
	UnixDomainSocket string `mapstructure:"unix_domain_socket"`
	LimitSize        int    `mapstructure:"limit_size"`
	TimeoutSecond    int    `mapstructure:"timeout_second"`
}

func buildDescriptors(entries []ConnEntry) ([]models.ConnectionDescriptor, error) {
	descriptors := make([]models.ConnectionDescriptor, 0, len(entries))
	seen := make(map[string]int)

	for i, e := range entries {
		d, err := e.descriptor()
		if err != nil {
			return nil, fmt.Errorf("conn #%d: %w", i+1, err)
		}
		seen[d.ID]++
		if n := seen[d.ID]; n > 1 {
			d.ID = fmt.Sprintf("%s#%d", d.ID, n)
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

func (e ConnEntry) descriptor() (models.ConnectionDescriptor, error) {
	engine, err := models.ParseEngine(e.Type)
	if err != nil {
		return models.ConnectionDescriptor{}, err
	}

	d := models.ConnectionDescriptor{
		Engine:     engine,
		Name:       e.Name,
		Host:       e.Host,
		Port:       e.Port,
		Path:       expandPath(e.Path),
		User:       e.User,
		Password:   e.Password,
		Database:   e.Database,
		UnixSocket: expandPath(e.UnixDomainSocket),
		PageSize:   e.LimitSize,
	}
	if e.TimeoutSecond > 0 {
		d.Timeout = time.Duration(e.TimeoutSecond) * time.Second
	}
	if d.PageSize < 0 {
		return d, fmt.Errorf("limit_size must not be negative")
	}

	switch engine {
	case models.EngineSQLite:
		if d.Path == "" {
			return d, fmt.Errorf("type = %q requires path", e.Type)
		}
	default:
		if d.Host == "" && d.UnixSocket == "" {
			return d, fmt.Errorf("type = %q requires host", e.Type)
		}
		if d.Port == 0 {
			d.Port = engine.DefaultPort()
		}
	}

	d.ID = d.Name
	if d.ID == "" {
		d.ID = defaultID(d)
	}
	return d, nil
}

func defaultID(d models.ConnectionDescriptor) string {
	if d.Engine == models.EngineSQLite {
		return "sqlite:" + d.Path
	}
	return fmt.Sprintf("%s:%s@%s:%d/%s", d.Engine, d.User, d.Host, d.Port, d.Database)
}

// expandPath resolves a leading ~ and environment variables
func expandPath(path string) string {
	if path == "" {
		return ""
	}
	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
