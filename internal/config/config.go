// Package config loads connection profiles for the miniftp command.
package config

import (
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// PasswordEnv names the environment variable that supplies a password
// when neither the profile nor the command line sets one.
const PasswordEnv = "MINIFTP_PASSWORD"

// Profile holds everything needed to open and tune a session.
type Profile struct {
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	User       string        `yaml:"user"`
	Password   string        `yaml:"password"`
	Timeout    time.Duration `yaml:"timeout"`
	BufferSize int           `yaml:"buffer_size"`
	RateLimit  int64         `yaml:"rate_limit"` // bytes per second, 0 = unlimited
}

// Default returns an anonymous profile on port 21.
func Default() Profile {
	return Profile{
		Port:    21,
		User:    "anonymous",
		Timeout: 30 * time.Second,
	}
}

// Load reads a YAML profile from file on top of Default. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func Load(file string) (Profile, error) {
	p := Default()
	content, err := os.ReadFile(file)
	if err != nil {
		return p, errors.Wrap(err, "read profile")
	}
	if err := yaml.UnmarshalStrict(content, &p); err != nil {
		return p, errors.Wrapf(err, "parse profile %s", file)
	}
	return p, nil
}

// Merge returns p with every non-zero field of o applied over it.
func (p Profile) Merge(o Profile) Profile {
	if o.Host != "" {
		p.Host = o.Host
	}
	if o.Port != 0 {
		p.Port = o.Port
	}
	if o.User != "" {
		p.User = o.User
	}
	if o.Password != "" {
		p.Password = o.Password
	}
	if o.Timeout != 0 {
		p.Timeout = o.Timeout
	}
	if o.BufferSize != 0 {
		p.BufferSize = o.BufferSize
	}
	if o.RateLimit != 0 {
		p.RateLimit = o.RateLimit
	}
	return p
}

// ApplyEnv fills an empty password from PasswordEnv, then falls back to
// the conventional anonymous password for the anonymous user.
func (p *Profile) ApplyEnv(getenv func(string) string) {
	if p.Password == "" {
		p.Password = getenv(PasswordEnv)
	}
	if p.Password == "" && p.User == "anonymous" {
		p.Password = "anonymous@"
	}
}

// Validate reports the first unusable field.
func (p Profile) Validate() error {
	switch {
	case p.Host == "":
		return errors.New("no host given")
	case p.Port <= 0 || p.Port > 65535:
		return errors.Errorf("port %d out of range", p.Port)
	case p.Timeout < 0:
		return errors.Errorf("negative timeout %v", p.Timeout)
	case p.BufferSize < 0:
		return errors.Errorf("negative buffer size %d", p.BufferSize)
	}
	return nil
}

// Addr returns host:port.
func (p Profile) Addr() string {
	return net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
}

// Save writes p to file as YAML.
func (p Profile) Save(file string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "encode profile")
	}
	return errors.Wrap(os.WriteFile(file, data, 0o600), "write profile")
}
