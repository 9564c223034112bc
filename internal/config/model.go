// internal/config/model.go
//
// Typed configuration model for the contact service.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `conf/.env`                      – dotenv values,
//   • `conf/global.yaml`                        – primary static file,
//   • `CONTACT_`-prefixed environment overrides – highest precedence.
//
// Any secret whose value begins with `vault:` is resolved through Vault
// after unmarshalling and before validation, so the validated model never
// holds Vault references, only plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Endpoint section
//

// Endpoint describes the remote service that receives submissions.
//
// StrictStatus is off by default: only transport failures count as failed
// submissions.  Timeout zero means the relay waits indefinitely.
type Endpoint struct {
	URL          string        `koanf:"url"           validate:"required,url,startswith=https://"`
	StrictStatus bool          `koanf:"strict_status"`
	Timeout      time.Duration `koanf:"timeout"`
}

//
// Security section
//

// Security holds signing keys.  Either may be a `vault:<mount>/<path>#<key>`
// reference in YAML or env.
type Security struct {
	CSRFKey    string `koanf:"csrf_key"    validate:"required,min=32"`
	SessionKey string `koanf:"session_key" validate:"required,min=32"`
}

//
// Optional sections
//

// Form points at a YAML form definition.  Empty selects the built-in one.
// Relative paths resolve against Paths.Root.
type Form struct {
	Definition string `koanf:"definition"`
}

// GeoIP points at a GeoLite2-City database.  Empty disables geo hints.
type GeoIP struct {
	DBPath string `koanf:"db_path"`
}

// Log tunes the zap logger.
type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // CONTACT_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Endpoint Endpoint `koanf:"endpoint"`
	Security Security `koanf:"security"`
	Form     Form     `koanf:"form"`
	GeoIP    GeoIP    `koanf:"geoip"`
	Log      Log      `koanf:"log"`
	Paths    Paths    `koanf:"-"`
}
