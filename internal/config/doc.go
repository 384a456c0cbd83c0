// Package config provides configuration management for replex.
//
// Configuration is read from a single directory. The default is
// ~/.config/replex; commands accept --config-path to use another one.
// The directory holds config.yaml and, unless storage.dir says otherwise,
// the client identifier and credential files.
//
// # Configuration Structure
//
//	auth:
//	  base_url: "https://plex.tv"
//	  product: "RePlex"
//	  device_name: "living-room"       # default: hostname
//	  poll_interval: 2s
//	  max_attempts: 150                # ~5 minutes per PIN
//	  max_retries: 3
//	  strong_pin: false
//	discovery:
//	  include_https: true
//	  include_relay: false
//	  fallback_url: "http://127.0.0.1:32400"
//	  force_local_http: false
//	storage:
//	  dir: ""                          # default: the config directory
//	  disable_encryption: false
//	http:
//	  timeout: 30s
//	logging:
//	  level: info
//
// Keys missing from the file keep their defaults.
//
// # Usage
//
//	cfg, err := config.LoadConfig(config.GetDefaultConfigPathOrPanic())
//	if err != nil {
//	    var cfgErr config.ConfigurationError
//	    if errors.As(err, &cfgErr) {
//	        fmt.Fprintln(os.Stderr, cfgErr.DetailedError())
//	    }
//	    return err
//	}
package config
