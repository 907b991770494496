package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "agent":
		return agentTemplate, nil
	case "manifest", "manifest.toml":
		return manifestTOMLTemplate, nil
	case "manifest.yaml", "manifest.yml":
		return manifestYAMLTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const agentTemplate = `id = "converge.local"
manifest = "manifest.toml"
admin_addr = "127.0.0.1:7400"
# admin_token = "change-me"
cors_origins = ["http://localhost:3000"]
update_status_interval = "5m"
reset_on = ["config-changed", "upgrade-charm"]
queue_size = 64
history_size = 32
leader = true
`

const manifestTOMLTemplate = `[[components]]
name = "app-config"
kind = "file"
events = ["app-config-changed"]

[components.settings]
path = "local/etc/app.toml"
format = "toml"

[components.settings.data]
listen = "127.0.0.1:8080"
workers = 4

[[components]]
name = "app-service"
kind = "command"
depends_on = ["app-config"]

[components.settings]
apply = ["systemctl", "restart", "app"]
check = ["systemctl", "is-active", "app"]
probe_timeout = "5s"
`

const manifestYAMLTemplate = `components:
  - name: app-config
    kind: file
    events: [app-config-changed]
    settings:
      path: local/etc/app.yaml
      format: yaml
      data:
        listen: 127.0.0.1:8080
        workers: 4
  - name: app-service
    kind: command
    depends_on: [app-config]
    settings:
      apply: [systemctl, restart, app]
      check: [systemctl, is-active, app]
      probe_timeout: 5s
`
