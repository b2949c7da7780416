package config

import (
	"fmt"
	"net"
	"strings"
)

// Validate checks configuration values that normalization cannot repair.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir is required")
	}
	if strings.TrimSpace(c.Paths.MediaDir) == "" {
		problems = append(problems, "paths.media_dir is required")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir is required")
	}

	if c.Server.BasePort < 1 || c.Server.BasePort > 65535 {
		problems = append(problems, fmt.Sprintf("server.base_port %d is out of range", c.Server.BasePort))
	}
	if c.Server.BasePort+c.Server.PortSpan > 65536 {
		problems = append(problems, fmt.Sprintf("server.port_span %d overflows the port range", c.Server.PortSpan))
	}
	if c.Server.ProxyBind != "" {
		if _, _, err := net.SplitHostPort(c.Server.ProxyBind); err != nil {
			problems = append(problems, fmt.Sprintf("server.proxy_bind %q is not host:port", c.Server.ProxyBind))
		}
	}
	if c.Server.HealthMaxDelayMS < c.Server.HealthBaseDelayMS {
		problems = append(problems, "server.health_max_delay_ms must be >= server.health_base_delay_ms")
	}

	if !strings.HasPrefix(c.Analysis.OllamaEndpoint, "http://") && !strings.HasPrefix(c.Analysis.OllamaEndpoint, "https://") {
		problems = append(problems, fmt.Sprintf("analysis.ollama_endpoint %q must be an http(s) URL", c.Analysis.OllamaEndpoint))
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be console or json", c.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
