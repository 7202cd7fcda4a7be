package routing

import (
	"mercator-hq/callisto/pkg/config"
)

// RulesFromConfig converts configured routes into rules, resolving each
// rule's timeout from the gateway defaults.
func RulesFromConfig(routes []config.RouteConfig, gw config.GatewayConfig) []Rule {
	rules := make([]Rule, 0, len(routes))
	for _, rc := range routes {
		timeout := rc.Timeout
		if timeout == 0 {
			timeout = gw.DefaultTimeout
			if rc.LongRunning {
				timeout = gw.LongRunningTimeout
			}
		}

		rules = append(rules, Rule{
			Name:         rc.Name,
			Method:       rc.Method,
			Pattern:      rc.Path,
			Mode:         Mode(rc.Mode),
			UpstreamPath: rc.UpstreamPath,
			Timeout:      timeout,
			LongRunning:  rc.LongRunning,
			HealthGated:  rc.IsHealthGated(),
		})
	}
	return rules
}

// TableFromConfig builds the rule table for cfg.
func TableFromConfig(cfg *config.Config) (*Table, error) {
	return NewTable(RulesFromConfig(cfg.Routes, cfg.Gateway)...)
}
