package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/quotakeeper/internal/flagx"
	"github.com/dmitrijs2005/quotakeeper/internal/timex"
)

// JsonConfig is the intermediate DTO for JSON config files. It uses
// timex.Duration for interval fields, which allows parsing both string values
// such as "24h" and integer nanoseconds. After unmarshalling, its fields are
// copied into the runtime Config struct.
type JsonConfig struct {
	EndpointAddrHTTP  string         `json:"endpoint_addr_http"`
	DatabaseDSN       string         `json:"database_dsn"`
	RedisAddr         string         `json:"redis_addr"`
	TrialMonths       int            `json:"trial_months"`
	ReferralBonusDays int            `json:"referral_bonus_days"`
	PlanTermDays      int            `json:"plan_term_days"`
	SessionTTL        timex.Duration `json:"session_ttl"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path is taken from the -c or -config command-line flags; if
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.DatabaseDSN = c.DatabaseDSN
	config.RedisAddr = c.RedisAddr
	config.TrialMonths = c.TrialMonths
	config.ReferralBonusDays = c.ReferralBonusDays
	config.PlanTermDays = c.PlanTermDays
	config.SessionTTL = time.Duration(c.SessionTTL.Duration)
}
