package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/quotakeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-r string   Redis address
//	-m int      trial term, months
//	-b int      referral bonus, days
//	-p int      plan term, days
//	-s int      session TTL, hours
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-r", "-m", "-b", "-p", "-s"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")

	fs.IntVar(&config.TrialMonths, "m", config.TrialMonths, "trial term (in months)")
	fs.IntVar(&config.ReferralBonusDays, "b", config.ReferralBonusDays, "referral bonus (in days)")
	fs.IntVar(&config.PlanTermDays, "p", config.PlanTermDays, "plan term (in days)")

	sessionTTL := fs.Int("s", int(config.SessionTTL.Hours()), "session TTL (in hours)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Hour
}
