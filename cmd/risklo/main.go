// Command risklo analyzes prop-firm strategy risk from strategy sheets and
// NinjaTrader exports.
//
// Usage:
//
//	risklo serve [--addr :8080]
//	risklo analyze --sheet NAME --account-size 50000 --contracts 2 [--max-drawdown 2500]
//	risklo import --accounts accounts.csv --strategies strategies.csv [--format markdown|csv|json]
//	risklo version
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
