package e2e

import (
	"github.com/cucumber/godog"

	"dua/e2e/steps/common"
	"dua/e2e/steps/ledger"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (generic assertions on the last response)
	common.RegisterSteps(ctx, tc)

	// Register ledger deploy, operation and state steps
	ledger.RegisterSteps(ctx, tc)
}
