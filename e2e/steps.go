package e2e

import (
	"github.com/cucumber/godog"

	"yapisite/e2e/steps/admin"
	"yapisite/e2e/steps/routing"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Public routing, locale prefixes and canonical host
	routing.RegisterSteps(ctx, tc)

	// Admin login, logout and lockout
	admin.RegisterSteps(ctx, tc)
}
