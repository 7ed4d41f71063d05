package routing

import (
	"context"
	"fmt"
	"os"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	GETHost(host, path string) error
	Status() int
	Header(name string) string
	JSONField(field string) (any, error)
}

// RegisterSteps registers request and response step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &routingSteps{tc: tc}

	ctx.Step(`^I request "([^"]*)"$`, steps.request)
	ctx.Step(`^I request "([^"]*)" on host "([^"]*)"$`, steps.requestOnHost)
	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response should redirect to "([^"]*)"$`, steps.shouldRedirectTo)
	ctx.Step(`^the "([^"]*)" header should be "([^"]*)"$`, steps.headerShouldBe)
	ctx.Step(`^the "([^"]*)" header should be present$`, steps.headerShouldBePresent)
	ctx.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, steps.jsonFieldShouldBe)
}

type routingSteps struct {
	tc TestContext
}

func (s *routingSteps) request(ctx context.Context, path string) error {
	return s.tc.GET(path)
}

// requestOnHost expands ${VAR} in host.
func (s *routingSteps) requestOnHost(ctx context.Context, path, host string) error {
	return s.tc.GETHost(os.ExpandEnv(host), path)
}

func (s *routingSteps) statusShouldBe(ctx context.Context, want int) error {
	if got := s.tc.Status(); got != want {
		return fmt.Errorf("expected status %d, got %d", want, got)
	}
	return nil
}

// shouldRedirectTo accepts any 3xx status.
func (s *routingSteps) shouldRedirectTo(ctx context.Context, location string) error {
	if got := s.tc.Status(); got < 300 || got > 399 {
		return fmt.Errorf("expected a redirect, got status %d", got)
	}
	if got := s.tc.Header("Location"); got != location {
		return fmt.Errorf("expected Location %q, got %q", location, got)
	}
	return nil
}

func (s *routingSteps) headerShouldBe(ctx context.Context, name, want string) error {
	if got := s.tc.Header(name); got != want {
		return fmt.Errorf("expected %s %q, got %q", name, want, got)
	}
	return nil
}

func (s *routingSteps) headerShouldBePresent(ctx context.Context, name string) error {
	if s.tc.Header(name) == "" {
		return fmt.Errorf("expected %s header", name)
	}
	return nil
}

func (s *routingSteps) jsonFieldShouldBe(ctx context.Context, field, want string) error {
	v, err := s.tc.JSONField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("expected %s %q, got %q", field, want, got)
	}
	return nil
}
