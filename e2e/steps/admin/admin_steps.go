package admin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/cucumber/godog"
)

const sessionCookie = "yapi_session"

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	POSTForm(path string, form url.Values) error
	Status() int
	Header(name string) string
	HasCookie(name string) bool
	ForgetCookies() map[string]*http.Cookie
	RestoreCookies(saved map[string]*http.Cookie)
	SetClientIP(ip string)
}

// RegisterSteps registers admin session step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &adminSteps{tc: tc}

	ctx.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, steps.logIn)
	ctx.Step(`^I log in as "([^"]*)" with password "([^"]*)" returning to "([^"]*)"$`, steps.logInReturningTo)
	ctx.Step(`^I log out$`, steps.logOut)
	ctx.Step(`^I should have a session cookie$`, steps.shouldHaveSession)
	ctx.Step(`^I should not have a session cookie$`, steps.shouldNotHaveSession)
	ctx.Step(`^I keep a copy of my session cookie$`, steps.keepSession)
	ctx.Step(`^I replay the kept session cookie$`, steps.replaySession)
	ctx.Step(`^I am connecting from IP "([^"]*)"$`, steps.connectingFrom)
	ctx.Step(`^I fail to log in as "([^"]*)" (\d+) times$`, steps.failLogins)
}

type adminSteps struct {
	tc   TestContext
	kept map[string]*http.Cookie
}

func (s *adminSteps) logIn(ctx context.Context, email, password string) error {
	return s.logInReturningTo(ctx, email, password, "")
}

// logInReturningTo expands ${VAR} references so credentials stay out of the
// feature files.
func (s *adminSteps) logInReturningTo(ctx context.Context, email, password, from string) error {
	form := url.Values{"email": {os.ExpandEnv(email)}, "password": {os.ExpandEnv(password)}}
	if from != "" {
		form.Set("from", from)
	}
	return s.tc.POSTForm("/admin/login", form)
}

func (s *adminSteps) logOut(ctx context.Context) error {
	return s.tc.POSTForm("/admin/logout", url.Values{})
}

func (s *adminSteps) shouldHaveSession(ctx context.Context) error {
	if !s.tc.HasCookie(sessionCookie) {
		return fmt.Errorf("expected a %s cookie", sessionCookie)
	}
	return nil
}

func (s *adminSteps) shouldNotHaveSession(ctx context.Context) error {
	if s.tc.HasCookie(sessionCookie) {
		return fmt.Errorf("expected no %s cookie", sessionCookie)
	}
	return nil
}

func (s *adminSteps) keepSession(ctx context.Context) error {
	if err := s.shouldHaveSession(ctx); err != nil {
		return err
	}
	s.kept = s.tc.ForgetCookies()
	s.tc.RestoreCookies(clone(s.kept))
	return nil
}

func (s *adminSteps) replaySession(ctx context.Context) error {
	if s.kept == nil {
		return fmt.Errorf("no session cookie was kept")
	}
	s.tc.RestoreCookies(clone(s.kept))
	return nil
}

func (s *adminSteps) connectingFrom(ctx context.Context, ip string) error {
	s.tc.SetClientIP(ip)
	return nil
}

func (s *adminSteps) failLogins(ctx context.Context, email string, times int) error {
	for i := range times {
		if err := s.logIn(ctx, email, "definitely-wrong"); err != nil {
			return err
		}
		if s.tc.Status() != http.StatusSeeOther {
			return fmt.Errorf("attempt %d: expected 303, got %d", i+1, s.tc.Status())
		}
	}
	return nil
}

func clone(in map[string]*http.Cookie) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie, len(in))
	for k, v := range in {
		c := *v
		out[k] = &c
	}
	return out
}
