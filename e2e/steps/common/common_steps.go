package common

import (
	"context"
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	LastStatus() int
	LastBody() string
	ResponseField(field string) (any, error)
}

// RegisterSteps registers generic response assertions.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the request should succeed$`, steps.requestShouldSucceed)
	ctx.Step(`^the response status should be (\d+)$`, steps.responseStatusShouldBe)
	ctx.Step(`^the request should fail with status (\d+) and error "([^"]*)"$`, steps.requestShouldFailWith)
	ctx.Step(`^the error description should contain "([^"]*)"$`, steps.errorDescriptionShouldContain)
	ctx.Step(`^the response should contain "([^"]*)"$`, steps.responseShouldContain)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) requestShouldSucceed(_ context.Context) error {
	if s.tc.LastStatus() != 200 {
		return fmt.Errorf("expected status 200, got %d: %s", s.tc.LastStatus(), s.tc.LastBody())
	}
	return nil
}

func (s *commonSteps) responseStatusShouldBe(_ context.Context, status int) error {
	if s.tc.LastStatus() != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, s.tc.LastStatus(), s.tc.LastBody())
	}
	return nil
}

func (s *commonSteps) requestShouldFailWith(ctx context.Context, status int, code string) error {
	if err := s.responseStatusShouldBe(ctx, status); err != nil {
		return err
	}
	got, err := s.tc.ResponseField("error")
	if err != nil {
		return err
	}
	if got != code {
		return fmt.Errorf("expected error %q, got %q", code, got)
	}
	return nil
}

func (s *commonSteps) errorDescriptionShouldContain(_ context.Context, text string) error {
	got, err := s.tc.ResponseField("error_description")
	if err != nil {
		return err
	}
	desc, _ := got.(string)
	if !strings.Contains(desc, text) {
		return fmt.Errorf("expected error_description to contain %q, got %q", text, desc)
	}
	return nil
}

func (s *commonSteps) responseShouldContain(_ context.Context, field string) error {
	_, err := s.tc.ResponseField(field)
	return err
}
