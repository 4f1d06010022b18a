package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/casecraft-dev/casecraft/pkg/cli/config"
	"github.com/casecraft-dev/casecraft/pkg/domain/model"
	"github.com/casecraft-dev/casecraft/pkg/domain/types"
	"github.com/casecraft-dev/casecraft/pkg/service/embedding"
	"github.com/casecraft-dev/casecraft/pkg/usecase"
	"github.com/casecraft-dev/casecraft/pkg/utils/logging"
)

// seedCatalog is a small set of sample test cases for development and
// demo environments
func seedCatalog() []usecase.TestCaseInput {
	return []usecase.TestCaseInput{
		{
			Name:        "Login with valid credentials",
			Description: "Verify that a registered user can log in with a valid email and password",
			Type:        types.CaseTypePositive,
			Priority:    types.PriorityHigh,
			Steps: []model.Step{
				{Action: "Open the login page", ExpectedResult: "Login form is displayed"},
				{Action: "Enter a registered email and the correct password", ExpectedResult: "Credentials are accepted"},
				{Action: "Click the login button", ExpectedResult: "User is redirected to the dashboard"},
			},
			ExpectedResult: "User is authenticated and lands on the dashboard",
			Tags:           []string{"auth", "login", "smoke"},
		},
		{
			Name:        "Login with wrong password",
			Description: "Verify that login is rejected when the password does not match",
			Type:        types.CaseTypeNegative,
			Priority:    types.PriorityHigh,
			Steps: []model.Step{
				{Action: "Open the login page", ExpectedResult: "Login form is displayed"},
				{Action: "Enter a registered email and a wrong password", ExpectedResult: "Credentials are submitted"},
				{Action: "Click the login button", ExpectedResult: "An authentication error is shown"},
			},
			ExpectedResult: "User stays on the login page with an error message",
			Tags:           []string{"auth", "login"},
		},
		{
			Name:        "Password reset via email",
			Description: "Verify that a user can reset a forgotten password through the email flow",
			Type:        types.CaseTypePositive,
			Priority:    types.PriorityMedium,
			Steps: []model.Step{
				{Action: "Open the password reset page", ExpectedResult: "Reset form is displayed"},
				{Action: "Submit a registered email address", ExpectedResult: "Reset email is sent"},
				{Action: "Follow the link and set a new password", ExpectedResult: "Password is updated"},
			},
			ExpectedResult: "User can log in with the new password",
			Tags:           []string{"auth", "password-reset"},
		},
		{
			Name:        "Registration with maximum length name",
			Description: "Verify registration behavior when the display name is exactly at the length limit",
			Type:        types.CaseTypePositive,
			Priority:    types.PriorityLow,
			Steps: []model.Step{
				{Action: "Open the registration page", ExpectedResult: "Registration form is displayed"},
				{Action: "Enter a display name of the maximum allowed length", ExpectedResult: "Name is accepted without truncation"},
				{Action: "Submit the form", ExpectedResult: "Account is created"},
			},
			ExpectedResult: "Account is created with the full display name",
			Tags:           []string{"registration", "boundary"},
		},
		{
			Name:        "Checkout with expired session",
			Description: "Verify that checkout fails gracefully when the session expires mid-flow",
			Type:        types.CaseTypeNegative,
			Priority:    types.PriorityHigh,
			Steps: []model.Step{
				{Action: "Add an item to the cart and proceed to checkout", ExpectedResult: "Checkout page is displayed"},
				{Action: "Wait for the session to expire", ExpectedResult: "Session token becomes invalid"},
				{Action: "Submit the order", ExpectedResult: "User is redirected to login with the cart preserved"},
			},
			ExpectedResult: "No order is placed and the cart survives re-login",
			Tags:           []string{"checkout", "session"},
		},
	}
}

// seedEntry is one test case in a seed file, using the same JSON shape
// as the HTTP create endpoint
type seedEntry struct {
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	Type           string       `json:"type"`
	Priority       string       `json:"priority"`
	Steps          []model.Step `json:"steps"`
	ExpectedResult string       `json:"expectedResult"`
	Tags           []string     `json:"tags"`
}

func loadSeedFile(path string) ([]*usecase.TestCaseInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read seed file", goerr.V("path", path))
	}

	var entries []seedEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, goerr.Wrap(err, "failed to parse seed file", goerr.V("path", path))
	}

	inputs := make([]*usecase.TestCaseInput, 0, len(entries))
	for _, e := range entries {
		inputs = append(inputs, &usecase.TestCaseInput{
			Name:           e.Name,
			Description:    e.Description,
			Type:           types.CaseType(e.Type),
			Priority:       types.Priority(e.Priority),
			Steps:          e.Steps,
			ExpectedResult: e.ExpectedResult,
			Tags:           e.Tags,
		})
	}
	return inputs, nil
}

func cmdSeed() *cli.Command {
	var file string
	var repoCfg config.Repository
	var geminiCfg config.Gemini

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "JSON file with test cases to import (uses built-in samples when empty)",
			Sources:     cli.EnvVars("CASECRAFT_SEED_FILE"),
			Destination: &file,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)

	return &cli.Command{
		Name:  "seed",
		Usage: "Insert sample test cases for development",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			var ucOpts []usecase.Option
			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure Gemini client")
			}
			if llmClient != nil {
				embeddingSvc, err := embedding.New(llmClient)
				if err != nil {
					return goerr.Wrap(err, "failed to initialize embedding service")
				}
				ucOpts = append(ucOpts, usecase.WithEmbedding(embeddingSvc))
			}

			uc := usecase.New(repo, ucOpts...)

			if file != "" {
				inputs, err := loadSeedFile(file)
				if err != nil {
					return err
				}

				failed := 0
				for _, result := range uc.BulkImport(ctx, inputs) {
					if result.Err != nil {
						failed++
						fmt.Printf("%s %s: %v\n", color.RedString("x"), inputs[result.Index].Name, result.Err)
						continue
					}
					fmt.Printf("%s %s  %s\n", color.GreenString("+"),
						color.CyanString(string(result.ID)), inputs[result.Index].Name)
				}

				color.Green("Imported %d of %d test cases from %s", len(inputs)-failed, len(inputs), file)
				if failed > 0 {
					return goerr.New("seed completed with failures", goerr.V("failed", failed))
				}
				return nil
			}

			created := 0
			for _, input := range seedCatalog() {
				tc, err := uc.CreateTestCase(ctx, &input)
				if err != nil {
					return goerr.Wrap(err, "failed to create seed test case", goerr.V("name", input.Name))
				}
				marker := color.YellowString("-")
				if tc.HasEmbedding() {
					marker = color.GreenString("+")
				}
				fmt.Printf("%s %s  %s\n", marker, color.CyanString(string(tc.ID)), tc.Name)
				created++
			}

			color.Green("Seeded %d test cases", created)
			if llmClient == nil {
				color.Yellow("Gemini not configured: seeded without embeddings, run serve with --gemini-project to backfill")
			}
			return nil
		},
	}
}
