package cli

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/casecraft-dev/casecraft/pkg/cli/config"
	"github.com/casecraft-dev/casecraft/pkg/domain/model"
	"github.com/casecraft-dev/casecraft/pkg/utils/logging"
	"github.com/casecraft-dev/casecraft/pkg/utils/safe"
)

// exportDocument is the JSON envelope written by the export command
type exportDocument struct {
	ExportedAt time.Time          `json:"exportedAt"`
	TestCases  []*model.TestCase  `json:"testCases"`
	References []*model.Reference `json:"references"`
}

func cmdExport() *cli.Command {
	var output string
	var includeEmbeddings bool
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "Output destination: local file path, gs://bucket/object, or - for stdout",
			Value:       "-",
			Sources:     cli.EnvVars("CASECRAFT_EXPORT_OUTPUT"),
			Destination: &output,
		},
		&cli.BoolFlag{
			Name:        "include-embeddings",
			Usage:       "Include raw embedding vectors in the export",
			Destination: &includeEmbeddings,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "export",
		Aliases: []string{"e"},
		Usage:   "Export the test case catalog as JSON",
		Flags:   flags,
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

			cases, err := repo.TestCase().List(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to list test cases")
			}

			doc := &exportDocument{
				ExportedAt: time.Now().UTC(),
			}
			for _, tc := range cases {
				exported := tc
				if !includeEmbeddings {
					exported = tc.Clone()
					exported.Embedding = nil
				}
				doc.TestCases = append(doc.TestCases, exported)

				outgoing, err := repo.Reference().ListOutgoing(ctx, tc.ID)
				if err != nil {
					return goerr.Wrap(err, "failed to list references", goerr.V("id", tc.ID))
				}
				for _, ref := range outgoing {
					edge := ref.Reference
					doc.References = append(doc.References, &edge)
				}
			}

			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return goerr.Wrap(err, "failed to encode export document")
			}
			data = append(data, '\n')

			if err := writeExport(ctx, output, data); err != nil {
				return err
			}

			if output != "-" {
				color.Green("Exported %d test cases and %d references to %s",
					len(doc.TestCases), len(doc.References), output)
			}
			return nil
		},
	}
}

func writeExport(ctx context.Context, output string, data []byte) error {
	switch {
	case output == "-":
		safe.Write(ctx, os.Stdout, data)
		return nil

	case strings.HasPrefix(output, "gs://"):
		bucket, object, ok := strings.Cut(strings.TrimPrefix(output, "gs://"), "/")
		if !ok || bucket == "" || object == "" {
			return goerr.New("invalid GCS output, expected gs://bucket/object",
				goerr.V("output", output))
		}

		client, err := storage.NewClient(ctx)
		if err != nil {
			return goerr.Wrap(err, "failed to create GCS client")
		}
		defer safe.Close(ctx, client)

		w := client.Bucket(bucket).Object(object).NewWriter(ctx)
		w.ContentType = "application/json"
		if _, err := w.Write(data); err != nil {
			safe.Close(ctx, w)
			return goerr.Wrap(err, "failed to write export object",
				goerr.V("bucket", bucket), goerr.V("object", object))
		}
		if err := w.Close(); err != nil {
			return goerr.Wrap(err, "failed to finalize export object",
				goerr.V("bucket", bucket), goerr.V("object", object))
		}
		return nil

	default:
		if err := os.WriteFile(output, data, 0644); err != nil {
			return goerr.Wrap(err, "failed to write export file", goerr.V("path", output))
		}
		return nil
	}
}
