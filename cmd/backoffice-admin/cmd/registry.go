package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hromada/backoffice/internal/app"
	"github.com/hromada/backoffice/internal/infra/postgres"
	"github.com/hromada/backoffice/internal/infra/storage"
	"github.com/hromada/backoffice/pkg/domain/registry"
	"github.com/hromada/backoffice/pkg/domain/shared"
	"github.com/hromada/backoffice/pkg/validator"
)

var registryCmd = &cobra.Command{
	Use:     "registry",
	Aliases: []string{"registries"},
	Short:   "Publish open-data registry snapshots",
}

var registryPublishCmd = &cobra.Command{
	Use:   "publish <id>",
	Short: "Publish a snapshot of one registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := shared.ParseID(args[0])
		if err != nil {
			return fmt.Errorf("invalid registry id %q", args[0])
		}

		e, svc, err := openRegistryService(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		result, err := svc.Publish(commandContext(cmd), id)
		if err != nil {
			return err
		}
		return printPublishResults(cmd.OutOrStdout(), []*app.PublishResult{result})
	},
}

var registryPublishAllCmd = &cobra.Command{
	Use:   "publish-all",
	Short: "Publish snapshots of every published registry",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, svc, err := openRegistryService(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		results, err := svc.PublishAll(commandContext(cmd))
		if perr := printPublishResults(cmd.OutOrStdout(), results); perr != nil {
			return perr
		}
		return err
	},
}

func init() {
	registryCmd.AddCommand(registryPublishCmd, registryPublishAllCmd)
}

func openRegistryService(cmd *cobra.Command) (*env, *app.RegistryService, error) {
	e, err := openEnv()
	if err != nil {
		return nil, nil, err
	}

	var publisher registry.Publisher
	if e.cfg.Storage.Enabled {
		p, err := storage.NewS3Publisher(commandContext(cmd), e.cfg.Storage, e.log)
		if err != nil {
			e.Close()
			return nil, nil, fmt.Errorf("initialize snapshot storage: %w", err)
		}
		publisher = p
	}

	svc := app.NewRegistryService(
		postgres.NewRegistryRepository(e.db),
		publisher,
		e.cfg.Storage.Prefix,
		validator.New(),
		nil,
		e.log,
	)
	return e, svc, nil
}

func printPublishResults(w io.Writer, results []*app.PublishResult) error {
	if results == nil {
		results = []*app.PublishResult{}
	}
	if done, err := printStructured(w, results); done {
		return err
	}

	t := newTable(w, "ID", "NAME", "RECORDS", "PUBLISHED AT", "LOCATION")
	for _, r := range results {
		t.AddRow(fmt.Sprint(r.RegistryID), r.Name, fmt.Sprint(r.Records), shortTime(r.PublishedAt), r.Location)
	}
	return t.Flush()
}
