package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/proximalabs/proxima-go/internal/adapters/persistence"
	"github.com/proximalabs/proxima-go/internal/application/common"
	"github.com/proximalabs/proxima-go/internal/application/simulation/queries"
	"github.com/proximalabs/proxima-go/internal/domain/world"
)

// NewExperimentsCommand creates the experiments command group
func NewExperimentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "experiments",
		Short: "Manage experiment and world template documents",
		Long: `Inspect and register the documents a run needs: world templates
(the full simulation configuration) and experiments (a template
reference plus overrides).

Examples:
  proxima experiments list
  proxima experiments create --file experiment.json
  proxima experiments import-template --id tmpl-baseline --file world.json
  proxima experiments import-component --id comp_isru_extractor --file isru.json`,
	}

	cmd.AddCommand(newExperimentsListCommand())
	cmd.AddCommand(newExperimentsCreateCommand())
	cmd.AddCommand(newImportTemplateCommand())
	cmd.AddCommand(newImportComponentCommand())

	return cmd
}

func newExperimentsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered experiments",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openStore()
			if err != nil {
				return err
			}
			defer closeStore(db)

			handler := queries.NewListExperimentsHandler(persistence.NewGormDocumentRepository(db))
			resp, err := handler.Handle(cmd.Context(), &queries.ListExperimentsQuery{})
			if err != nil {
				return err
			}
			result := resp.(*queries.ListExperimentsResponse)

			if len(result.Experiments) == 0 {
				fmt.Println("No experiments registered")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTEMPLATE\tMAX STEPS")
			for _, exp := range result.Experiments {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", exp.ID, exp.Name, exp.TemplateID, exp.MaxSteps)
			}
			return w.Flush()
		},
	}
}

func newExperimentsCreateCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register an experiment from a JSON document",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read experiment document: %w", err)
			}
			var doc common.ExperimentDocument
			if err := json.Unmarshal(raw, &doc); err != nil {
				return fmt.Errorf("parse experiment document: %w", err)
			}

			_, db, err := openStore()
			if err != nil {
				return err
			}
			defer closeStore(db)

			documents := persistence.NewGormDocumentRepository(db)
			if err := documents.SaveExperiment(cmd.Context(), &doc); err != nil {
				return err
			}
			fmt.Printf("experiment %s saved (template %s)\n", doc.ID, doc.TemplateID)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to the experiment JSON document")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newImportTemplateCommand() *cobra.Command {
	var (
		id   string
		file string
	)

	cmd := &cobra.Command{
		Use:   "import-template",
		Short: "Register a world template from a JSON document",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read world template: %w", err)
			}
			var cfg world.Config
			if err := json.Unmarshal(raw, &cfg); err != nil {
				return fmt.Errorf("parse world template: %w", err)
			}

			_, db, err := openStore()
			if err != nil {
				return err
			}
			defer closeStore(db)

			documents := persistence.NewGormDocumentRepository(db)

			// Surface template errors at import time, not at run time.
			components, err := documents.ComponentTemplates(cmd.Context())
			if err != nil {
				return err
			}
			resolved, err := world.ResolveComponents(cfg, components)
			if err != nil {
				return fmt.Errorf("template does not resolve: %w", err)
			}
			if _, err := world.Build(resolved); err != nil {
				return fmt.Errorf("template does not build: %w", err)
			}

			if err := documents.SaveWorldTemplate(cmd.Context(), id, cfg); err != nil {
				return err
			}
			fmt.Printf("world template %s saved\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Template id")
	cmd.Flags().StringVar(&file, "file", "", "Path to the world template JSON document")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newImportComponentCommand() *cobra.Command {
	var (
		id   string
		file string
	)

	cmd := &cobra.Command{
		Use:   "import-component",
		Short: "Register an agent-type defaults document",
		Long: `Register a component template: a JSON document of agent defaults
that world templates reference by id. Sector-level values override the
template's at build time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read component template: %w", err)
			}

			_, db, err := openStore()
			if err != nil {
				return err
			}
			defer closeStore(db)

			documents := persistence.NewGormDocumentRepository(db)
			if err := documents.SaveComponentTemplate(cmd.Context(), id, raw); err != nil {
				return err
			}
			fmt.Printf("component template %s saved\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Component template id")
	cmd.Flags().StringVar(&file, "file", "", "Path to the agent defaults JSON document")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
