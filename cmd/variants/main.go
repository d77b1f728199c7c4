// Command variants runs one pipeline pass from the terminal: resolve the
// gene's coordinates, fetch the patient's variants in that range, and print
// the translated rows.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/subject-variants-server/internal/config"
	"github.com/subject-variants-server/internal/domain"
	"github.com/subject-variants-server/internal/logging"
	"github.com/subject-variants-server/internal/service"
	"github.com/subject-variants-server/pkg/external"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "variants",
		Short:        "Fetch and flatten a patient's genomic variants for a gene",
		SilenceUsage: true,
	}

	cmd.AddCommand(newFetchCmd())

	return cmd
}

func newFetchCmd() *cobra.Command {
	var (
		gene      string
		patientID string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Run the coordinate and variant lookups for one gene and patient",
		Example: `  variants fetch --gene BRCA1 --patient PAT-001
  variants fetch --gene TP53 --patient PAT-001 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), gene, patientID, asJSON)
		},
	}

	cmd.Flags().StringVar(&gene, "gene", "", "gene symbol to resolve (required)")
	cmd.Flags().StringVar(&patientID, "patient", "", "patient identifier (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit rows as a JSON array")
	_ = cmd.MarkFlagRequired("gene")
	_ = cmd.MarkFlagRequired("patient")

	return cmd
}

func runFetch(ctx context.Context, gene, patientID string, asJSON bool) error {
	configManager, err := config.NewManager()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := configManager.Validate(); err != nil {
		return fmt.Errorf("validating configuration: %w", err)
	}

	cfg := configManager.GetConfig()
	logger := logging.NewLogger(cfg.Logging)
	logger.SetOutput(os.Stderr)

	genomics := external.NewResilientGenomicsClient(
		external.GenesConfig{
			BaseURL:   cfg.GenesAPI.BaseURL,
			Timeout:   cfg.GenesAPI.Timeout,
			RateLimit: cfg.GenesAPI.RateLimit,
		},
		external.FHIRConfig{
			BaseURL:   cfg.FHIR.BaseURL,
			Timeout:   cfg.FHIR.Timeout,
			RateLimit: cfg.FHIR.RateLimit,
		},
		logger,
	)

	resolver, err := service.NewResolver(genomics, cfg.Cache.MaxEntries, logger)
	if err != nil {
		return fmt.Errorf("creating resolver: %w", err)
	}

	orch := service.NewOrchestrator(gene, patientID, resolver, genomics, logger)
	if err := orch.Run(ctx); err != nil {
		return err
	}

	if orch.Readiness() != domain.ReadinessVariants {
		fmt.Fprintf(os.Stderr, "Pipeline stopped at %s; no variants to show\n", orch.Readiness())
		return nil
	}

	delivered := orch.Confirm(func(rows []domain.VariantRow) {
		if asJSON {
			printJSON(rows)
		} else {
			printTable(rows)
		}
	})
	if !delivered {
		return fmt.Errorf("pipeline reported readiness but released no rows")
	}
	return nil
}

func printJSON(rows []domain.VariantRow) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(rows)
}

func printTable(rows []domain.VariantRow) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SPDI\tDNA CHANGE TYPE\tSOURCE CLASS\tALLELIC STATE\tMOLECULAR IMPACT\tALLELE FREQ")
	for _, row := range rows {
		freq := ""
		if !math.IsNaN(float64(row.AlleleFreq)) {
			freq = fmt.Sprintf("%g", float64(row.AlleleFreq))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			row.SPDI, row.DNAChangeType, row.SourceClass, row.AllelicState, row.MolecImpact, freq)
	}
	_ = w.Flush()
}
