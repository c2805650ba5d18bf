package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"onboarding-service/internal/catalog"
	"onboarding-service/internal/domain"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewCatalogCmd groups commands for inspecting the built-in question catalogs.
func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect built-in question catalogs",
	}
	cmd.AddCommand(newCatalogValidateCmd(), newCatalogShowCmd())
	return cmd
}

func newCatalogValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every persona has a well-formed catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalogs := catalog.Builtin()
			if err := catalog.ValidateAll(catalogs); err != nil {
				return err
			}
			for _, p := range domain.Personas() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d questions ok\n", p, len(catalogs[p].Questions))
			}
			return nil
		},
	}
}

func newCatalogShowCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show [persona]",
		Short: "Print a catalog as yaml or json",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalogs := catalog.Builtin()
			var out any = catalogs
			if len(args) == 1 {
				p, err := domain.ParsePersona(args[0])
				if err != nil {
					return err
				}
				out = catalogs[p]
			}
			return writeCatalog(cmd.OutOrStdout(), format, out)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "output format: yaml or json")
	return cmd
}

func writeCatalog(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
