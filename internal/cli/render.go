package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/geodetic-io/cartograph/pkg/mapspec"
)

// newRenderCmd creates the "render" command: definition in, SVG out.
func newRenderCmd() *cobra.Command {
	var (
		output string
		width  float64
		height float64
	)

	cmd := &cobra.Command{
		Use:   "render <definition.toml>",
		Short: "Render a map definition to SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			specPath := args[0]

			spec, err := mapspec.Load(specPath)
			if err != nil {
				return err
			}
			if width > 0 {
				spec.Width = width
			}
			if height > 0 {
				spec.Height = height
			}

			prog := newProgress(logger)
			sp := newSpinner(cmd.Context(), "Rendering "+nameOf(spec))
			sp.start()
			m, err := mapspec.Build(spec, baseDirOf(specPath), logger)
			if err != nil {
				sp.stop()
				return err
			}
			data := m.Document().Render()
			sp.stop()
			prog.done(fmt.Sprintf("Rendered %d layers", len(m.LayerIDs())))

			if output == "" || output == "-" {
				_, err := os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			printSuccess("Wrote %s", nameOf(spec))
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().Float64Var(&width, "width", 0, "override map width")
	cmd.Flags().Float64Var(&height, "height", 0, "override map height")

	return cmd
}

func baseDirOf(specPath string) string {
	return filepath.Dir(specPath)
}

func nameOf(spec *mapspec.Spec) string {
	if spec.Name != "" {
		return spec.Name
	}
	return "map"
}
