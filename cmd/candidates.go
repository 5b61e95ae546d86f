package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zorak1103/releasectl/internal/versioning"
)

var previewCandidates bool

var candidatesCmd = &cobra.Command{
	Use:   "candidates <current-version>",
	Short: "Show the versions a release would offer",
	Long: `Candidates prints the next versions the release flow offers for a
current version, without touching the repository.

Normal releases offer patch, minor and major. Preview releases offer
prerelease, prepatch, preminor and premajor using the configured preview
identifier. Duplicates and versions not greater than the current one are
dropped.`,
	Example: `  # Normal release candidates
  releasectl candidates 1.2.3

  # Preview release candidates
  releasectl candidates 1.2.3-preview.0 --preview`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		preid := versioning.DefaultPreid
		if c := GetConfig(); c != nil && c.Preid != "" {
			preid = c.Preid
		}

		candidates, err := versioning.DetailedCandidates(args[0], previewCandidates, preid)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, "INCREMENT\tVERSION")
		for _, c := range candidates {
			_, _ = fmt.Fprintf(w, "%s\t%s\n", c.Kind, c.Version)
		}
		return w.Flush()
	},
}

// nolint:gochecknoinits // Standard Cobra pattern for command registration
func init() {
	rootCmd.AddCommand(candidatesCmd)

	candidatesCmd.Flags().BoolVar(&previewCandidates, "preview", false, "show preview (prerelease) candidates")
}
