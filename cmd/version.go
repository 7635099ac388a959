package cmd

import (
	"fmt"
	goruntime "runtime"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/autobrr/seedgc/pkg/runtime"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints the version, commit hash and build date of the seedgc binary.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Version:    %s\n", runtime.Version)
		fmt.Printf("Commit:     %s\n", runtime.GitCommit)
		fmt.Printf("Build Time: %s\n", buildTime(runtime.Timestamp))
		fmt.Printf("Go:         %s %s/%s\n", goruntime.Version(), goruntime.GOOS, goruntime.GOARCH)
	},
	DisableFlagsInUseLine: true,
}

// buildTime formats a unix timestamp set through ldflags, passing anything else through.
func buildTime(ts string) string {
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ts
	}

	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
