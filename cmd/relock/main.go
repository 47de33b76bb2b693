// Command relock inspects and reverses inventory locks on assets: fields a
// human operator overwrote and related records a human operator removed after
// the automated inventory created them.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "relock",
	Short: "Inspect and reverse inventory locks on assets",
	Long: `relock resolves which fields and related records of an inventoried asset are
locked (manually changed, protected from the automated inventory) and reverses
those locks in bulk, with one success/failure outcome per asset.

The database URL is taken from --db-url or the RELOCK_DB_URL environment
variable. Supported schemes: postgres://, mysql://.

Examples:
  relock resolve --base-kind Computer --base-id 42
  relock unlock fields --base-kind Computer --ids 42,43 --fields serial,otherserial
  relock unlock components --base-kind Computer --ids 42 --kinds NetworkPort,Device
  relock purge components --base-kind Computer --ids 42 --kinds IPAddress
  relock fields --itemtype Computer`,
}

func main() {
	viper.SetEnvPrefix("RELOCK")
	viper.AutomaticEnv()

	rootCmd.AddCommand(newResolveCommand())
	rootCmd.AddCommand(newUnlockCommand())
	rootCmd.AddCommand(newPurgeCommand())
	rootCmd.AddCommand(newFieldsCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
