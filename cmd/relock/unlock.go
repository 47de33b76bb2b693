package main

import (
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/go-extras/go-kit/must"
	"github.com/spf13/cobra"

	"github.com/stokaro/relock/bulk"
	"github.com/stokaro/relock/core/relation"
	"github.com/stokaro/relock/fieldlock"
)

const (
	fieldsFlag = "fields"
	kindsFlag  = "kinds"
)

func newUnlockCommand() *cobra.Command {
	unlockCmd := &cobra.Command{
		Use:   "unlock [fields|components]",
		Short: "Remove locks in bulk, restoring records the inventory created",
	}
	unlockCmd.AddCommand(newUnlockFieldsCommand())
	unlockCmd.AddCommand(newUnlockComponentsCommand())
	return unlockCmd
}

func newPurgeCommand() *cobra.Command {
	purgeCmd := &cobra.Command{
		Use:   "purge [components]",
		Short: "Remove locks in bulk, permanently deleting the locked records",
	}
	purgeCmd.AddCommand(newPurgeComponentsCommand())
	return purgeCmd
}

func newUnlockFieldsCommand() *cobra.Command {
	flags := bulkFlags()
	flags[fieldsFlag] = &cobraflags.StringFlag{
		Name:  fieldsFlag,
		Value: "",
		Usage: "Comma-separated field names to unlock, e.g. serial,otherserial",
	}

	fieldsCmd := &cobra.Command{
		Use:   "fields",
		Short: "Delete the selected field locks of the given assets",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBulk(flags, bulk.UnlockFields(splitList(flags[fieldsFlag].GetString())...))
		},
	}
	cobraflags.RegisterMap(fieldsCmd, flags)
	return fieldsCmd
}

func newUnlockComponentsCommand() *cobra.Command {
	flags := bulkFlags()
	flags[kindsFlag] = &cobraflags.StringFlag{
		Name:  kindsFlag,
		Value: "",
		Usage: "Comma-separated relation kinds to unlock (Device expands to every hardware component kind)",
	}

	componentsCmd := &cobra.Command{
		Use:   "components",
		Short: "Restore the locked records of the selected relation kinds",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBulk(flags, bulk.UnlockComponents(splitList(flags[kindsFlag].GetString())...))
		},
	}
	cobraflags.RegisterMap(componentsCmd, flags)
	return componentsCmd
}

func newPurgeComponentsCommand() *cobra.Command {
	flags := bulkFlags()
	flags[kindsFlag] = &cobraflags.StringFlag{
		Name:  kindsFlag,
		Value: "",
		Usage: "Comma-separated relation kinds to purge (Device expands to every hardware component kind)",
	}

	componentsCmd := &cobra.Command{
		Use:   "components",
		Short: "Permanently delete the locked records of the selected relation kinds",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBulk(flags, bulk.PurgeComponents(splitList(flags[kindsFlag].GetString())...))
		},
	}
	cobraflags.RegisterMap(componentsCmd, flags)
	return componentsCmd
}

func bulkFlags() map[string]cobraflags.Flag {
	flags := connectionFlags()
	flags[baseKindFlag] = &cobraflags.StringFlag{
		Name:  baseKindFlag,
		Value: "",
		Usage: "Base entity kind, e.g. Computer",
	}
	flags[idsFlag] = &cobraflags.StringFlag{
		Name:  idsFlag,
		Value: "",
		Usage: "Comma-separated base entity ids",
	}
	return flags
}

func runBulk(flags map[string]cobraflags.Flag, action bulk.Action) error {
	baseKind := flags[baseKindFlag].GetString()
	ids, err := parseIDs(flags[idsFlag].GetString())
	if err != nil {
		return err
	}

	conn, err := openConnection(flags)
	if err != nil {
		return err
	}
	defer conn.Close()

	perm, err := buildPermissioner(flags)
	if err != nil {
		return err
	}

	registry := must.Must(relation.NewRegistry())
	engine := bulk.NewEngine(registry, newComposer(conn), conn, conn, fieldlock.NewStore(conn)).
		WithPermissioner(perm)

	outcomes, err := engine.Run(cmdContext(), baseKind, ids, action)
	if err != nil {
		return err
	}

	failed := 0
	for _, outcome := range outcomes {
		if outcome.Status == bulk.StatusFailed {
			failed++
			fmt.Printf("%s #%d: FAILED (%s)\n", baseKind, outcome.BaseID, outcome.Detail)
			continue
		}
		if outcome.Detail != "" {
			fmt.Printf("%s #%d: OK (%s)\n", baseKind, outcome.BaseID, outcome.Detail)
			continue
		}
		fmt.Printf("%s #%d: OK\n", baseKind, outcome.BaseID)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d ids failed", failed, len(outcomes))
	}
	return nil
}
