package main

import (
	"fmt"
	"sort"

	"github.com/go-extras/cobraflags"
	"github.com/go-extras/go-kit/must"
	"github.com/spf13/cobra"

	"github.com/stokaro/relock/core/relation"
	"github.com/stokaro/relock/fieldlock"
	"github.com/stokaro/relock/resolve"
)

const baseIDFlag = "base-id"

func newResolveCommand() *cobra.Command {
	flags := connectionFlags()
	flags[baseKindFlag] = &cobraflags.StringFlag{
		Name:  baseKindFlag,
		Value: "",
		Usage: "Base entity kind, e.g. Computer",
	}
	flags[baseIDFlag] = &cobraflags.StringFlag{
		Name:  baseIDFlag,
		Value: "",
		Usage: "Base entity id",
	}

	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show every locked field and locked related record of one asset",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runResolve(flags)
		},
	}
	cobraflags.RegisterMap(resolveCmd, flags)
	return resolveCmd
}

func runResolve(flags map[string]cobraflags.Flag) error {
	baseID, err := parseID(flags[baseIDFlag].GetString())
	if err != nil {
		return err
	}
	base := relation.Base{
		Kind: flags[baseKindFlag].GetString(),
		ID:   baseID,
	}

	conn, err := openConnection(flags)
	if err != nil {
		return err
	}
	defer conn.Close()

	registry := must.Must(relation.NewRegistry())
	resolver := resolve.New(registry, newComposer(conn), conn, fieldlock.NewStore(conn))

	resolution, err := resolver.Resolve(cmdContext(), base)
	if err != nil {
		return err
	}

	fmt.Printf("Locked state of %s #%d\n\n", relation.HumanizeKind(base.Kind), base.ID)

	fmt.Printf("Field locks (%d):\n", len(resolution.FieldLocks))
	for _, lock := range sortedFieldLocks(resolution.FieldLocks) {
		scope := "instance"
		if lock.IsGlobal {
			scope = "global"
		}
		fmt.Printf("  %-24s %-8s last inventoried value: %q\n", relation.HumanizeField(lock.Field), scope, lock.Value)
	}

	fmt.Printf("\nRecord locks (%d):\n", len(resolution.RecordLocks))
	records := resolution.RecordLocks
	sort.Slice(records, func(i, j int) bool {
		if records[i].Kind != records[j].Kind {
			return records[i].Kind < records[j].Kind
		}
		return records[i].ID < records[j].ID
	})
	for _, ref := range records {
		fmt.Printf("  %-24s #%d\n", relation.HumanizeKind(ref.Kind), ref.ID)
	}
	return nil
}

func sortedFieldLocks(locks []fieldlock.LockedField) []fieldlock.LockedField {
	sort.Slice(locks, func(i, j int) bool {
		return locks[i].Field < locks[j].Field
	})
	return locks
}
