package main

import (
	"fmt"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/stokaro/relock/core/relation"
	"github.com/stokaro/relock/fieldlock"
)

const itemtypeFlag = "itemtype"

func newFieldsCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		itemtypeFlag: &cobraflags.StringFlag{
			Name:  itemtypeFlag,
			Value: "",
			Usage: "Entity kind to list lockable fields for, e.g. Computer; empty lists every kind",
		},
	}

	fieldsCmd := &cobra.Command{
		Use:   "fields",
		Short: "List the fields eligible for manual unlock selection",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runFields(flags[itemtypeFlag].GetString())
		},
	}
	cobraflags.RegisterMap(fieldsCmd, flags)
	return fieldsCmd
}

func runFields(itemtype string) error {
	catalog := fieldlock.NewCatalog()

	kinds := catalog.Kinds()
	if itemtype != "" {
		kinds = []string{itemtype}
	}

	for _, kind := range kinds {
		fields := catalog.FieldsEligibleForLock(kind)
		if len(fields) == 0 {
			return fmt.Errorf("no lockable fields declared for kind %q", kind)
		}
		fmt.Printf("%s:\n", relation.HumanizeKind(kind))
		for _, field := range fields {
			fmt.Printf("  %-24s (%s)\n", field, relation.HumanizeField(field))
		}
		fmt.Println()
	}
	return nil
}
