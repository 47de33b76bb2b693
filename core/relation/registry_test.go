package relation_test

import (
	"fmt"
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/relock/core/relation"
)

func TestNewRegistry_SeededKinds(t *testing.T) {
	c := qt.New(t)

	registry, err := relation.NewRegistry()
	c.Assert(err, qt.IsNil)

	kinds := registry.AllKinds()
	c.Assert(len(kinds) > 0, qt.IsTrue)

	// A few first-class kinds must always be present.
	for _, kind := range []string{"NetworkPort", "NetworkName", "IPAddress", "Item_Disk", "Peripheral", "Item_DeviceProcessor"} {
		d, ok := registry.Resolve(kind)
		c.Assert(ok, qt.IsTrue, qt.Commentf("kind %s", kind))
		c.Assert(d.Kind, qt.Equals, kind)
		c.Assert(d.Table, qt.Not(qt.Equals), "")
		c.Assert(d.Shape, qt.IsNotNil)
	}
}

func TestRegistry_AllKindsIsStableCopy(t *testing.T) {
	c := qt.New(t)

	registry := relation.MustNewRegistry()

	first := registry.AllKinds()
	first[0] = "mutated"
	second := registry.AllKinds()
	c.Assert(second[0], qt.Not(qt.Equals), "mutated")
}

func TestRegistry_ExtendBeforeFreeze(t *testing.T) {
	c := qt.New(t)

	registry, err := relation.NewRegistry()
	c.Assert(err, qt.IsNil)

	err = registry.Extend(relation.NewDescriptor("Plugin_Widget", &relation.DirectOwner{}))
	c.Assert(err, qt.IsNil)

	d, ok := registry.Resolve("Plugin_Widget")
	c.Assert(ok, qt.IsTrue)
	c.Assert(d.Table, qt.Equals, "plugins_widgets")
	c.Assert(d.ResultIDField, qt.Equals, "id")
}

func TestRegistry_ExtendAfterFreezeIsRejected(t *testing.T) {
	c := qt.New(t)

	registry := relation.MustNewRegistry()
	registry.Resolve("NetworkPort") // first lookup freezes

	err := registry.Extend(relation.NewDescriptor("Plugin_Widget", &relation.DirectOwner{}))
	c.Assert(err, qt.ErrorIs, relation.ErrRegistryFrozen)
}

func TestRegistry_ExtendDuplicateKind(t *testing.T) {
	c := qt.New(t)

	registry := relation.MustNewRegistry()
	err := registry.Extend(relation.NewDescriptor("NetworkPort", &relation.DirectOwner{}))
	c.Assert(err, qt.ErrorIs, relation.ErrDuplicateKind)
}

func TestRegistry_ExtendInvalidDescriptor(t *testing.T) {
	tests := []struct {
		name       string
		descriptor relation.Descriptor
	}{
		{
			name:       "empty kind",
			descriptor: relation.Descriptor{Table: "widgets", Shape: &relation.DirectOwner{}},
		},
		{
			name:       "nil shape",
			descriptor: relation.Descriptor{Kind: "Widget", Table: "widgets"},
		},
		{
			name:       "empty table",
			descriptor: relation.Descriptor{Kind: "Widget", Shape: &relation.DirectOwner{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			registry := relation.MustNewRegistry()
			c.Assert(registry.Extend(tt.descriptor), qt.IsNotNil)
		})
	}
}

func TestNewRegistry_Contributor(t *testing.T) {
	c := qt.New(t)

	contributor := relation.ContributorFunc(func() []relation.Descriptor {
		return []relation.Descriptor{
			relation.NewDescriptor("PluginAppliance", &relation.DirectOwner{}),
		}
	})

	registry, err := relation.NewRegistry(contributor)
	c.Assert(err, qt.IsNil)

	_, ok := registry.Resolve("PluginAppliance")
	c.Assert(ok, qt.IsTrue)

	kinds := registry.AllKinds()
	c.Assert(kinds[len(kinds)-1], qt.Equals, "PluginAppliance")
}

func TestNewRegistry_ContributorDuplicateFails(t *testing.T) {
	c := qt.New(t)

	contributor := relation.ContributorFunc(func() []relation.Descriptor {
		return []relation.Descriptor{
			relation.NewDescriptor("NetworkPort", &relation.DirectOwner{}),
		}
	})

	_, err := relation.NewRegistry(contributor)
	c.Assert(err, qt.IsNotNil)
	c.Assert(err, qt.ErrorIs, relation.ErrDuplicateKind)
}

// Concurrent Extend and Resolve calls must serialize: every Extend either
// lands before the freeze and is resolvable afterwards, or is rejected with
// ErrRegistryFrozen. Run with -race to verify the write/read ordering.
func TestRegistry_ConcurrentExtendAndResolve(t *testing.T) {
	c := qt.New(t)

	registry := relation.MustNewRegistry()

	const writers = 8
	results := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kind := fmt.Sprintf("Plugin_Widget%d", i)
			results[i] = registry.Extend(relation.NewDescriptor(kind, &relation.DirectOwner{}))
		}(i)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		registry.Resolve("NetworkPort")
	}()
	wg.Wait()

	for i, err := range results {
		kind := fmt.Sprintf("Plugin_Widget%d", i)
		_, resolvable := registry.Resolve(kind)
		if err == nil {
			c.Assert(resolvable, qt.IsTrue, qt.Commentf("kind %s extended without error", kind))
			continue
		}
		c.Assert(err, qt.ErrorIs, relation.ErrRegistryFrozen)
		c.Assert(resolvable, qt.IsFalse, qt.Commentf("kind %s was rejected", kind))
	}
}

func TestRegistry_Descriptors(t *testing.T) {
	c := qt.New(t)

	registry := relation.MustNewRegistry()
	descriptors := registry.Descriptors([]string{"NetworkPort", "NoSuchKind", "Item_Disk"})

	c.Assert(descriptors, qt.HasLen, 2)
	c.Assert(descriptors[0].Kind, qt.Equals, "NetworkPort")
	c.Assert(descriptors[1].Kind, qt.Equals, "Item_Disk")
}
