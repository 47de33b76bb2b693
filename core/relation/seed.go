package relation

// DevicePseudoKind is the selection shorthand that expands to every hardware
// component kind during bulk unlock.
const DevicePseudoKind = "Device"

// deviceKinds are the hardware component kinds reached through the connexity
// capability. Order matters: it is the registration and expansion order.
var deviceKinds = []string{
	"Item_DeviceProcessor",
	"Item_DeviceMemory",
	"Item_DeviceHardDrive",
	"Item_DeviceNetworkCard",
	"Item_DeviceDrive",
	"Item_DeviceBattery",
	"Item_DeviceFirmware",
}

// componentBearingKinds are the base kinds that can carry hardware components.
// A component lookup against any other base kind is not applicable.
var componentBearingKinds = map[string]struct{}{
	"Computer":         {},
	"NetworkEquipment": {},
	"Printer":          {},
	"Peripheral":       {},
	"Phone":            {},
	"Monitor":          {},
	"Enclosure":        {},
	"Unmanaged":        {},
}

// DeviceKinds returns the hardware component kinds the Device pseudo-kind
// expands to. The returned slice is a copy.
func DeviceKinds() []string {
	kinds := make([]string, len(deviceKinds))
	copy(kinds, deviceKinds)
	return kinds
}

// ExpandKinds expands the Device pseudo-kind in a selection into the full set
// of hardware component kinds, preserving order and dropping duplicates.
func ExpandKinds(selected []string) []string {
	seen := make(map[string]struct{}, len(selected))
	out := make([]string, 0, len(selected))
	add := func(kind string) {
		if _, dup := seen[kind]; dup {
			return
		}
		seen[kind] = struct{}{}
		out = append(out, kind)
	}
	for _, kind := range selected {
		if kind == DevicePseudoKind {
			for _, dk := range deviceKinds {
				add(dk)
			}
			continue
		}
		add(kind)
	}
	return out
}

// componentConnexity scopes a hardware component table to its owning item.
// Component tables carry plain itemtype/items_id columns, but only a known set
// of base kinds can own components at all.
type componentConnexity struct{}

// SearchCriteriaForItem implements the ConnexityResolver interface.
func (componentConnexity) SearchCriteriaForItem(base Base) (Criteria, bool) {
	if _, ok := componentBearingKinds[base.Kind]; !ok {
		return nil, false
	}
	return Criteria{
		{Column: "itemtype", Value: base.Kind},
		{Column: "items_id", Value: base.ID},
	}, true
}

// seedDescriptors returns the built-in lockable kinds in registration order.
func seedDescriptors() []Descriptor {
	computerItems := func(kind string) Descriptor {
		return NewDescriptor(kind, &PolymorphicPair{
			JunctionTable: "computers_items",
			JunctionKind:  "Computer_Item",
			OwnerKind:     "Computer",
			OwnerColumn:   "computers_id",
		})
	}

	descriptors := []Descriptor{
		// Direct-connect peripherals, owned through the computers_items junction.
		computerItems("Peripheral"),
		computerItems("Monitor"),
		computerItems("Printer"),
		computerItems("Phone"),

		// Network stack. Ports hang off the base entity directly; names hang
		// off ports; addresses hang off names.
		NewDescriptor("NetworkPort", &DirectOwner{}),
		NewDescriptor("NetworkName", &IndirectJoin{
			Chain: []ChainLink{NewChainLink("NetworkPort")},
		}),
		NewDescriptor("IPAddress", &IndirectJoin{
			Chain: []ChainLink{NewChainLink("NetworkName"), NewChainLink("NetworkPort")},
		}),

		// Storage, virtualization, software and attachments.
		NewDescriptor("Item_Disk", &DirectOwner{}),
		NewDescriptor("ItemVirtualMachine", &DirectOwner{}),
		NewDescriptor("Item_SoftwareVersion", &DirectOwner{}),
		NewDescriptor("Item_SoftwareLicense", &DirectOwner{}),
		NewDescriptor("DatabaseInstance", &DirectOwner{}),
		NewDescriptor("Domain_Item", &DirectOwner{}),
		NewDescriptor("Item_RemoteManagement", &DirectOwner{}),
		NewDescriptor("Item_OperatingSystem", &DirectOwner{}),
	}

	// Hardware components, connected through the connexity capability.
	for _, kind := range deviceKinds {
		descriptors = append(descriptors, NewDescriptor(kind, &ConnexityLookup{
			Resolver: componentConnexity{},
		}))
	}

	return descriptors
}
