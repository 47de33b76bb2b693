package fieldlock

// Catalog enumerates the fields each entity kind exposes for manual unlock
// selection. The set mirrors the kind's declared searchable fields; it is
// configuration, never persisted.
type Catalog struct {
	byKind map[string][]string
	order  map[string]int
}

// commonAssetFields are the inventory-managed fields shared by every seeded
// asset kind.
var commonAssetFields = []string{
	"name",
	"serial",
	"otherserial",
	"contact",
	"contact_num",
	"users_id",
	"locations_id",
	"states_id",
	"manufacturers_id",
	"comment",
}

// NewCatalog creates a catalog seeded for the built-in asset kinds.
func NewCatalog() *Catalog {
	c := &Catalog{byKind: make(map[string][]string), order: make(map[string]int)}
	c.Register("Computer", append(commonAssetFields, "uuid", "autoupdatesystems_id")...)
	c.Register("NetworkEquipment", append(commonAssetFields, "ram", "networks_id")...)
	c.Register("Printer", append(commonAssetFields, "have_usb", "have_ethernet", "have_wifi")...)
	c.Register("Monitor", append(commonAssetFields, "size")...)
	c.Register("Peripheral", commonAssetFields...)
	c.Register("Phone", append(commonAssetFields, "brand", "phonemodels_id")...)
	c.Register("Enclosure", commonAssetFields...)
	c.Register("Unmanaged", commonAssetFields...)
	return c
}

// Register declares the lockable fields of a kind, replacing any previous
// declaration. Later registrations keep their relative order for display.
func (c *Catalog) Register(itemtype string, fields ...string) {
	if _, seen := c.order[itemtype]; !seen {
		c.order[itemtype] = len(c.order)
	}
	declared := make([]string, len(fields))
	copy(declared, fields)
	c.byKind[itemtype] = declared
}

// FieldsEligibleForLock returns the ordered fields the kind exposes for manual
// unlock selection. Unknown kinds expose no fields.
func (c *Catalog) FieldsEligibleForLock(itemtype string) []string {
	fields, ok := c.byKind[itemtype]
	if !ok {
		return nil
	}
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// Kinds returns every kind with declared lockable fields, in registration
// order.
func (c *Catalog) Kinds() []string {
	kinds := make([]string, len(c.order))
	for kind, idx := range c.order {
		kinds[idx] = kind
	}
	return kinds
}
